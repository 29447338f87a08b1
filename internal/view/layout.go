package view

import (
	"strconv"

	"github.com/hitoshi/sharehub/internal/label"
	"github.com/hitoshi/sharehub/internal/model"
)

// MenuItem はヘッダーメニューの1項目。Actionが空でなければPOSTで送信するボタンになる。
type MenuItem struct {
	Key    string
	Label  string
	Href   string
	Action string
}

var (
	userMenu = []MenuItem{
		{Key: "profile", Label: "个人资料", Href: RouteProfile},
		{Key: "messages", Label: "消息中心", Href: RouteMessages},
		{Key: "settings", Label: "设置", Href: RouteSettings},
		{Key: "logout", Label: "退出登录", Action: "/logout"},
	}
	publicMenu = []MenuItem{
		{Key: "login", Label: "登录", Href: RouteLogin},
		{Key: "register", Label: "注册", Href: RouteRegister},
	}
)

// Layout は全画面共通の枠の表示モデル。
type Layout struct {
	User        *model.User
	DisplayName string
	Nav         []MenuItem
	Menu        []MenuItem
	Sidebar     []MenuItem
	Notices     []Notice
	Current     string
}

// categoryMenu はサイドバーの分類リンク。分類表の順序に従う。
func categoryMenu() []MenuItem {
	names := label.Categories.Names()
	items := make([]MenuItem, 0, len(names))
	for _, name := range names {
		code, _ := label.Categories.Code(name)
		items = append(items, MenuItem{
			Key:   "category-" + strconv.Itoa(code),
			Label: name,
			Href:  RouteHome + "?category=" + strconv.Itoa(code),
		})
	}
	return items
}

// LoggedIn はログイン中かどうかを返す。
func (l *Layout) LoggedIn() bool { return l.User != nil }

// NewLayout は現在のセッションに応じたメニューを組み立て、溜まった通知を取り出す。
func NewLayout(env *Env) *Layout {
	user := env.Session.CurrentUser()
	l := &Layout{
		User:    user,
		Nav:     []MenuItem{{Key: "home", Label: "首页", Href: RouteHome}},
		Sidebar: categoryMenu(),
		Notices: env.Notify.Drain(),
		Current: env.Nav.Current(),
	}
	if user != nil {
		l.DisplayName = user.DisplayName()
		l.Nav = append(l.Nav, MenuItem{Key: "create", Label: "发布物品", Href: RouteCreate})
		l.Menu = userMenu
	} else {
		l.Menu = publicMenu
	}
	return l
}

package view

import (
	"strconv"
	"strings"
	"sync"
)

// 画面のルート
const (
	RouteHome     = "/"
	RouteLogin    = "/login"
	RouteRegister = "/register"
	RouteCreate   = "/create"
	RouteProfile  = "/profile"
	RouteMessages = "/messages"
	RouteSettings = "/settings"
	routeItemBase = "/items/"
)

// ItemRoute は物品詳細のルートを返す。
func ItemRoute(itemID int64) string {
	return routeItemBase + strconv.FormatInt(itemID, 10)
}

// Protected はログインが必要なルートかどうかを返す。
func Protected(route string) bool {
	switch routePath(route) {
	case RouteCreate, RouteProfile, RouteMessages:
		return true
	}
	return false
}

func routePath(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		return route[:i]
	}
	return route
}

// Navigator はワークスペースの現在のルートを保持する。
// Navigateで移動したルートは保留中のリダイレクトとしてTakeRedirectで取り出せる。
type Navigator struct {
	mu      sync.Mutex
	current string
	pending string
}

// NewNavigator はホームを現在のルートとするNavigatorを生成する。
func NewNavigator() *Navigator {
	return &Navigator{current: RouteHome}
}

// Visit は画面の表示に伴って現在のルートを記録する。リダイレクトは発生しない。
func (n *Navigator) Visit(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = route
}

// Navigate はルートを移動し、呼び出し元にリダイレクトを要求する。
func (n *Navigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = route
	n.pending = route
}

// Current は現在のルートを返す。
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// TakeRedirect は保留中のリダイレクト先を取り出す。
func (n *Navigator) TakeRedirect() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending == "" {
		return "", false
	}
	to := n.pending
	n.pending = ""
	return to, true
}

// Guard は保護されたルートへの匿名アクセスをログイン画面へ振り替える。
// 表示を続けてよい場合にtrueを返す。
func (n *Navigator) Guard(route string, authenticated bool) bool {
	if Protected(route) && !authenticated {
		n.Navigate(RouteLogin)
		return false
	}
	n.Visit(route)
	return true
}

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/sharehub/internal/middleware"
	"github.com/hitoshi/sharehub/internal/view"
	"github.com/hitoshi/sharehub/internal/workspace"
)

// WorkspaceProvider はクライアントIDに対応するワークスペースを返す。
type WorkspaceProvider interface {
	Get(ctx context.Context, id, origin string) (*workspace.Workspace, error)
}

// PageHandler は画面のHTTPハンドラー。
// 各リクエストはクライアントのワークスペースを占有し、画面ロジックを実行してから
// 保留中のリダイレクトがあれば303で移動し、なければ画面を描画する。
type PageHandler struct {
	workspaces WorkspaceProvider
	origin     string
	renderer   *Renderer
	logger     *slog.Logger
}

// NewPageHandler はPageHandlerを生成する。originは相対API_URLの解決に使う自サーバーのオリジン。
func NewPageHandler(workspaces WorkspaceProvider, origin string, renderer *Renderer, logger *slog.Logger) *PageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandler{
		workspaces: workspaces,
		origin:     origin,
		renderer:   renderer,
		logger:     logger,
	}
}

// pageFunc はワークスペースを占有した状態で実行される画面処理。
type pageFunc func(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace)

// with はクライアントのワークスペースを取得して占有し、fnを実行する。
func (h *PageHandler) with(fn pageFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := middleware.ClientIDFromContext(r.Context())
		if err != nil {
			h.logger.Error("クライアントIDがありません", slog.String("path", r.URL.Path))
			http.Error(w, "服务器内部错误", http.StatusInternalServerError)
			return
		}

		ws, err := h.workspaces.Get(r.Context(), clientID, h.origin)
		if err != nil {
			h.logger.Error("ワークスペースの取得に失敗しました",
				slog.String("client_id", clientID),
				slog.String("error", err.Error()),
			)
			http.Error(w, "服务器内部错误", http.StatusInternalServerError)
			return
		}

		ws.Lock()
		defer ws.Unlock()
		fn(w, r, ws)
	}
}

// render は保留中のリダイレクトがあれば移動し、なければ画面を描画する。
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, status int, name, title string, page any) {
	if to, ok := ws.Nav().TakeRedirect(); ok {
		http.Redirect(w, r, to, http.StatusSeeOther)
		return
	}
	h.renderer.Render(w, status, name, pageData{
		Title:     title,
		Layout:    ws.Layout(),
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Page:      page,
	})
}

// redirect は保留中のリダイレクト先、なければfallbackへ303で移動する。
func (h *PageHandler) redirect(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, fallback string) {
	to, ok := ws.Nav().TakeRedirect()
	if !ok {
		to = fallback
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// failed は画面ロジックのエラーを記録する。クライアントの切断は記録しない。
// 利用者向けのメッセージは画面ロジックが通知キューに積んでいる。
func (h *PageHandler) failed(r *http.Request, op string, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(r.Context().Err(), context.Canceled) {
		return true
	}
	h.logger.Warn("画面処理に失敗しました",
		slog.String("op", op),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	return true
}

// aborted はクライアントが切断済みで応答を返す必要がないかを返す。
func aborted(r *http.Request) bool {
	return r.Context().Err() != nil
}

// requireLogin は匿名の操作をログイン画面へ振り替える。続行してよい場合にtrueを返す。
func requireLogin(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) bool {
	if ws.Session().IsAuthenticated() {
		return true
	}
	ws.Notify().Warning("请先登录")
	http.Redirect(w, r, view.RouteLogin, http.StatusSeeOther)
	return false
}

// pathID はURLパラメータのIDを解析する。
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// safeReturn はフォームで指定された戻り先を自サイト内のパスに限って返す。
func safeReturn(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return u.RequestURI()
}

// --- 一覧・詳細 ---

// Home は物品一覧を表示する。GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	page, err := ws.Home.Load(r.Context(), view.ParseHomeFilter(r.URL.Query()))
	if err != nil {
		if !aborted(r) {
			h.failed(r, "home.load", err)
			http.Error(w, "服务器内部错误", http.StatusInternalServerError)
		}
		return
	}
	h.render(w, r, ws, http.StatusOK, "home", "", page)
}

// ItemDetail は物品詳細を表示する。GET /items/{id}
func (h *PageHandler) ItemDetail(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r, ws)
		return
	}
	page, err := ws.ItemDetail.Load(r.Context(), id)
	if err != nil {
		if !aborted(r) {
			h.failed(r, "item.load", err)
			http.Error(w, "服务器内部错误", http.StatusInternalServerError)
		}
		return
	}
	status := http.StatusOK
	title := ""
	if page.NotFound {
		status = http.StatusNotFound
	} else if page.Item != nil {
		title = page.Item.Title
	}
	h.render(w, r, ws, status, "item", title, page)
}

// LegacyItem は旧形式の詳細URL /item/{id} を /items/{id} へ恒久的に移動する。
func LegacyItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, view.ItemRoute(id), http.StatusMovedPermanently)
}

// ToggleFavorite はお気に入りを切り替える。POST /items/{id}/favorite
// source=detail なら詳細画面、それ以外は一覧画面の楽観的更新として処理する。
func (h *PageHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r, ws)
		return
	}

	if !requireLogin(w, r, ws) {
		return
	}

	if r.PostFormValue("source") == "detail" {
		err := ws.ItemDetail.ToggleFavorite(r.Context(), id)
		h.failed(r, "item.favorite", err)
		h.redirect(w, r, ws, view.ItemRoute(id))
		return
	}

	back := safeReturn(r.PostFormValue("return"), view.RouteHome)
	filter := view.DefaultHomeFilter()
	if u, err := url.Parse(back); err == nil {
		filter = view.ParseHomeFilter(u.Query())
	}
	favorited := r.PostFormValue("favorited") == "true"
	err := ws.Home.ToggleFavorite(r.Context(), filter, id, favorited)
	h.failed(r, "home.favorite", err)
	h.redirect(w, r, ws, back)
}

// ContactSeller は出品者に問い合わせを送る。POST /items/{id}/contact
func (h *PageHandler) ContactSeller(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r, ws)
		return
	}
	if !requireLogin(w, r, ws) {
		return
	}
	err := ws.ItemDetail.ContactSeller(r.Context(), id)
	h.failed(r, "item.contact", err)
	h.redirect(w, r, ws, view.ItemRoute(id))
}

// --- 認証 ---

// LoginPage はログイン画面を表示する。GET /login
func (h *PageHandler) LoginPage(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	h.render(w, r, ws, http.StatusOK, "login", "登录", ws.Auth.LoadLogin())
}

// Login はログインする。POST /login
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	page := ws.Auth.Login(r.Context(), view.LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	})
	if page == nil {
		h.redirect(w, r, ws, view.RouteHome)
		return
	}
	h.render(w, r, ws, http.StatusOK, "login", "登录", page)
}

// RegisterPage は登録画面を表示する。GET /register
func (h *PageHandler) RegisterPage(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	h.render(w, r, ws, http.StatusOK, "register", "注册", ws.Auth.LoadRegister())
}

// Register はユーザー登録する。POST /register
func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	page := ws.Auth.Register(r.Context(), view.RegisterForm{
		Username:        r.PostFormValue("username"),
		Email:           r.PostFormValue("email"),
		Nickname:        r.PostFormValue("nickname"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	})
	if page == nil {
		h.redirect(w, r, ws, view.RouteLogin)
		return
	}
	h.render(w, r, ws, http.StatusOK, "register", "注册", page)
}

// Logout はログアウトする。POST /logout
func (h *PageHandler) Logout(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	if err := ws.Auth.Logout(r.Context()); h.failed(r, "auth.logout", err) {
		ws.Notify().Error("退出登录失败")
		h.redirect(w, r, ws, view.RouteHome)
		return
	}
	h.redirect(w, r, ws, view.RouteLogin)
}

// --- 出品 ---

// CreatePage は出品画面を表示する。GET /create
func (h *PageHandler) CreatePage(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	page := ws.CreateItem.Load()
	if page == nil {
		h.redirect(w, r, ws, view.RouteLogin)
		return
	}
	h.render(w, r, ws, http.StatusOK, "create", "发布物品", page)
}

// CreateItem は出品する。POST /create
func (h *PageHandler) CreateItem(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	page := ws.CreateItem.Submit(r.Context(), view.ItemForm{
		Title:         r.PostFormValue("title"),
		Description:   r.PostFormValue("description"),
		Category:      r.PostFormValue("category"),
		Condition:     r.PostFormValue("condition"),
		Price:         r.PostFormValue("price"),
		Location:      r.PostFormValue("location"),
		ContactMethod: r.PostFormValue("contactMethod"),
	})
	if page == nil {
		h.redirect(w, r, ws, view.RouteHome)
		return
	}
	h.render(w, r, ws, http.StatusOK, "create", "发布物品", page)
}

// --- プロフィール ---

// Profile はプロフィールを表示する。GET /profile?tab=items|favorites
func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	page, err := ws.Profile.Load(r.Context(), r.URL.Query().Get("tab"))
	if err != nil {
		if !aborted(r) {
			h.failed(r, "profile.load", err)
			http.Error(w, "服务器内部错误", http.StatusInternalServerError)
		}
		return
	}
	if page == nil {
		h.redirect(w, r, ws, view.RouteLogin)
		return
	}
	h.render(w, r, ws, http.StatusOK, "profile", "个人资料", page)
}

// DeleteItem は自分の出品を削除する。POST /profile/items/{id}/delete
func (h *PageHandler) DeleteItem(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r, ws)
		return
	}
	if !requireLogin(w, r, ws) {
		return
	}
	err := ws.Profile.DeleteItem(r.Context(), id)
	h.failed(r, "profile.delete", err)
	h.redirect(w, r, ws, view.RouteProfile+"?tab="+view.TabItems)
}

// --- メッセージ ---

// Messages はメッセージセンターを表示する。GET /messages
func (h *PageHandler) Messages(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	page, err := ws.Messages.Load(r.Context())
	if err != nil {
		if !aborted(r) {
			h.failed(r, "messages.load", err)
			http.Error(w, "服务器内部错误", http.StatusInternalServerError)
		}
		return
	}
	if page == nil {
		h.redirect(w, r, ws, view.RouteLogin)
		return
	}
	h.render(w, r, ws, http.StatusOK, "messages", "消息中心", page)
}

// SendMessage はメッセージを送信する。POST /messages
func (h *PageHandler) SendMessage(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	if !requireLogin(w, r, ws) {
		return
	}
	err := ws.Messages.Send(r.Context(), view.SendForm{
		ReceiverID: r.PostFormValue("receiverId"),
		Content:    r.PostFormValue("content"),
		ItemID:     r.PostFormValue("itemId"),
	})
	h.failed(r, "messages.send", err)
	h.redirect(w, r, ws, view.RouteMessages)
}

// MarkAsRead はメッセージを既読にする。POST /messages/{id}/read
func (h *PageHandler) MarkAsRead(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r, ws)
		return
	}
	if !requireLogin(w, r, ws) {
		return
	}
	err := ws.Messages.MarkAsRead(r.Context(), id)
	h.failed(r, "messages.read", err)
	h.redirect(w, r, ws, view.RouteMessages)
}

// MarkAllAsRead はすべてのメッセージを既読にする。POST /messages/read-all
func (h *PageHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	if !requireLogin(w, r, ws) {
		return
	}
	err := ws.Messages.MarkAllAsRead(r.Context())
	h.failed(r, "messages.read_all", err)
	h.redirect(w, r, ws, view.RouteMessages)
}

// NotFound は共通レイアウト付きの404画面を表示する。/settings もここに該当する。
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	h.renderer.Render(w, http.StatusNotFound, "notfound", pageData{
		Title:     "页面不存在",
		Layout:    ws.Layout(),
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
	})
}

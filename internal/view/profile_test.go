package view

import (
	"context"
	"net/http"
	"testing"
)

const userItemsBody = `{"success":true,"data":{"content":[{"id":1,"title":"台灯","userId":7},{"id":2,"title":"椅子","userId":7}],"totalElements":2,"totalPages":1,"size":12,"number":0}}`

func TestProfileView_Load_Items(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	e.backend.on(http.MethodGet, "/users/profile", http.StatusOK, `{"success":true,"data":{"id":7,"username":"alice"}}`)
	e.backend.on(http.MethodGet, "/items/user/7", http.StatusOK, userItemsBody)
	e.backend.on(http.MethodGet, "/follows/stats/7", http.StatusOK, `{"success":true,"data":{"followingCount":3,"followersCount":5}}`)

	page, err := NewProfileView(e.Env).Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}
	if page == nil || page.User.ID != 7 || page.Tab != TabItems {
		t.Fatalf("表示モデル = %+v", page)
	}
	if len(page.Cards) != 2 || page.ItemCount != 2 {
		t.Errorf("出品 = %d件, count %d", len(page.Cards), page.ItemCount)
	}
	if page.FollowingCount != 3 || page.FollowersCount != 5 {
		t.Errorf("フォロー統計 = %d / %d", page.FollowingCount, page.FollowersCount)
	}
	req, _ := e.backend.find(http.MethodGet, "/items/user/7")
	if req.Query != "page=0&size=12" {
		t.Errorf("出品一覧のクエリ = %s", req.Query)
	}
	if st := e.Items.State(); len(st.Items) != 2 || st.Pagination.Total != 2 {
		t.Errorf("物品ストア = %+v", st)
	}
}

func TestProfileView_Load_Favorites(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	e.backend.on(http.MethodGet, "/users/profile", http.StatusOK, `{"success":true,"data":{"id":7,"username":"alice"}}`)
	e.backend.on(http.MethodGet, "/items/user/7", http.StatusOK, userItemsBody)
	e.backend.on(http.MethodGet, "/items/favorites/7", http.StatusOK, itemsPageBody)

	page, err := NewProfileView(e.Env).Load(context.Background(), TabFavorites)
	if err != nil || page == nil {
		t.Fatalf("Load = %+v, %v", page, err)
	}
	if page.Tab != TabFavorites || len(page.Cards) != 2 || page.Cards[0].Item.ID != 42 {
		t.Errorf("お気に入りタブ = %+v", page.Cards)
	}
	if page.ItemCount != 2 {
		t.Errorf("出品数はタブに関係なく表示する: %d", page.ItemCount)
	}
}

func TestProfileView_Load_RedirectsToLogin(t *testing.T) {
	e := newTestEnv(t)
	page, err := NewProfileView(e.Env).Load(context.Background(), "")
	if page != nil || err != nil {
		t.Errorf("匿名 = %+v, %v", page, err)
	}
	if to, ok := e.Nav.TakeRedirect(); !ok || to != RouteLogin {
		t.Errorf("リダイレクト先 = %q", to)
	}

	e.login(t)
	e.backend.on(http.MethodGet, "/users/profile", http.StatusOK, `{"success":false,"message":"用户不存在"}`)
	page, _ = NewProfileView(e.Env).Load(context.Background(), "")
	if page != nil {
		t.Error("プロフィール取得失敗は nil")
	}
	if to, ok := e.Nav.TakeRedirect(); !ok || to != RouteLogin {
		t.Errorf("失敗時のリダイレクト先 = %q", to)
	}
}

func TestProfileView_DeleteItem(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	e.backend.on(http.MethodGet, "/users/profile", http.StatusOK, `{"success":true,"data":{"id":7,"username":"alice"}}`)
	e.backend.on(http.MethodGet, "/items/user/7", http.StatusOK, userItemsBody)
	e.backend.on(http.MethodDelete, "/items/1", http.StatusOK, `{"success":true}`)

	v := NewProfileView(e.Env)
	v.Load(context.Background(), "")
	if err := v.DeleteItem(context.Background(), 1); err != nil {
		t.Fatalf("DeleteItem がエラーを返した: %v", err)
	}
	st := e.Items.State()
	if len(st.Items) != 1 || st.Items[0].ID != 2 {
		t.Errorf("削除後の物品ストア = %+v", st.Items)
	}
	if !hasNotice(e.Notify.Peek(), LevelSuccess, "删除成功") {
		t.Errorf("通知 = %+v", e.Notify.Peek())
	}

	e.backend.on(http.MethodDelete, "/items/2", http.StatusForbidden, `{"success":false,"message":"无权删除"}`)
	if err := v.DeleteItem(context.Background(), 2); err == nil {
		t.Error("HTTPエラーは返すべき")
	}
	if len(e.Items.State().Items) != 1 {
		t.Error("失敗時はストアを変更しない")
	}
	if !hasNotice(e.Notify.Peek(), LevelError, "无权删除") {
		t.Errorf("通知 = %+v", e.Notify.Peek())
	}
}

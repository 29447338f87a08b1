package view

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/hitoshi/sharehub/internal/model"
)

const itemBody = `{"success":true,"data":{"id":42,"title":"自行车","userId":9,"categoryId":5,"conditionType":3,"status":2,"price":80,"isFree":0,"favoriteCount":1}}`

func TestContactMessage(t *testing.T) {
	want := `你好，我对"自行车"很感兴趣，请问还在线吗？`
	if got := ContactMessage("自行车"); got != want {
		t.Errorf("ContactMessage = %s, want %s", got, want)
	}
}

func TestItemDetailView_Load(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	e.backend.on(http.MethodGet, "/items/42", http.StatusOK, itemBody)
	e.backend.on(http.MethodGet, "/favorites/check", http.StatusOK, `{"success":true,"data":{"isFavorite":true}}`)

	page, err := NewItemDetailView(e.Env).Load(context.Background(), 42)
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}
	if page.NotFound || page.Item == nil || page.Item.Title != "自行车" {
		t.Fatalf("表示モデル = %+v", page)
	}
	if page.Price != "¥80" || page.Condition != "轻微使用痕迹" || page.Category != "运动器材" || page.Status != "在售" {
		t.Errorf("ラベル = %s / %s / %s / %s", page.Price, page.Condition, page.Category, page.Status)
	}
	if !page.Favorited {
		t.Error("お気に入り済みであるべき")
	}
	if page.IsOwner {
		t.Error("出品者ではない")
	}
	req, _ := e.backend.find(http.MethodGet, "/favorites/check")
	if req.Query != "userId=7&itemId=42" {
		t.Errorf("チェックのクエリ = %s", req.Query)
	}
	if e.Nav.Current() != "/items/42" {
		t.Errorf("ルート = %s", e.Nav.Current())
	}
}

func TestItemDetailView_Load_Anonymous(t *testing.T) {
	e := newTestEnv(t)
	e.backend.on(http.MethodGet, "/items/42", http.StatusOK, itemBody)

	page, err := NewItemDetailView(e.Env).Load(context.Background(), 42)
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}
	if page.Favorited || page.LoggedIn {
		t.Error("匿名ではお気に入り状態を確認しない")
	}
	if _, ok := e.backend.find(http.MethodGet, "/favorites/check"); ok {
		t.Error("匿名でお気に入りチェックを呼んではいけない")
	}
}

func TestItemDetailView_Load_NotFound(t *testing.T) {
	e := newTestEnv(t)
	e.backend.on(http.MethodGet, "/items/5", http.StatusOK, `{"success":false,"message":"物品不存在"}`)

	page, err := NewItemDetailView(e.Env).Load(context.Background(), 5)
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}
	if !page.NotFound || page.Item != nil {
		t.Errorf("NotFound になるべき: %+v", page)
	}

	// 404 応答も同じ扱い
	page, _ = NewItemDetailView(e.Env).Load(context.Background(), 6)
	if !page.NotFound {
		t.Error("404 も NotFound になるべき")
	}
}

func TestItemDetailView_ToggleFavorite(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	e.backend.on(http.MethodGet, "/items/42", http.StatusOK, itemBody)
	e.backend.on(http.MethodGet, "/favorites/check", http.StatusOK, `{"success":true,"data":{"isFavorite":false}}`)
	e.backend.on(http.MethodPost, "/favorites", http.StatusOK, `{"success":true}`)

	v := NewItemDetailView(e.Env)
	v.Load(context.Background(), 42)
	if err := v.ToggleFavorite(context.Background(), 42); err != nil {
		t.Fatalf("ToggleFavorite がエラーを返した: %v", err)
	}
	if !hasNotice(e.Notify.Peek(), LevelSuccess, "已添加到收藏") {
		t.Errorf("通知 = %+v", e.Notify.Peek())
	}
	if !e.Cache.Snapshot(itemKey(42)).Stale {
		t.Error("物品のキャッシュは無効化されるべき")
	}
	if !e.Cache.Snapshot(favoriteCheckKey(7, 42)).Stale {
		t.Error("お気に入りチェックは無効化されるべき")
	}

	// 無効化後の読み込みは両方を取り直す
	e.backend.on(http.MethodGet, "/favorites/check", http.StatusOK, `{"success":true,"data":{"isFavorite":true}}`)
	page, _ := v.Load(context.Background(), 42)
	if !page.Favorited {
		t.Error("取り直したお気に入り状態が反映されるべき")
	}
	if n := e.backend.count(http.MethodGet, "/items/42"); n != 2 {
		t.Errorf("物品の取得回数 = %d, want 2", n)
	}
}

func TestItemDetailView_ToggleFavorite_Anonymous(t *testing.T) {
	e := newTestEnv(t)
	if err := NewItemDetailView(e.Env).ToggleFavorite(context.Background(), 42); err == nil {
		t.Error("未ログインはエラーになるべき")
	}
	if !hasNotice(e.Notify.Peek(), LevelError, "操作失败") {
		t.Errorf("通知 = %+v", e.Notify.Peek())
	}
}

func TestItemDetailView_ContactSeller(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	e.backend.on(http.MethodGet, "/items/42", http.StatusOK, itemBody)
	e.backend.on(http.MethodPost, "/messages", http.StatusOK, `{"success":true,"data":{"id":1}}`)

	if err := NewItemDetailView(e.Env).ContactSeller(context.Background(), 42); err != nil {
		t.Fatalf("ContactSeller がエラーを返した: %v", err)
	}
	req, ok := e.backend.find(http.MethodPost, "/messages")
	if !ok {
		t.Fatal("POST /messages が呼ばれていない")
	}
	var body model.SendMessageRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		t.Fatalf("ボディのパースに失敗: %v", err)
	}
	if body.ReceiverID != 9 || body.ItemID == nil || *body.ItemID != 42 {
		t.Errorf("送信先 = %+v", body)
	}
	if body.Content != `你好，我对"自行车"很感兴趣，请问还在线吗？` {
		t.Errorf("本文 = %s", body.Content)
	}
	if !hasNotice(e.Notify.Peek(), LevelSuccess, "消息发送成功") {
		t.Errorf("通知 = %+v", e.Notify.Peek())
	}
}

func TestItemDetailView_ContactSeller_Failure(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	e.backend.on(http.MethodGet, "/items/42", http.StatusOK, itemBody)
	e.backend.on(http.MethodPost, "/messages", http.StatusOK, `{"success":false}`)

	NewItemDetailView(e.Env).ContactSeller(context.Background(), 42)
	if !hasNotice(e.Notify.Peek(), LevelError, "发送失败") {
		t.Errorf("通知 = %+v", e.Notify.Peek())
	}
}

package view

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/hitoshi/sharehub/internal/model"
	"github.com/hitoshi/sharehub/internal/querycache"
)

func validForm() ItemForm {
	f := DefaultItemForm()
	f.Title = "台灯"
	f.Description = "九成新台灯"
	return f
}

func TestItemForm_Request_Price(t *testing.T) {
	tests := []struct {
		price     string
		wantPrice float64
		wantFree  int
	}{
		{"", 0, 1},
		{"0", 0, 1},
		{"50", 50, 0},
		{"9.999", 10, 0},
		{" 12.5 ", 12.5, 0},
	}
	for _, tt := range tests {
		f := validForm()
		f.Price = tt.price
		req, err := f.Request(7)
		if err != nil {
			t.Errorf("価格 %q でエラー: %v", tt.price, err)
			continue
		}
		if req.Price != tt.wantPrice || req.OriginalPrice != tt.wantPrice || req.IsFree != tt.wantFree {
			t.Errorf("価格 %q = price %v, original %v, isFree %d; want %v, %v, %d",
				tt.price, req.Price, req.OriginalPrice, req.IsFree, tt.wantPrice, tt.wantPrice, tt.wantFree)
		}
	}
}

func TestItemForm_Request_Defaults(t *testing.T) {
	f := validForm()
	f.Category = ""
	f.Condition = ""
	req, err := f.Request(7)
	if err != nil {
		t.Fatalf("Request がエラーを返した: %v", err)
	}
	if req.CategoryID != 6 || req.ConditionType != 2 || req.UserID != 7 {
		t.Errorf("既定値 = category %d, condition %d, user %d", req.CategoryID, req.ConditionType, req.UserID)
	}

	f.Category = "图书文具"
	f.Condition = "五成新及以下"
	req, _ = f.Request(7)
	if req.CategoryID != 4 || req.ConditionType != 6 {
		t.Errorf("ラベル解決 = category %d, condition %d", req.CategoryID, req.ConditionType)
	}
}

func TestItemForm_Request_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ItemForm)
		code   string
		msg    string
	}{
		{"タイトルなし", func(f *ItemForm) { f.Title = " " }, model.ErrCodeValidationFailed, "请输入物品标题"},
		{"説明なし", func(f *ItemForm) { f.Description = "" }, model.ErrCodeValidationFailed, "请输入物品描述"},
		{"負の価格", func(f *ItemForm) { f.Price = "-1" }, model.ErrCodeValidationFailed, "价格不能为负数"},
		{"数値でない価格", func(f *ItemForm) { f.Price = "abc" }, model.ErrCodeValidationFailed, "请输入有效的价格"},
		{"未知の分類", func(f *ItemForm) { f.Category = "食品" }, model.ErrCodeUnknownCategory, ""},
		{"未知の新旧程度", func(f *ItemForm) { f.Condition = "破损" }, model.ErrCodeUnknownCondition, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)
			_, err := f.Request(7)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("APIError が返るべき: %v", err)
			}
			if apiErr.Code != tt.code {
				t.Errorf("Code = %s, want %s", apiErr.Code, tt.code)
			}
			if tt.msg != "" && apiErr.Message != tt.msg {
				t.Errorf("Message = %s, want %s", apiErr.Message, tt.msg)
			}
		})
	}
}

func TestCreateItemView_Load_RequiresLogin(t *testing.T) {
	e := newTestEnv(t)
	if page := NewCreateItemView(e.Env).Load(); page != nil {
		t.Error("未ログインでは表示モデルを返さない")
	}
	if to, ok := e.Nav.TakeRedirect(); !ok || to != RouteLogin {
		t.Errorf("リダイレクト先 = %q", to)
	}
	if !hasNotice(e.Notify.Peek(), LevelWarning, "请先登录后再发布物品") {
		t.Errorf("通知 = %+v", e.Notify.Peek())
	}

	e.login(t)
	page := NewCreateItemView(e.Env).Load()
	if page == nil || page.Form.Category != "其他" || page.Form.Condition != "九成新" {
		t.Errorf("フォームの初期値 = %+v", page)
	}
	if len(page.Categories) != 6 || len(page.Conditions) != 6 {
		t.Errorf("選択肢 = %d / %d", len(page.Categories), len(page.Conditions))
	}
}

func TestCreateItemView_Submit_Success(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	e.backend.on(http.MethodPost, "/items", http.StatusOK, `{"success":true,"data":{"id":100,"title":"台灯"}}`)
	e.backend.on(http.MethodGet, "/items/search", http.StatusOK, itemsPageBody)

	// 一覧をキャッシュしておく
	NewHomeView(e.Env).Load(context.Background(), DefaultHomeFilter())

	form := validForm()
	form.Price = "50"
	if page := NewCreateItemView(e.Env).Submit(context.Background(), form); page != nil {
		t.Fatalf("成功時は nil を返すべき: %+v", page)
	}

	req, ok := e.backend.find(http.MethodPost, "/items")
	if !ok {
		t.Fatal("POST /items が呼ばれていない")
	}
	var body model.ItemCreateRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		t.Fatalf("ボディのパースに失敗: %v", err)
	}
	if body.IsFree != 0 || body.Price != 50 || body.OriginalPrice != 50 || body.UserID != 7 {
		t.Errorf("送信内容 = %+v", body)
	}
	if to, ok := e.Nav.TakeRedirect(); !ok || to != RouteHome {
		t.Errorf("リダイレクト先 = %q", to)
	}
	if !hasNotice(e.Notify.Peek(), LevelSuccess, "物品发布成功！") {
		t.Errorf("通知 = %+v", e.Notify.Peek())
	}
	if !e.Cache.Snapshot(DefaultHomeFilter().Key()).Stale {
		t.Error("出品後は一覧のキャッシュを無効化すべき")
	}
	if _, ok := querycache.Peek[itemPage](e.Cache, DefaultHomeFilter().Key()); !ok {
		t.Error("無効化しても値は残る")
	}
}

func TestCreateItemView_Submit_Failures(t *testing.T) {
	e := newTestEnv(t)
	v := NewCreateItemView(e.Env)

	if page := v.Submit(context.Background(), validForm()); page != nil {
		t.Error("未ログインは nil を返してログインへ")
	}
	if !hasNotice(e.Notify.Drain(), LevelError, "用户未登录，请先登录") {
		t.Error("未ログインの通知がない")
	}

	e.login(t)
	form := validForm()
	form.Title = ""
	page := v.Submit(context.Background(), form)
	if page == nil || page.Err != "请输入物品标题" {
		t.Errorf("検証エラー = %+v", page)
	}
	if _, ok := e.backend.find(http.MethodPost, "/items"); ok {
		t.Error("検証エラーでバックエンドを呼んではいけない")
	}

	e.backend.on(http.MethodPost, "/items", http.StatusOK, `{"success":false}`)
	page = v.Submit(context.Background(), validForm())
	if page == nil || page.Err != "发布失败，请重试" {
		t.Errorf("失敗時のメッセージ = %+v", page)
	}

	e.backend.on(http.MethodPost, "/items", http.StatusBadRequest, `{"success":false,"message":"标题过长"}`)
	page = v.Submit(context.Background(), validForm())
	if page == nil || page.Err != "标题过长" {
		t.Errorf("HTTPエラーのメッセージ = %+v", page)
	}
	if page.Form.Title != "台灯" {
		t.Error("失敗時は入力値を保持すべき")
	}
}

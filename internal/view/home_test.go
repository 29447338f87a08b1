package view

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/sharehub/internal/model"
	"github.com/hitoshi/sharehub/internal/querycache"
)

const itemsPageBody = `{"success":true,"data":{"content":[
	{"id":42,"title":"自行车","userId":9,"price":100,"isFree":0,"favoriteCount":3,"conditionType":2},
	{"id":43,"title":"旧书","userId":9,"price":0,"isFree":1,"favoriteCount":0,"conditionType":3}
],"totalElements":2,"totalPages":1,"size":12,"number":0}}`

const categoriesBody = `{"success":true,"data":[{"id":1,"name":"电子产品"},{"id":6,"name":"其他"}]}`

func TestHomeFilter_DefaultsAndKey(t *testing.T) {
	f := DefaultHomeFilter()
	if f.Page != 1 || f.MinPrice != 0 || f.MaxPrice != 10000 || f.SortBy != "createdAt" {
		t.Errorf("初期値 = %+v", f)
	}
	want := querycache.Key{"items", "1", "", "", "0", "10000", "false", "createdAt"}
	if got := f.Key(); got.String() != want.String() {
		t.Errorf("Key = %s, want %s", got, want)
	}
	f.CategoryID = 3
	if got := f.Key()[3]; got != "3" {
		t.Errorf("分類のキー要素 = %q", got)
	}
}

func TestSortOptions_Labels(t *testing.T) {
	want := []SortOption{
		{Value: "createdAt", Label: "最新发布"},
		{Value: "price", Label: "价格排序"},
		{Value: "favoriteCount", Label: "热门收藏"},
		{Value: "viewCount", Label: "浏览量"},
	}
	if len(SortOptions) != len(want) {
		t.Fatalf("並び順の選択肢 = %d件, want %d", len(SortOptions), len(want))
	}
	for i, o := range want {
		if SortOptions[i] != o {
			t.Errorf("SortOptions[%d] = %+v, want %+v", i, SortOptions[i], o)
		}
	}
}

func TestHomeFilter_SearchParams(t *testing.T) {
	f := DefaultHomeFilter()
	f.Page = 3
	f.Keyword = "书"
	p := f.SearchParams()
	if *p.Page != 2 || *p.Size != 12 {
		t.Errorf("page/size = %d/%d, want 2/12", *p.Page, *p.Size)
	}
	if *p.MinPrice != 0 || *p.MaxPrice != 10000 || p.IsFree != nil || p.SortBy != "createdAt" {
		t.Errorf("価格帯 = %+v", p)
	}

	f.FreeOnly = true
	f.MinPrice, f.MaxPrice = 10, 500
	p = f.SearchParams()
	if *p.MinPrice != 0 || *p.MaxPrice != 0 {
		t.Errorf("無料のみは価格帯を0に固定すべき: %v-%v", *p.MinPrice, *p.MaxPrice)
	}
	if p.IsFree == nil || *p.IsFree != 1 {
		t.Error("無料のみは isFree=1 を送るべき")
	}
}

func TestParseHomeFilter_RoundTrip(t *testing.T) {
	q := url.Values{}
	q.Set("page", "2")
	q.Set("keyword", " 椅子 ")
	q.Set("category", "3")
	q.Set("min", "-5")
	q.Set("max", "20000")
	q.Set("free", "1")
	q.Set("sort", "bogus")
	f := ParseHomeFilter(q)
	if f.Page != 2 || f.Keyword != "椅子" || f.CategoryID != 3 || !f.FreeOnly {
		t.Errorf("解析結果 = %+v", f)
	}
	if f.MinPrice != 0 || f.MaxPrice != 10000 {
		t.Errorf("価格帯は [0,10000] に収まるべき: %v-%v", f.MinPrice, f.MaxPrice)
	}
	if f.SortBy != "createdAt" {
		t.Errorf("未知の並び順は既定値に戻すべき: %s", f.SortBy)
	}

	back, err := url.Parse(f.URL())
	if err != nil {
		t.Fatalf("URL のパースに失敗: %v", err)
	}
	if got := ParseHomeFilter(back.Query()); got != f {
		t.Errorf("往復で条件が変わった: %+v != %+v", got, f)
	}
	if DefaultHomeFilter().URL() != "/" {
		t.Errorf("初期条件のURL = %s", DefaultHomeFilter().URL())
	}
}

func TestHomeView_Load(t *testing.T) {
	e := newTestEnv(t)
	e.backend.on(http.MethodGet, "/items/search", http.StatusOK, itemsPageBody)
	e.backend.on(http.MethodGet, "/categories", http.StatusOK, categoriesBody)

	page, err := NewHomeView(e.Env).Load(context.Background(), DefaultHomeFilter())
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}
	if len(page.Cards) != 2 || page.Total != 2 || page.TotalPages != 1 {
		t.Errorf("一覧 = %d件, total=%d", len(page.Cards), page.Total)
	}
	if page.Cards[1].Price != "免费" {
		t.Errorf("無料のカード価格 = %s", page.Cards[1].Price)
	}
	if len(page.Categories) != 2 {
		t.Errorf("分類 = %d件", len(page.Categories))
	}
	if page.HasPrev() || page.HasNext() {
		t.Error("1ページのみなので前後のページはない")
	}

	req, ok := e.backend.find(http.MethodGet, "/items/search")
	if !ok {
		t.Fatal("検索APIが呼ばれていない")
	}
	for _, want := range []string{"page=0", "size=12", "minPrice=0", "maxPrice=10000", "sortBy=createdAt"} {
		if !strings.Contains(req.Query, want) {
			t.Errorf("クエリ %q に %s が含まれない", req.Query, want)
		}
	}
	if strings.Contains(req.Query, "isFree") {
		t.Errorf("無料のみでなければ isFree を送らない: %s", req.Query)
	}

	// 2回目は新鮮なキャッシュから返る
	if _, err := NewHomeView(e.Env).Load(context.Background(), DefaultHomeFilter()); err != nil {
		t.Fatalf("2回目の Load がエラーを返した: %v", err)
	}
	if n := e.backend.count(http.MethodGet, "/items/search"); n != 1 {
		t.Errorf("検索APIの呼び出し回数 = %d, want 1", n)
	}
}

func TestHomeView_Load_FailureIsSoft(t *testing.T) {
	e := newTestEnv(t)
	e.backend.on(http.MethodGet, "/items/search", http.StatusInternalServerError, `{"success":false,"message":"数据库错误"}`)

	page, err := NewHomeView(e.Env).Load(context.Background(), DefaultHomeFilter())
	if err != nil {
		t.Fatalf("取得失敗はエラーにしない: %v", err)
	}
	if page.Err != "数据库错误" {
		t.Errorf("Err = %q", page.Err)
	}
	if len(page.Cards) != 0 {
		t.Error("失敗時は一覧が空になるべき")
	}
}

func TestHomeView_ToggleFavorite_AddsAndPatches(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	e.backend.on(http.MethodGet, "/items/search", http.StatusOK, itemsPageBody)
	e.backend.on(http.MethodGet, "/categories", http.StatusOK, categoriesBody)
	e.backend.on(http.MethodPost, "/favorites", http.StatusOK, `{"success":true}`)

	v := NewHomeView(e.Env)
	f := DefaultHomeFilter()
	if _, err := v.Load(context.Background(), f); err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}
	if err := v.ToggleFavorite(context.Background(), f, 42, false); err != nil {
		t.Fatalf("ToggleFavorite がエラーを返した: %v", err)
	}

	req, ok := e.backend.find(http.MethodPost, "/favorites")
	if !ok {
		t.Fatal("POST /favorites が呼ばれていない")
	}
	if req.Query != "userId=7&itemId=42" {
		t.Errorf("クエリ = %s, want userId=7&itemId=42", req.Query)
	}
	if req.Auth != "Bearer T" {
		t.Errorf("Authorization = %q", req.Auth)
	}

	cached, ok := querycache.Peek[itemPage](e.Cache, f.Key())
	if !ok {
		t.Fatal("一覧のキャッシュが消えている")
	}
	got := cached.Data.Content[0]
	if got.FavoriteCount != 4 || !got.Favorited {
		t.Errorf("更新後 = count %d, favorited %v, want 4, true", got.FavoriteCount, got.Favorited)
	}
	if cached.Data.Content[1].FavoriteCount != 0 {
		t.Error("他の物品は変更しない")
	}
	if !hasNotice(e.Notify.Peek(), LevelSuccess, "收藏成功") {
		t.Errorf("通知 = %+v", e.Notify.Peek())
	}

	// 再読み込みしてもパッチ済みの値が新鮮なキャッシュとして返る
	page, _ := v.Load(context.Background(), f)
	if page.Cards[0].Item.FavoriteCount != 4 {
		t.Errorf("再表示のお気に入り数 = %d", page.Cards[0].Item.FavoriteCount)
	}
}

func TestHomeView_ToggleFavorite_Remove(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	e.backend.on(http.MethodGet, "/items/search", http.StatusOK, itemsPageBody)
	e.backend.on(http.MethodDelete, "/favorites", http.StatusOK, `{"success":true}`)

	v := NewHomeView(e.Env)
	f := DefaultHomeFilter()
	v.Load(context.Background(), f)
	if err := v.ToggleFavorite(context.Background(), f, 42, true); err != nil {
		t.Fatalf("ToggleFavorite がエラーを返した: %v", err)
	}
	cached, _ := querycache.Peek[itemPage](e.Cache, f.Key())
	if got := cached.Data.Content[0]; got.FavoriteCount != 2 || got.Favorited {
		t.Errorf("解除後 = %+v", got)
	}
	if !hasNotice(e.Notify.Peek(), LevelSuccess, "已取消收藏") {
		t.Errorf("通知 = %+v", e.Notify.Peek())
	}
}

func TestHomeView_ToggleFavorite_RequiresLogin(t *testing.T) {
	e := newTestEnv(t)
	err := NewHomeView(e.Env).ToggleFavorite(context.Background(), DefaultHomeFilter(), 42, false)
	if err == nil {
		t.Error("未ログインはエラーになるべき")
	}
	if !hasNotice(e.Notify.Peek(), LevelError, "请先登录") {
		t.Errorf("通知 = %+v", e.Notify.Peek())
	}
	if _, ok := e.backend.find(http.MethodPost, "/favorites"); ok {
		t.Error("未ログインでバックエンドを呼んではいけない")
	}
}

func TestHomeView_ToggleFavorite_Failures(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	v := NewHomeView(e.Env)

	e.backend.on(http.MethodPost, "/favorites", http.StatusOK, `{"success":false,"message":"已经收藏过了"}`)
	if err := v.ToggleFavorite(context.Background(), DefaultHomeFilter(), 42, false); err != nil {
		t.Errorf("success=false はエラーにしない: %v", err)
	}
	if !hasNotice(e.Notify.Drain(), LevelError, "已经收藏过了") {
		t.Error("バックエンドのメッセージを通知すべき")
	}

	e.backend.on(http.MethodPost, "/favorites", http.StatusOK, `{"success":false}`)
	v.ToggleFavorite(context.Background(), DefaultHomeFilter(), 42, false)
	if !hasNotice(e.Notify.Drain(), LevelError, "操作失败") {
		t.Error("メッセージがなければ「操作失败」")
	}

	e.backend.on(http.MethodPost, "/favorites", http.StatusInternalServerError, `{"success":false}`)
	if err := v.ToggleFavorite(context.Background(), DefaultHomeFilter(), 42, false); err == nil {
		t.Error("HTTPエラーはそのまま返すべき")
	}
	if !hasNotice(e.Notify.Drain(), LevelError, "收藏操作失败，请重试") {
		t.Error("HTTPエラーは「收藏操作失败，请重试」")
	}
}

func TestHomeView_Unauthorized_RoutesToLogin(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	e.backend.on(http.MethodGet, "/items/search", http.StatusUnauthorized, `{"success":false,"message":"unauthorized"}`)

	if _, err := NewHomeView(e.Env).Load(context.Background(), DefaultHomeFilter()); err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}
	if _, ok, _ := e.storage.Get(context.Background(), "token"); ok {
		t.Error("401 後は token が削除されるべき")
	}
	to, ok := e.Nav.TakeRedirect()
	if !ok || to != RouteLogin {
		t.Errorf("リダイレクト先 = %q, want /login", to)
	}
}

func TestPatchFavorite_DoesNotMutateInput(t *testing.T) {
	orig := &model.Response[model.Page[model.Item]]{
		Success: true,
		Data:    model.Page[model.Item]{Content: []model.Item{{ID: 1, FavoriteCount: 1}}},
	}
	next := patchFavorite(orig, 1, true)
	if orig.Data.Content[0].FavoriteCount != 1 || orig.Data.Content[0].Favorited {
		t.Error("元の値が変更された")
	}
	if next.Data.Content[0].FavoriteCount != 2 {
		t.Errorf("新しい値 = %d", next.Data.Content[0].FavoriteCount)
	}
}

package view

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/sharehub/internal/apiclient"
	"github.com/hitoshi/sharehub/internal/model"
	"github.com/hitoshi/sharehub/internal/querycache"
)

// 一覧画面の定数
const (
	HomePageSize   = 12
	PriceFloor     = 0
	PriceCeiling   = 10000
	DefaultSortBy  = "createdAt"
	homeLoadFailed = "物品加载失败"
)

// SortOptions は一覧の並び順の選択肢。
var SortOptions = []SortOption{
	{Value: "createdAt", Label: "最新发布"},
	{Value: "price", Label: "价格排序"},
	{Value: "favoriteCount", Label: "热门收藏"},
	{Value: "viewCount", Label: "浏览量"},
}

// SortOption は並び順の選択肢1件。
type SortOption struct {
	Value string
	Label string
}

// HomeFilter は一覧画面の絞り込み条件。Pageは1始まり。
type HomeFilter struct {
	Page       int
	Keyword    string
	CategoryID int64
	MinPrice   float64
	MaxPrice   float64
	FreeOnly   bool
	SortBy     string
}

// DefaultHomeFilter は絞り込み条件の初期値を返す。
func DefaultHomeFilter() HomeFilter {
	return HomeFilter{Page: 1, MinPrice: PriceFloor, MaxPrice: PriceCeiling, SortBy: DefaultSortBy}
}

// ParseHomeFilter はクエリ文字列から絞り込み条件を読み取る。不正な値は初期値に戻す。
func ParseHomeFilter(q url.Values) HomeFilter {
	f := DefaultHomeFilter()
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		f.Page = n
	}
	f.Keyword = strings.TrimSpace(q.Get("keyword"))
	if n, err := strconv.ParseInt(q.Get("category"), 10, 64); err == nil {
		f.CategoryID = n
	}
	if v, err := strconv.ParseFloat(q.Get("min"), 64); err == nil {
		f.MinPrice = v
	}
	if v, err := strconv.ParseFloat(q.Get("max"), 64); err == nil {
		f.MaxPrice = v
	}
	switch q.Get("free") {
	case "1", "true", "on":
		f.FreeOnly = true
	}
	if s := q.Get("sort"); s != "" {
		f.SortBy = s
	}
	return f.Normalize()
}

// Normalize は範囲外の値を補正した条件を返す。
func (f HomeFilter) Normalize() HomeFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.CategoryID < 0 {
		f.CategoryID = 0
	}
	f.MinPrice = clamp(f.MinPrice, PriceFloor, PriceCeiling)
	f.MaxPrice = clamp(f.MaxPrice, PriceFloor, PriceCeiling)
	if f.MinPrice > f.MaxPrice {
		f.MinPrice, f.MaxPrice = f.MaxPrice, f.MinPrice
	}
	if !slices.ContainsFunc(SortOptions, func(o SortOption) bool { return o.Value == f.SortBy }) {
		f.SortBy = DefaultSortBy
	}
	return f
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// Query は条件をクエリ文字列に戻す。初期値の項目は含めない。
func (f HomeFilter) Query() url.Values {
	q := url.Values{}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Keyword != "" {
		q.Set("keyword", f.Keyword)
	}
	if f.CategoryID > 0 {
		q.Set("category", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.MinPrice != PriceFloor {
		q.Set("min", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != PriceCeiling {
		q.Set("max", strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	if f.FreeOnly {
		q.Set("free", "1")
	}
	if f.SortBy != DefaultSortBy {
		q.Set("sort", f.SortBy)
	}
	return q
}

// URL は条件付きの一覧画面のURLを返す。
func (f HomeFilter) URL() string {
	if q := f.Query().Encode(); q != "" {
		return RouteHome + "?" + q
	}
	return RouteHome
}

// WithPage はページだけを差し替えた条件を返す。
func (f HomeFilter) WithPage(page int) HomeFilter {
	f.Page = page
	return f
}

// Key は一覧のキャッシュキーを返す。
func (f HomeFilter) Key() querycache.Key {
	var category any
	if f.CategoryID > 0 {
		category = f.CategoryID
	}
	return querycache.NewKey(keyItems, f.Page, f.Keyword, category, f.MinPrice, f.MaxPrice, f.FreeOnly, f.SortBy)
}

// SearchParams は検索APIのパラメータを返す。無料のみの場合は価格帯を0に固定する。
func (f HomeFilter) SearchParams() model.ItemSearchParams {
	page := f.Page - 1
	size := HomePageSize
	minPrice, maxPrice := f.MinPrice, f.MaxPrice
	p := model.ItemSearchParams{
		Keyword: f.Keyword,
		SortBy:  f.SortBy,
		Page:    &page,
		Size:    &size,
	}
	if f.CategoryID > 0 {
		id := f.CategoryID
		p.CategoryID = &id
	}
	if f.FreeOnly {
		minPrice, maxPrice = 0, 0
		free := 1
		p.IsFree = &free
	}
	p.MinPrice = &minPrice
	p.MaxPrice = &maxPrice
	return p
}

// HomePage は一覧画面の表示モデル。
type HomePage struct {
	Filter     HomeFilter
	Cards      []Card
	Total      int64
	TotalPages int
	Categories []model.Category
	Err        string
}

// HasPrev は前のページがあるかを返す。
func (p *HomePage) HasPrev() bool { return p.Filter.Page > 1 }

// HasNext は次のページがあるかを返す。
func (p *HomePage) HasNext() bool { return p.Filter.Page < p.TotalPages }

// PrevURL は前のページのURLを返す。
func (p *HomePage) PrevURL() string { return p.Filter.WithPage(p.Filter.Page - 1).URL() }

// NextURL は次のページのURLを返す。
func (p *HomePage) NextURL() string { return p.Filter.WithPage(p.Filter.Page + 1).URL() }

type itemPage = *model.Response[model.Page[model.Item]]
type categoryList = *model.Response[[]model.Category]

// HomeView は一覧画面のロジック。
type HomeView struct {
	env *Env
}

// NewHomeView はHomeViewを生成する。
func NewHomeView(env *Env) *HomeView {
	return &HomeView{env: env}
}

// Load は物品一覧と分類一覧を並行して読み込む。
// 取得の失敗は表示モデルのErrに入れ、呼び出し元のキャンセルだけをエラーとして返す。
func (v *HomeView) Load(ctx context.Context, f HomeFilter) (*HomePage, error) {
	f = f.Normalize()
	v.env.Nav.Visit(f.URL())
	page := &HomePage{Filter: f}

	var (
		items      itemPage
		categories categoryList
		g          errgroup.Group
	)
	g.Go(func() error {
		resp, err := querycache.Read(ctx, v.env.Cache, f.Key(), func(ctx context.Context) (itemPage, error) {
			return v.env.Services.Items.Search(ctx, f.SearchParams())
		})
		items = resp
		return err
	})
	g.Go(func() error {
		resp, err := querycache.Read(ctx, v.env.Cache, querycache.NewKey(keyCategories), func(ctx context.Context) (categoryList, error) {
			return v.env.Services.Categories.List(ctx)
		})
		if err != nil {
			// 分類が取れなくても一覧は表示する
			v.env.logger().Warn("分類一覧の取得に失敗しました", "error", err)
			return nil
		}
		categories = resp
		return nil
	})
	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		page.Err = apiclient.UserMessage(err, homeLoadFailed)
	}

	if items != nil {
		if !items.Success {
			page.Err = messageOr(items.Message, homeLoadFailed)
		}
		page.Cards = NewCards(items.Data.Content)
		page.Total = items.Data.TotalElements
		page.TotalPages = items.Data.TotalPages
	}
	if categories != nil && categories.Success {
		page.Categories = categories.Data
	}
	return page, nil
}

// ToggleFavorite は一覧上の物品のお気に入りを切り替え、キャッシュ上の件数とフラグを更新する。
func (v *HomeView) ToggleFavorite(ctx context.Context, f HomeFilter, itemID int64, favorited bool) error {
	user := v.env.Session.CurrentUser()
	if user == nil {
		v.env.Notify.Error("请先登录")
		return model.NewNotAuthenticatedError("用户未登录")
	}

	var (
		resp *model.Response[struct{}]
		err  error
	)
	if favorited {
		r, e := v.env.Services.Favorites.Remove(ctx, user.ID, itemID)
		resp, err = emptyResult(r), e
	} else {
		r, e := v.env.Services.Favorites.Add(ctx, user.ID, itemID)
		resp, err = emptyResult(r), e
	}
	if err != nil {
		v.env.logger().Error("收藏操作失败", "item_id", itemID, "error", err)
		v.env.Notify.Error("收藏操作失败，请重试")
		return err
	}
	if !resp.Success {
		v.env.Notify.Error(messageOr(resp.Message, "操作失败"))
		return nil
	}

	v.env.Cache.Invalidate(querycache.NewKey(keyFavorites))
	querycache.Write(v.env.Cache, f.Normalize().Key(), func(cur itemPage) itemPage {
		return patchFavorite(cur, itemID, !favorited)
	})
	if favorited {
		v.env.Notify.Success("已取消收藏")
	} else {
		v.env.Notify.Success("收藏成功")
	}
	return nil
}

// patchFavorite は物品ページの複製を作り、対象物品のお気に入り件数とフラグを更新する。
func patchFavorite(cur itemPage, itemID int64, favorited bool) itemPage {
	if cur == nil {
		return cur
	}
	next := *cur
	next.Data.Content = slices.Clone(cur.Data.Content)
	for i := range next.Data.Content {
		it := &next.Data.Content[i]
		if it.ID != itemID {
			continue
		}
		if favorited {
			it.FavoriteCount++
		} else if it.FavoriteCount > 0 {
			it.FavoriteCount--
		}
		it.Favorited = favorited
	}
	return &next
}

// emptyResult はデータを持たない応答をエンベロープの成否だけに正規化する。
func emptyResult[T any](r *model.Response[T]) *model.Response[struct{}] {
	if r == nil {
		return &model.Response[struct{}]{}
	}
	return &model.Response[struct{}]{Success: r.Success, Message: r.Message, Code: r.Code}
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

// errorMessage は通知用にエラーからメッセージを取り出す。
// 入力検証などのAPIErrorはそのMessageを使う。
func errorMessage(err error, fallback string) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return apiclient.UserMessage(err, fallback)
}

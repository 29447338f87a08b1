package service

import (
	"context"
	"net/url"
	"strconv"

	"github.com/hitoshi/sharehub/internal/model"
)

// ItemService は物品関連エンドポイントのサービス。
type ItemService struct {
	api Requester
}

// NewItemService はItemServiceの新しいインスタンスを生成する。
func NewItemService(api Requester) *ItemService {
	return &ItemService{api: api}
}

// Create は物品を出品する。
func (s *ItemService) Create(ctx context.Context, req model.ItemCreateRequest) (*model.Response[*model.Item], error) {
	return post[*model.Item](ctx, s.api, "/items", req)
}

// GetByID は物品詳細を取得する。
func (s *ItemService) GetByID(ctx context.Context, itemID int64) (*model.Response[*model.Item], error) {
	return get[*model.Item](ctx, s.api, "/items/"+id(itemID))
}

// Search は条件で物品を検索する。nilおよび空文字の条件はクエリに含めない。
func (s *ItemService) Search(ctx context.Context, params model.ItemSearchParams) (*model.Response[model.Page[model.Item]], error) {
	path := "/items/search"
	if q := EncodeSearchParams(params); q != "" {
		path += "?" + q
	}
	return get[model.Page[model.Item]](ctx, s.api, path)
}

// EncodeSearchParams は検索条件をクエリ文字列にエンコードする。
func EncodeSearchParams(p model.ItemSearchParams) string {
	q := url.Values{}
	if p.Keyword != "" {
		q.Set("keyword", p.Keyword)
	}
	if p.CategoryID != nil {
		q.Set("categoryId", strconv.FormatInt(*p.CategoryID, 10))
	}
	if p.ConditionType != nil {
		q.Set("conditionType", strconv.Itoa(*p.ConditionType))
	}
	if p.IsFree != nil {
		q.Set("isFree", strconv.Itoa(*p.IsFree))
	}
	if p.MinPrice != nil {
		q.Set("minPrice", formatFloat(*p.MinPrice))
	}
	if p.MaxPrice != nil {
		q.Set("maxPrice", formatFloat(*p.MaxPrice))
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.Location != "" {
		q.Set("location", p.Location)
	}
	if p.Page != nil {
		q.Set("page", strconv.Itoa(*p.Page))
	}
	if p.Size != nil {
		q.Set("size", strconv.Itoa(*p.Size))
	}
	return q.Encode()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// List は物品一覧を取得する。
func (s *ItemService) List(ctx context.Context, page, size int) (*model.Response[model.Page[model.Item]], error) {
	return get[model.Page[model.Item]](ctx, s.api, "/items"+pageQuery(page, size))
}

// ListByCategory は分類ごとの物品一覧を取得する。
func (s *ItemService) ListByCategory(ctx context.Context, categoryID int64, page, size int) (*model.Response[model.Page[model.Item]], error) {
	return get[model.Page[model.Item]](ctx, s.api, "/items/category/"+id(categoryID)+pageQuery(page, size))
}

// ListByUser はユーザーが出品した物品一覧を取得する。
func (s *ItemService) ListByUser(ctx context.Context, userID int64, page, size int) (*model.Response[model.Page[model.Item]], error) {
	return get[model.Page[model.Item]](ctx, s.api, "/items/user/"+id(userID)+pageQuery(page, size))
}

// Update は物品を部分更新する。
func (s *ItemService) Update(ctx context.Context, itemID int64, req model.ItemUpdateRequest) (*model.Response[*model.Item], error) {
	return put[*model.Item](ctx, s.api, "/items/"+id(itemID), req)
}

// Delete は物品を削除する。
func (s *ItemService) Delete(ctx context.Context, itemID int64) (*model.Response[Empty], error) {
	return del[Empty](ctx, s.api, "/items/"+id(itemID))
}

// Popular は人気の物品を取得する。
func (s *ItemService) Popular(ctx context.Context, size int) (*model.Response[[]model.Item], error) {
	return get[[]model.Item](ctx, s.api, "/items/popular?size="+strconv.Itoa(size))
}

// Latest は最新の物品を取得する。
func (s *ItemService) Latest(ctx context.Context, size int) (*model.Response[[]model.Item], error) {
	return get[[]model.Item](ctx, s.api, "/items/latest?size="+strconv.Itoa(size))
}

// Nearby は指定地点から距離（km）以内の物品を取得する。
func (s *ItemService) Nearby(ctx context.Context, latitude, longitude float64, distance int) (*model.Response[[]model.Item], error) {
	path := "/items/nearby?latitude=" + formatFloat(latitude) +
		"&longitude=" + formatFloat(longitude) +
		"&distance=" + strconv.Itoa(distance)
	return get[[]model.Item](ctx, s.api, path)
}

// Favorite はログイン中ユーザーとして物品をお気に入りに追加する。
func (s *ItemService) Favorite(ctx context.Context, itemID int64) (*model.Response[Empty], error) {
	return post[Empty](ctx, s.api, "/items/"+id(itemID)+"/favorite", nil)
}

// Unfavorite はログイン中ユーザーのお気に入りから物品を外す。
func (s *ItemService) Unfavorite(ctx context.Context, itemID int64) (*model.Response[Empty], error) {
	return del[Empty](ctx, s.api, "/items/"+id(itemID)+"/favorite")
}

// FavoriteStatus はログイン中ユーザーのお気に入り状態を取得する。
func (s *ItemService) FavoriteStatus(ctx context.Context, itemID int64) (*model.Response[model.FavoriteStatus], error) {
	return get[model.FavoriteStatus](ctx, s.api, "/items/"+id(itemID)+"/favorite-status")
}

// ListUserFavorites はユーザーがお気に入りにした物品一覧を取得する。
func (s *ItemService) ListUserFavorites(ctx context.Context, userID int64, page, size int) (*model.Response[model.Page[model.Item]], error) {
	return get[model.Page[model.Item]](ctx, s.api, "/items/favorites/"+id(userID)+pageQuery(page, size))
}

package service

import (
	"context"
	"net/url"
	"strconv"

	"github.com/hitoshi/sharehub/internal/model"
)

// CategoryService は分類関連エンドポイントのサービス。
type CategoryService struct {
	api Requester
}

// NewCategoryService はCategoryServiceの新しいインスタンスを生成する。
func NewCategoryService(api Requester) *CategoryService {
	return &CategoryService{api: api}
}

// List は全分類を取得する。
func (s *CategoryService) List(ctx context.Context) (*model.Response[[]model.Category], error) {
	return get[[]model.Category](ctx, s.api, "/categories")
}

// GetByID はIDで分類を取得する。
func (s *CategoryService) GetByID(ctx context.Context, categoryID int64) (*model.Response[*model.Category], error) {
	return get[*model.Category](ctx, s.api, "/categories/"+id(categoryID))
}

// Create は分類を作成する。
func (s *CategoryService) Create(ctx context.Context, in model.CategoryInput) (*model.Response[*model.Category], error) {
	return post[*model.Category](ctx, s.api, "/categories", in)
}

// Update は分類を部分更新する。
func (s *CategoryService) Update(ctx context.Context, categoryID int64, in model.CategoryInput) (*model.Response[*model.Category], error) {
	return put[*model.Category](ctx, s.api, "/categories/"+id(categoryID), in)
}

// Delete は分類を削除する。
func (s *CategoryService) Delete(ctx context.Context, categoryID int64) (*model.Response[Empty], error) {
	return del[Empty](ctx, s.api, "/categories/"+id(categoryID))
}

// TopLevel は最上位の分類を取得する。
func (s *CategoryService) TopLevel(ctx context.Context) (*model.Response[[]model.Category], error) {
	return get[[]model.Category](ctx, s.api, "/categories/top-level")
}

// Children は子分類を取得する。
func (s *CategoryService) Children(ctx context.Context, parentID int64) (*model.Response[[]model.Category], error) {
	return get[[]model.Category](ctx, s.api, "/categories/children/"+id(parentID))
}

// Tree は分類ツリーを取得する。
func (s *CategoryService) Tree(ctx context.Context) (*model.Response[[]model.Category], error) {
	return get[[]model.Category](ctx, s.api, "/categories/tree")
}

// Search はキーワードで分類を検索する。
func (s *CategoryService) Search(ctx context.Context, keyword string) (*model.Response[[]model.Category], error) {
	return get[[]model.Category](ctx, s.api, "/categories/search?keyword="+url.QueryEscape(keyword))
}

// Popular は人気の分類を取得する。
func (s *CategoryService) Popular(ctx context.Context, size int) (*model.Response[[]model.Category], error) {
	return get[[]model.Category](ctx, s.api, "/categories/popular?size="+strconv.Itoa(size))
}

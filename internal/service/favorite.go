package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/hitoshi/sharehub/internal/apiclient"
	"github.com/hitoshi/sharehub/internal/model"
)

// FavoriteService はお気に入り関連エンドポイントのサービス。
// 失敗時はログを出力したうえで同じエラー値をそのまま返す。
type FavoriteService struct {
	api    Requester
	logger *slog.Logger
}

// NewFavoriteService はFavoriteServiceの新しいインスタンスを生成する。
func NewFavoriteService(api Requester, logger *slog.Logger) *FavoriteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FavoriteService{api: api, logger: logger}
}

func favoriteQuery(userID, itemID int64) string {
	return "?userId=" + strconv.FormatInt(userID, 10) + "&itemId=" + strconv.FormatInt(itemID, 10)
}

func (s *FavoriteService) logFailure(op string, err error, attrs ...slog.Attr) error {
	args := []any{slog.String("operation", op), slog.String("error", err.Error())}
	for _, a := range attrs {
		args = append(args, a)
	}
	s.logger.Error("お気に入りAPIの呼び出しに失敗しました", args...)
	return err
}

// Add は物品をお気に入りに追加する。
func (s *FavoriteService) Add(ctx context.Context, userID, itemID int64) (*model.Response[Empty], error) {
	resp, err := post[Empty](ctx, s.api, "/favorites"+favoriteQuery(userID, itemID), nil)
	if err != nil {
		return nil, s.logFailure("add", err, slog.Int64("user_id", userID), slog.Int64("item_id", itemID))
	}
	return resp, nil
}

// Remove はお気に入りから物品を外す。
func (s *FavoriteService) Remove(ctx context.Context, userID, itemID int64) (*model.Response[Empty], error) {
	resp, err := del[Empty](ctx, s.api, "/favorites"+favoriteQuery(userID, itemID))
	if err != nil {
		return nil, s.logFailure("remove", err, slog.Int64("user_id", userID), slog.Int64("item_id", itemID))
	}
	return resp, nil
}

// Check はお気に入り状態を確認する。
func (s *FavoriteService) Check(ctx context.Context, userID, itemID int64) (*model.Response[model.FavoriteStatus], error) {
	resp, err := get[model.FavoriteStatus](ctx, s.api, "/favorites/check"+favoriteQuery(userID, itemID))
	if err != nil {
		return nil, s.logFailure("check", err, slog.Int64("user_id", userID), slog.Int64("item_id", itemID))
	}
	return resp, nil
}

// ListByUser はユーザーのお気に入り一覧を取得する。
func (s *FavoriteService) ListByUser(ctx context.Context, userID int64, page, size int) (*model.Response[model.Page[model.Favorite]], error) {
	resp, err := get[model.Page[model.Favorite]](ctx, s.api, "/favorites/user/"+id(userID)+pageQuery(page, size))
	if err != nil {
		return nil, s.logFailure("list_by_user", err, slog.Int64("user_id", userID))
	}
	return resp, nil
}

// ListMine はログイン中ユーザーのお気に入り一覧を取得する。
func (s *FavoriteService) ListMine(ctx context.Context, page, size int) (*model.Response[model.Page[model.Favorite]], error) {
	resp, err := get[model.Page[model.Favorite]](ctx, s.api, "/favorites/my"+pageQuery(page, size))
	if err != nil {
		return nil, s.logFailure("list_mine", err)
	}
	return resp, nil
}

// BatchRemove は複数の物品をまとめてお気に入りから外す。
func (s *FavoriteService) BatchRemove(ctx context.Context, itemIDs []int64) (*model.Response[Empty], error) {
	body := struct {
		ItemIDs []int64 `json:"itemIds"`
	}{ItemIDs: itemIDs}
	resp, err := del[Empty](ctx, s.api, "/favorites/batch", apiclient.WithBody(body))
	if err != nil {
		return nil, s.logFailure("batch_remove", err, slog.Int("count", len(itemIDs)))
	}
	return resp, nil
}

// Stats はユーザーのお気に入り統計を取得する。
func (s *FavoriteService) Stats(ctx context.Context, userID int64) (*model.Response[model.FavoriteStats], error) {
	resp, err := get[model.FavoriteStats](ctx, s.api, "/favorites/stats/"+id(userID))
	if err != nil {
		return nil, s.logFailure("stats", err, slog.Int64("user_id", userID))
	}
	return resp, nil
}

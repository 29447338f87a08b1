package service

import (
	"context"
	"log/slog"

	"github.com/hitoshi/sharehub/internal/apiclient"
	"github.com/hitoshi/sharehub/internal/model"
)

// FollowService はフォロー関連エンドポイントのサービス。
// 失敗時はログを出力したうえで同じエラー値をそのまま返す。
type FollowService struct {
	api    Requester
	logger *slog.Logger
}

// NewFollowService はFollowServiceの新しいインスタンスを生成する。
func NewFollowService(api Requester, logger *slog.Logger) *FollowService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FollowService{api: api, logger: logger}
}

type userIDsBody struct {
	UserIDs []int64 `json:"userIds"`
}

func (s *FollowService) fail(op string, err error) error {
	s.logger.Error("フォローAPIの呼び出しに失敗しました",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return err
}

// Follow はユーザーをフォローする。
func (s *FollowService) Follow(ctx context.Context, userID int64) (*model.Response[Empty], error) {
	body := struct {
		UserID int64 `json:"userId"`
	}{UserID: userID}
	resp, err := post[Empty](ctx, s.api, "/follows", body)
	if err != nil {
		return nil, s.fail("follow", err)
	}
	return resp, nil
}

// Unfollow はフォローを解除する。
func (s *FollowService) Unfollow(ctx context.Context, userID int64) (*model.Response[Empty], error) {
	resp, err := del[Empty](ctx, s.api, "/follows/"+id(userID))
	if err != nil {
		return nil, s.fail("unfollow", err)
	}
	return resp, nil
}

// Check はフォロー状態を確認する。
func (s *FollowService) Check(ctx context.Context, userID int64) (*model.Response[model.FollowStatus], error) {
	resp, err := get[model.FollowStatus](ctx, s.api, "/follows/check/"+id(userID))
	if err != nil {
		return nil, s.fail("check", err)
	}
	return resp, nil
}

// Following はユーザーのフォロー一覧を取得する。
func (s *FollowService) Following(ctx context.Context, userID int64, page, size int) (*model.Response[model.Page[model.Follow]], error) {
	resp, err := get[model.Page[model.Follow]](ctx, s.api, "/follows/following/"+id(userID)+pageQuery(page, size))
	if err != nil {
		return nil, s.fail("following", err)
	}
	return resp, nil
}

// Followers はユーザーのフォロワー一覧を取得する。
func (s *FollowService) Followers(ctx context.Context, userID int64, page, size int) (*model.Response[model.Page[model.Follow]], error) {
	resp, err := get[model.Page[model.Follow]](ctx, s.api, "/follows/followers/"+id(userID)+pageQuery(page, size))
	if err != nil {
		return nil, s.fail("followers", err)
	}
	return resp, nil
}

// MyFollowing はログイン中ユーザーのフォロー一覧を取得する。
func (s *FollowService) MyFollowing(ctx context.Context, page, size int) (*model.Response[model.Page[model.Follow]], error) {
	resp, err := get[model.Page[model.Follow]](ctx, s.api, "/follows/my-following"+pageQuery(page, size))
	if err != nil {
		return nil, s.fail("my_following", err)
	}
	return resp, nil
}

// MyFollowers はログイン中ユーザーのフォロワー一覧を取得する。
func (s *FollowService) MyFollowers(ctx context.Context, page, size int) (*model.Response[model.Page[model.Follow]], error) {
	resp, err := get[model.Page[model.Follow]](ctx, s.api, "/follows/my-followers"+pageQuery(page, size))
	if err != nil {
		return nil, s.fail("my_followers", err)
	}
	return resp, nil
}

// BatchFollow は複数ユーザーをまとめてフォローする。
func (s *FollowService) BatchFollow(ctx context.Context, userIDs []int64) (*model.Response[Empty], error) {
	resp, err := post[Empty](ctx, s.api, "/follows/batch", userIDsBody{UserIDs: userIDs})
	if err != nil {
		return nil, s.fail("batch_follow", err)
	}
	return resp, nil
}

// BatchUnfollow は複数ユーザーのフォローをまとめて解除する。
func (s *FollowService) BatchUnfollow(ctx context.Context, userIDs []int64) (*model.Response[Empty], error) {
	resp, err := del[Empty](ctx, s.api, "/follows/batch", apiclient.WithBody(userIDsBody{UserIDs: userIDs}))
	if err != nil {
		return nil, s.fail("batch_unfollow", err)
	}
	return resp, nil
}

// Stats はフォロー数・フォロワー数を取得する。
func (s *FollowService) Stats(ctx context.Context, userID int64) (*model.Response[model.FollowStats], error) {
	resp, err := get[model.FollowStats](ctx, s.api, "/follows/stats/"+id(userID))
	if err != nil {
		return nil, s.fail("stats", err)
	}
	return resp, nil
}

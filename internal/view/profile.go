package view

import (
	"context"

	"github.com/hitoshi/sharehub/internal/model"
	"github.com/hitoshi/sharehub/internal/querycache"
	"github.com/hitoshi/sharehub/internal/store"
)

// プロフィール画面のタブ
const (
	TabItems     = "items"
	TabFavorites = "favorites"
)

const profilePageSize = 12

// ProfilePage はプロフィール画面の表示モデル。
type ProfilePage struct {
	User           *model.User
	Tab            string
	Cards          []Card
	ItemCount      int64
	FollowingCount int64
	FollowersCount int64
	Err            string
}

type profileResult = *model.Response[*model.User]
type followStats = *model.Response[model.FollowStats]

// ProfileView はプロフィール画面のロジック。
// 自分の出品は物品ストア経由、お気に入りとフォロー統計はクエリキャッシュ経由で読み込む。
type ProfileView struct {
	env *Env
}

// NewProfileView はProfileViewを生成する。
func NewProfileView(env *Env) *ProfileView {
	return &ProfileView{env: env}
}

// Load はプロフィールと選択中のタブの内容を読み込む。
// プロフィールが取得できない場合はログイン画面へ移動してnilを返す。
func (v *ProfileView) Load(ctx context.Context, tab string) (*ProfilePage, error) {
	if !v.env.Nav.Guard(RouteProfile, v.env.Session.IsAuthenticated()) {
		return nil, nil
	}
	if tab != TabFavorites {
		tab = TabItems
	}

	resp, err := querycache.Read(ctx, v.env.Cache, querycache.NewKey(keyProfile), func(ctx context.Context) (profileResult, error) {
		return v.env.Services.Users.Profile(ctx)
	})
	if err != nil || !resp.Success || resp.Data == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		v.env.Nav.Navigate(RouteLogin)
		return nil, nil
	}
	user := resp.Data
	page := &ProfilePage{User: user, Tab: tab}

	if stats, err := querycache.Read(ctx, v.env.Cache, querycache.NewKey(keyFollowStats, user.ID), func(ctx context.Context) (followStats, error) {
		return v.env.Services.Follows.Stats(ctx, user.ID)
	}); err == nil && stats.Success {
		page.FollowingCount = stats.Data.FollowingCount
		page.FollowersCount = stats.Data.FollowersCount
	}

	if err := v.loadItems(ctx, user.ID); err != nil {
		page.Err = errorMessage(err, "物品加载失败")
	}
	state := v.env.Items.State()
	page.ItemCount = state.Pagination.Total
	if state.Err != "" {
		page.Err = state.Err
	}

	if tab == TabItems {
		page.Cards = NewCards(state.Items)
		return page, nil
	}

	favs, err := querycache.Read(ctx, v.env.Cache, querycache.NewKey(keyUserFavorites, user.ID), func(ctx context.Context) (itemPage, error) {
		return v.env.Services.Items.ListUserFavorites(ctx, user.ID, 0, profilePageSize)
	})
	if err != nil {
		page.Err = errorMessage(err, "收藏加载失败")
		return page, nil
	}
	if !favs.Success {
		page.Err = messageOr(favs.Message, "收藏加载失败")
		return page, nil
	}
	page.Cards = NewCards(favs.Data.Content)
	return page, nil
}

// loadItems は自分の出品一覧を物品ストアに読み込む。
func (v *ProfileView) loadItems(ctx context.Context, userID int64) error {
	v.env.Items.SetLoading(true)
	resp, err := v.env.Services.Items.ListByUser(ctx, userID, 0, profilePageSize)
	if err != nil {
		v.env.Items.SetError(errorMessage(err, "物品加载失败"))
		return err
	}
	if !resp.Success {
		v.env.Items.SetError(messageOr(resp.Message, "物品加载失败"))
		return nil
	}
	v.env.Items.SetItems(resp.Data.Content)
	v.env.Items.SetPagination(store.Pagination{
		Page:       resp.Data.Number,
		Size:       resp.Data.Size,
		Total:      resp.Data.TotalElements,
		TotalPages: resp.Data.TotalPages,
	})
	return nil
}

// DeleteItem は自分の出品を削除し、物品ストアと関連するキャッシュから取り除く。
func (v *ProfileView) DeleteItem(ctx context.Context, itemID int64) error {
	if v.env.Session.CurrentUser() == nil {
		v.env.Nav.Navigate(RouteLogin)
		return model.NewNotAuthenticatedError("用户未登录")
	}
	resp, err := v.env.Services.Items.Delete(ctx, itemID)
	if err != nil {
		v.env.Notify.Error(errorMessage(err, "删除失败"))
		return err
	}
	if !resp.Success {
		v.env.Notify.Error(messageOr(resp.Message, "删除失败"))
		return nil
	}
	v.env.Items.Remove(itemID)
	v.env.Cache.Invalidate(querycache.NewKey(keyItems))
	v.env.Cache.Invalidate(itemKey(itemID))
	v.env.Notify.Success("删除成功")
	v.env.Nav.Navigate(RouteProfile)
	return nil
}

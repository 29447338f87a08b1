package view

import (
	"context"
	"fmt"

	"github.com/hitoshi/sharehub/internal/label"
	"github.com/hitoshi/sharehub/internal/model"
	"github.com/hitoshi/sharehub/internal/querycache"
)

// ItemDetailPage は物品詳細画面の表示モデル。
type ItemDetailPage struct {
	Item      *model.Item
	NotFound  bool
	Favorited bool
	Price     string
	Condition string
	Category  string
	Status    string
	IsOwner   bool
	LoggedIn  bool
}

type itemResult = *model.Response[*model.Item]
type favoriteCheck = *model.Response[model.FavoriteStatus]

// ItemDetailView は物品詳細画面のロジック。
type ItemDetailView struct {
	env *Env
}

// NewItemDetailView はItemDetailViewを生成する。
func NewItemDetailView(env *Env) *ItemDetailView {
	return &ItemDetailView{env: env}
}

func itemKey(itemID int64) querycache.Key {
	return querycache.NewKey(keyItem, itemID)
}

func favoriteCheckKey(userID, itemID int64) querycache.Key {
	return querycache.NewKey(keyFavorites, "check", userID, itemID)
}

// ContactMessage は出品者への問い合わせ文面を返す。
func ContactMessage(title string) string {
	return fmt.Sprintf("你好，我对\"%s\"很感兴趣，请问还在线吗？", title)
}

func (v *ItemDetailView) item(ctx context.Context, itemID int64) (*model.Item, error) {
	resp, err := querycache.Read(ctx, v.env.Cache, itemKey(itemID), func(ctx context.Context) (itemResult, error) {
		return v.env.Services.Items.GetByID(ctx, itemID)
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}
	return resp.Data, nil
}

func (v *ItemDetailView) favorited(ctx context.Context, userID, itemID int64) bool {
	resp, err := querycache.Read(ctx, v.env.Cache, favoriteCheckKey(userID, itemID), func(ctx context.Context) (favoriteCheck, error) {
		return v.env.Services.Favorites.Check(ctx, userID, itemID)
	})
	if err != nil || !resp.Success {
		return false
	}
	return resp.Data.IsFavorite
}

// Load は物品を読み込む。ログイン中ならお気に入り状態も確認する。
// 物品が取得できない場合はNotFoundの表示モデルを返す。
func (v *ItemDetailView) Load(ctx context.Context, itemID int64) (*ItemDetailPage, error) {
	v.env.Nav.Visit(ItemRoute(itemID))
	user := v.env.Session.CurrentUser()
	page := &ItemDetailPage{LoggedIn: user != nil}

	item, err := v.item(ctx, itemID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		v.env.logger().Warn("物品の取得に失敗しました", "item_id", itemID, "error", err)
		page.NotFound = true
		return page, nil
	}

	page.Item = item
	page.Price = FormatPrice(*item)
	page.Condition = label.DetailCondition(item.ConditionType)
	page.Category = label.CategoryName(item.CategoryID)
	if item.Category != nil && item.Category.Name != "" {
		page.Category = item.Category.Name
	}
	page.Status = label.Status(item.Status)
	if user != nil {
		page.IsOwner = user.ID == item.UserID
		page.Favorited = v.favorited(ctx, user.ID, itemID)
	}
	return page, nil
}

// ToggleFavorite は詳細画面の物品のお気に入りを切り替える。
func (v *ItemDetailView) ToggleFavorite(ctx context.Context, itemID int64) error {
	user := v.env.Session.CurrentUser()
	if user == nil {
		v.env.Notify.Error("操作失败")
		return model.NewNotAuthenticatedError("用户未登录")
	}

	favorited := v.favorited(ctx, user.ID, itemID)
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
		v.env.Notify.Error("操作失败")
		return err
	}
	if !resp.Success {
		v.env.Notify.Error(messageOr(resp.Message, "操作失败"))
		return nil
	}

	// お気に入り件数とチェック結果はどちらも次の読み込みで取り直す
	v.env.Cache.Invalidate(itemKey(itemID))
	v.env.Cache.Invalidate(querycache.NewKey(keyFavorites))
	if favorited {
		v.env.Notify.Success("已取消收藏")
	} else {
		v.env.Notify.Success("已添加到收藏")
	}
	return nil
}

// ContactSeller は出品者に定型の問い合わせメッセージを送る。
func (v *ItemDetailView) ContactSeller(ctx context.Context, itemID int64) error {
	item, err := v.item(ctx, itemID)
	if err != nil {
		v.env.Notify.Error("物品不存在")
		return err
	}

	id := item.ID
	resp, err := v.env.Services.Messages.Send(ctx, model.SendMessageRequest{
		ReceiverID: item.UserID,
		Content:    ContactMessage(item.Title),
		ItemID:     &id,
	})
	if err != nil {
		v.env.logger().Error("メッセージの送信に失敗しました", "item_id", itemID, "error", err)
		v.env.Notify.Error("发送失败")
		return err
	}
	if !resp.Success {
		v.env.Notify.Error(messageOr(resp.Message, "发送失败"))
		return nil
	}
	v.env.Notify.Success("消息发送成功")
	return nil
}

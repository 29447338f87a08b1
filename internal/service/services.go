package service

import "log/slog"

// Services はワークスペースが利用する6つのリソースサービスの組。
type Services struct {
	Users      *UserService
	Items      *ItemService
	Categories *CategoryService
	Favorites  *FavoriteService
	Follows    *FollowService
	Messages   *MessageService
}

// NewServices は同じRequesterを共有するサービス群を生成する。
func NewServices(api Requester, logger *slog.Logger) *Services {
	return &Services{
		Users:      NewUserService(api),
		Items:      NewItemService(api),
		Categories: NewCategoryService(api),
		Favorites:  NewFavoriteService(api, logger),
		Follows:    NewFollowService(api, logger),
		Messages:   NewMessageService(api),
	}
}

package service

import (
	"context"

	"github.com/hitoshi/sharehub/internal/model"
)

// MessageService はメッセージ関連エンドポイントのサービス。
type MessageService struct {
	api Requester
}

// NewMessageService はMessageServiceの新しいインスタンスを生成する。
func NewMessageService(api Requester) *MessageService {
	return &MessageService{api: api}
}

// Send はメッセージを送信する。
func (s *MessageService) Send(ctx context.Context, req model.SendMessageRequest) (*model.Response[*model.Message], error) {
	return post[*model.Message](ctx, s.api, "/messages", req)
}

// List はメッセージ一覧を取得する。
func (s *MessageService) List(ctx context.Context, page, size int) (*model.Response[model.Page[model.Message]], error) {
	return get[model.Page[model.Message]](ctx, s.api, "/messages"+pageQuery(page, size))
}

// Received は受信メッセージ一覧を取得する。
func (s *MessageService) Received(ctx context.Context, page, size int) (*model.Response[model.Page[model.Message]], error) {
	return get[model.Page[model.Message]](ctx, s.api, "/messages/received"+pageQuery(page, size))
}

// Sent は送信メッセージ一覧を取得する。
func (s *MessageService) Sent(ctx context.Context, page, size int) (*model.Response[model.Page[model.Message]], error) {
	return get[model.Page[model.Message]](ctx, s.api, "/messages/sent"+pageQuery(page, size))
}

// Conversation は指定ユーザーとの会話を取得する。
func (s *MessageService) Conversation(ctx context.Context, userID int64, page, size int) (*model.Response[model.Page[model.Message]], error) {
	return get[model.Page[model.Message]](ctx, s.api, "/messages/conversation/"+id(userID)+pageQuery(page, size))
}

// MarkAsRead はメッセージを既読にする。
func (s *MessageService) MarkAsRead(ctx context.Context, messageID int64) (*model.Response[Empty], error) {
	return put[Empty](ctx, s.api, "/messages/"+id(messageID)+"/read", nil)
}

// MarkMultipleAsRead は複数メッセージをまとめて既読にする。
func (s *MessageService) MarkMultipleAsRead(ctx context.Context, messageIDs []int64) (*model.Response[Empty], error) {
	body := struct {
		MessageIDs []int64 `json:"messageIds"`
	}{MessageIDs: messageIDs}
	return put[Empty](ctx, s.api, "/messages/read-multiple", body)
}

// Delete はメッセージを削除する。
func (s *MessageService) Delete(ctx context.Context, messageID int64) (*model.Response[Empty], error) {
	return del[Empty](ctx, s.api, "/messages/"+id(messageID))
}

// UnreadCount は未読メッセージ数を取得する。
func (s *MessageService) UnreadCount(ctx context.Context) (*model.Response[model.UnreadCount], error) {
	return get[model.UnreadCount](ctx, s.api, "/messages/unread-count")
}

// System はシステム通知一覧を取得する。
func (s *MessageService) System(ctx context.Context, page, size int) (*model.Response[model.Page[model.Message]], error) {
	return get[model.Page[model.Message]](ctx, s.api, "/messages/system"+pageQuery(page, size))
}

// ItemMessages は物品に関するメッセージ一覧を取得する。
func (s *MessageService) ItemMessages(ctx context.Context, itemID int64, page, size int) (*model.Response[model.Page[model.Message]], error) {
	return get[model.Page[model.Message]](ctx, s.api, "/messages/item/"+id(itemID)+pageQuery(page, size))
}

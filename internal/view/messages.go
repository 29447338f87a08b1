package view

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/sharehub/internal/model"
)

const (
	messagePageSize  = 20
	maxMessageLength = 500
)

// MessagesPage はメッセージセンターの表示モデル。
type MessagesPage struct {
	Messages    []model.Message
	UnreadCount int64
	Err         string
}

// MessagesView はメッセージセンターのロジック。状態はメッセージストアに保持する。
type MessagesView struct {
	env *Env
}

// NewMessagesView はMessagesViewを生成する。
func NewMessagesView(env *Env) *MessagesView {
	return &MessagesView{env: env}
}

// Load は受信メッセージと未読数をメッセージストアに読み込む。
func (v *MessagesView) Load(ctx context.Context) (*MessagesPage, error) {
	if !v.env.Nav.Guard(RouteMessages, v.env.Session.IsAuthenticated()) {
		return nil, nil
	}

	ms := v.env.Messages
	ms.SetLoading(true)
	resp, err := v.env.Services.Messages.Received(ctx, 0, messagePageSize)
	switch {
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		ms.SetError(errorMessage(err, "消息加载失败"))
	case !resp.Success:
		ms.SetError(messageOr(resp.Message, "消息加载失败"))
	default:
		ms.SetMessages(resp.Data.Content)
	}

	if count, err := v.env.Services.Messages.UnreadCount(ctx); err == nil && count.Success {
		ms.SetUnreadCount(count.Data.Count)
	} else {
		// 未読数が取れない場合は一覧から数える
		ms.SetUnreadCount(countUnread(ms.State().Messages))
	}

	state := ms.State()
	return &MessagesPage{Messages: state.Messages, UnreadCount: state.UnreadCount, Err: state.Err}, nil
}

func countUnread(msgs []model.Message) int64 {
	var n int64
	for _, m := range msgs {
		if !m.Read() {
			n++
		}
	}
	return n
}

// SendForm はメッセージ送信フォームの入力値。
type SendForm struct {
	ReceiverID string
	Content    string
	ItemID     string
}

// Send はメッセージを送信し、送信済みメッセージをストアに追加する。
func (v *MessagesView) Send(ctx context.Context, form SendForm) error {
	if v.env.Session.CurrentUser() == nil {
		v.env.Nav.Navigate(RouteLogin)
		return model.NewNotAuthenticatedError("用户未登录")
	}
	content := strings.TrimSpace(form.Content)
	if content == "" {
		return v.reject("请输入消息内容")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return v.reject("消息内容不能超过500个字符")
	}
	receiverID, err := strconv.ParseInt(strings.TrimSpace(form.ReceiverID), 10, 64)
	if err != nil || receiverID <= 0 {
		return v.reject("请选择接收人")
	}
	req := model.SendMessageRequest{ReceiverID: receiverID, Content: content}
	if s := strings.TrimSpace(form.ItemID); s != "" {
		if itemID, err := strconv.ParseInt(s, 10, 64); err == nil {
			req.ItemID = &itemID
		}
	}

	resp, err := v.env.Services.Messages.Send(ctx, req)
	if err != nil {
		v.env.Notify.Error(errorMessage(err, "发送失败"))
		return err
	}
	if !resp.Success {
		v.env.Notify.Error(messageOr(resp.Message, "发送失败"))
		return nil
	}
	// 受信一覧には送信したメッセージを入れない
	v.env.Notify.Success("消息发送成功")
	v.env.Nav.Navigate(RouteMessages)
	return nil
}

func (v *MessagesView) reject(msg string) error {
	v.env.Notify.Error(msg)
	v.env.Nav.Navigate(RouteMessages)
	return model.NewValidationError(msg)
}

// MarkAsRead はメッセージを既読にする。
func (v *MessagesView) MarkAsRead(ctx context.Context, messageID int64) error {
	resp, err := v.env.Services.Messages.MarkAsRead(ctx, messageID)
	if err != nil {
		v.env.Notify.Error(errorMessage(err, "操作失败"))
		return err
	}
	if !resp.Success {
		v.env.Notify.Error(messageOr(resp.Message, "操作失败"))
		return nil
	}
	v.env.Messages.MarkAsRead(messageID)
	v.env.Nav.Navigate(RouteMessages)
	return nil
}

// MarkAllAsRead は表示中の未読メッセージをまとめて既読にする。
func (v *MessagesView) MarkAllAsRead(ctx context.Context) error {
	var ids []int64
	for _, m := range v.env.Messages.State().Messages {
		if !m.Read() {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) > 0 {
		resp, err := v.env.Services.Messages.MarkMultipleAsRead(ctx, ids)
		if err != nil {
			v.env.Notify.Error(errorMessage(err, "操作失败"))
			return err
		}
		if !resp.Success {
			v.env.Notify.Error(messageOr(resp.Message, "操作失败"))
			return nil
		}
	}
	v.env.Messages.MarkAllAsRead()
	v.env.Notify.Success("已全部标为已读")
	v.env.Nav.Navigate(RouteMessages)
	return nil
}

package store

import (
	"slices"
	"sync"

	"github.com/hitoshi/sharehub/internal/model"
)

// MessageState はメッセージストアの状態。
type MessageState struct {
	Messages     []model.Message
	UnreadCount  int64
	Loading      bool
	Err          string
	Conversation []model.Message
}

// MessageSetLoading は読み込み中フラグを設定する。
func MessageSetLoading(s MessageState, loading bool) MessageState {
	s.Loading = loading
	return s
}

// MessageSetMessages は一覧を置き換え、読み込み中とエラーを解除する。
func MessageSetMessages(s MessageState, msgs []model.Message) MessageState {
	s.Messages = slices.Clone(msgs)
	s.Loading = false
	s.Err = ""
	return s
}

// MessageAdd はメッセージを末尾に追加する。未読なら未読数を1増やす。
func MessageAdd(s MessageState, msg model.Message) MessageState {
	s.Messages = append(slices.Clone(s.Messages), msg)
	if !msg.Read() {
		s.UnreadCount++
	}
	return s
}

// MessageSetConversation は表示中の会話を設定する。
func MessageSetConversation(s MessageState, msgs []model.Message) MessageState {
	s.Conversation = slices.Clone(msgs)
	return s
}

// MessageMarkAsRead は指定メッセージを既読にする。未読数は0未満にならない。
// 該当がないか既読の場合は何もしない。
func MessageMarkAsRead(s MessageState, messageID int64) MessageState {
	i := slices.IndexFunc(s.Messages, func(m model.Message) bool { return m.ID == messageID })
	if i < 0 || s.Messages[i].Read() {
		return s
	}
	s.Messages = slices.Clone(s.Messages)
	s.Messages[i].IsRead = 1
	s.UnreadCount = max(0, s.UnreadCount-1)
	return s
}

// MessageMarkAllAsRead はすべて既読にし、未読数を0にする。
func MessageMarkAllAsRead(s MessageState) MessageState {
	s.Messages = slices.Clone(s.Messages)
	for i := range s.Messages {
		s.Messages[i].IsRead = 1
	}
	s.UnreadCount = 0
	return s
}

// MessageSetUnreadCount は未読数を設定する。
func MessageSetUnreadCount(s MessageState, n int64) MessageState {
	s.UnreadCount = n
	return s
}

// MessageSetError はエラーを設定し、読み込み中を解除する。
func MessageSetError(s MessageState, msg string) MessageState {
	s.Err = msg
	s.Loading = false
	return s
}

// MessageClearError はエラーを解除する。
func MessageClearError(s MessageState) MessageState {
	s.Err = ""
	return s
}

// MessageStore はメッセージストア。
type MessageStore struct {
	mu    sync.RWMutex
	state MessageState
}

// NewMessageStore は空のMessageStoreを生成する。
func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

// State は現在の状態のコピーを返す。
func (s *MessageStore) State() MessageState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Messages = slices.Clone(st.Messages)
	st.Conversation = slices.Clone(st.Conversation)
	return st
}

func (s *MessageStore) apply(fn func(MessageState) MessageState) {
	s.mu.Lock()
	s.state = fn(s.state)
	s.mu.Unlock()
}

// SetLoading は読み込み中フラグを設定する。
func (s *MessageStore) SetLoading(loading bool) {
	s.apply(func(st MessageState) MessageState { return MessageSetLoading(st, loading) })
}

// SetMessages は受信一覧を置き換える。
func (s *MessageStore) SetMessages(msgs []model.Message) {
	s.apply(func(st MessageState) MessageState { return MessageSetMessages(st, msgs) })
}

// Add はメッセージを末尾に追加する。未読なら未読数が増える。
func (s *MessageStore) Add(msg model.Message) {
	s.apply(func(st MessageState) MessageState { return MessageAdd(st, msg) })
}

// SetConversation は表示中の会話を設定する。
func (s *MessageStore) SetConversation(msgs []model.Message) {
	s.apply(func(st MessageState) MessageState { return MessageSetConversation(st, msgs) })
}

// MarkAsRead は指定メッセージを既読にする。
func (s *MessageStore) MarkAsRead(messageID int64) {
	s.apply(func(st MessageState) MessageState { return MessageMarkAsRead(st, messageID) })
}

// MarkAllAsRead はすべて既読にする。
func (s *MessageStore) MarkAllAsRead() {
	s.apply(MessageMarkAllAsRead)
}

// SetUnreadCount は未読数を設定する。
func (s *MessageStore) SetUnreadCount(n int64) {
	s.apply(func(st MessageState) MessageState { return MessageSetUnreadCount(st, n) })
}

// SetError はエラーを設定する。
func (s *MessageStore) SetError(msg string) {
	s.apply(func(st MessageState) MessageState { return MessageSetError(st, msg) })
}

// ClearError はエラーを解除する。
func (s *MessageStore) ClearError() {
	s.apply(MessageClearError)
}

// Reset は初期状態に戻す（ログアウト時）。
func (s *MessageStore) Reset() {
	s.apply(func(MessageState) MessageState { return MessageState{} })
}

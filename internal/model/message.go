package model

// Message はユーザー間のメッセージ（送信者 → 受信者）を表す。
// 物品に紐づく問い合わせの場合はItemIDを持つ。
type Message struct {
	ID         int64  `json:"id"`
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	ItemID     *int64 `json:"itemId,omitempty"`
	Type       int    `json:"type"`
	Title      string `json:"title,omitempty"`
	Content    string `json:"content"`
	IsRead     int    `json:"isRead"`
	CreatedAt  string `json:"createdAt"`
	ReadAt     string `json:"readAt,omitempty"`
}

// Read はメッセージが既読かどうかを返す。
func (m Message) Read() bool {
	return m.IsRead == 1
}

// MessageType はメッセージの種別を表す。
type MessageType int

const (
	// MessageTypePrivate はユーザー間の私信。
	MessageTypePrivate MessageType = 1
	// MessageTypeSystemはシステム通知。
	MessageTypeSystem MessageType = 2
	// MessageTypeItemRelated は物品に関する問い合わせ。
	MessageTypeItemRelated MessageType = 3
)

// SendMessageRequest はメッセージ送信リクエストのボディ。
type SendMessageRequest struct {
	ReceiverID int64  `json:"receiverId"`
	Content    string `json:"content"`
	ItemID     *int64 `json:"itemId,omitempty"`
	Type       *int   `json:"type,omitempty"`
	Title      string `json:"title,omitempty"`
}

// UnreadCount は未読メッセージ数。
type UnreadCount struct {
	Count int64 `json:"count"`
}

// ViewHistory は物品の閲覧履歴を表す。
type ViewHistory struct {
	ID        int64  `json:"id"`
	UserID    *int64 `json:"userId,omitempty"`
	ItemID    int64  `json:"itemId"`
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// SystemConfig はバックエンドのシステム設定値を表す。
type SystemConfig struct {
	ID          int64  `json:"id"`
	ConfigKey   string `json:"configKey"`
	ConfigValue string `json:"configValue,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// OperationLog は操作ログを表す。
type OperationLog struct {
	ID          int64  `json:"id"`
	UserID      *int64 `json:"userId,omitempty"`
	Operation   string `json:"operation"`
	TargetType  string `json:"targetType"`
	TargetID    int64  `json:"targetId"`
	Description string `json:"description,omitempty"`
	IPAddress   string `json:"ipAddress,omitempty"`
	UserAgent   string `json:"userAgent,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

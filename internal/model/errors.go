package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, item, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnknownCategory  = "UNKNOWN_CATEGORY"
	ErrCodeUnknownCondition = "UNKNOWN_CONDITION"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeNotAuthenticated = "NOT_AUTHENTICATED"
	ErrCodeItemNotFound     = "ITEM_NOT_FOUND"
	ErrCodeUpstreamFailed   = "UPSTREAM_FAILED"
)

// NewUnknownCategoryError は分類ラベルが解決できない場合のエラーを生成する。
func NewUnknownCategoryError(label string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownCategory,
		Message:  fmt.Sprintf("未知の分類です: %s", label),
		Category: "validation",
		Action:   "一覧にある分類を選択してください。",
	}
}

// NewUnknownConditionError は新旧程度ラベルが解決できない場合のエラーを生成する。
func NewUnknownConditionError(label string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownCondition,
		Message:  fmt.Sprintf("未知の新旧程度です: %s", label),
		Category: "validation",
		Action:   "一覧にある新旧程度を選択してください。",
	}
}

// NewValidationError はフォーム入力の検証エラーを生成する。
// Messageはそのまま画面に表示される。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewNotAuthenticatedError は未ログイン状態で保護された操作を行った場合のエラーを生成する。
func NewNotAuthenticatedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  message,
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewItemNotFoundError は物品未検出エラーを生成する。
func NewItemNotFoundError(itemID int64) *APIError {
	return &APIError{
		Code:     ErrCodeItemNotFound,
		Message:  fmt.Sprintf("指定された物品が見つかりません: %d", itemID),
		Category: "item",
		Action:   "物品IDを確認してください。",
	}
}

// NewUpstreamFailedError はバックエンドへの中継に失敗した場合のエラーを生成する。
func NewUpstreamFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  fmt.Sprintf("バックエンドへの接続に失敗しました: %s", reason),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

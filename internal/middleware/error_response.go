package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/sharehub/internal/model"
)

// ErrorResponseBody はサーバー自身が返すJSONエラーの形式。
// バックエンドの共通エンベロープ（success, message, code）に揃え、
// クライアントが同じ分岐で扱えるようにする。
type ErrorResponseBody struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	ErrorCode string `json:"errorCode"`
	Category  string `json:"category,omitempty"`
	Action    string `json:"action,omitempty"`
}

// WriteErrorResponse は共通エンベロープ形式でHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Success:   false,
		Message:   apiErr.Message,
		Code:      statusCode,
		ErrorCode: apiErr.Code,
		Category:  apiErr.Category,
		Action:    apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "服务器内部错误",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

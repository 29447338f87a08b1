package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Envelope はエラーレスポンスのボディから読み取る共通エンベロープ部分。
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HTTPError はステータス400以上の応答を表す。ボディはそのまま保持する。
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	// Envelope はボディが共通エンベロープとしてデコードできた場合のみ非nil。
	Envelope *Envelope
}

// Error はerrorインターフェースを実装する。
func (e *HTTPError) Error() string {
	if e.Envelope != nil && e.Envelope.Message != "" {
		return fmt.Sprintf("%s %s: ステータス %d: %s", e.Method, e.Path, e.StatusCode, e.Envelope.Message)
	}
	return fmt.Sprintf("%s %s: ステータス %d", e.Method, e.Path, e.StatusCode)
}

// UserMessage はボディのエンベロープに含まれるmessageを返す。なければ空文字。
func (e *HTTPError) UserMessage() string {
	if e.Envelope == nil {
		return ""
	}
	return e.Envelope.Message
}

// Unauthorized は401応答かどうかを返す。
func (e *HTTPError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func newHTTPError(method, path string, status int, body []byte) *HTTPError {
	e := &HTTPError{Method: method, Path: path, StatusCode: status, Body: body}
	var env Envelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		e.Envelope = &env
	}
	return e
}

// TransportError はレスポンスを受け取れなかった呼び出しを表す。
// タイムアウトやキャンセルはErrからerrors.Isで判別できる。
type TransportError struct {
	Method string
	Path   string
	Err    error
}

// Error はerrorインターフェースを実装する。
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: 通信に失敗しました: %v", e.Method, e.Path, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage はエラーからユーザー向けメッセージを取り出す。
// HTTPErrorのエンベロープにmessageがあればそれを、なければfallbackを返す。
func UserMessage(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if msg := httpErr.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// IsUnauthorized はエラーが401応答によるものかを返す。
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Unauthorized()
}

// Package apiclient はバックエンドREST APIのHTTPクライアントを提供する。
// ベースURLと固定タイムアウトを持ち、セッションのトークンをBearerヘッダーとして付与する。
// 401応答を受けた場合はセッションを破棄してから元のエラーを返す。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/sharehub/internal/metrics"
)

// DefaultTimeout はすべてのリクエストに適用される固定タイムアウト。
const DefaultTimeout = 10 * time.Second

// teardownTimeout は401時のセッション破棄に与える時間。
const teardownTimeout = 5 * time.Second

// SessionProvider はクライアントに注入されるセッション。
type SessionProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context) error
}

// Client はバックエンドAPIのクライアント。
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    SessionProvider
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
}

// Option はClientの設定を変更する。
type Option func(*Client)

// WithHTTPClient は使用するhttp.Clientを指定する。
// タイムアウトはDefaultTimeoutで上書きされる。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		copied := *hc
		copied.Timeout = DefaultTimeout
		c.httpClient = &copied
	}
}

// WithLogger はロガーを指定する。
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics はメトリクスコレクタを指定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLはスキームとホストを含む絶対URLでなければならない。
func NewClient(baseURL string, session SessionProvider, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ベースURLのパースに失敗しました: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ベースURLは絶対URLである必要があります: %s", baseURL)
	}
	if session == nil {
		return nil, errors.New("セッションは必須です")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		session:    session,
		logger:     slog.Default(),
		metrics:    metrics.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL はベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestConfig struct {
	body    any
	hasBody bool
}

// RequestOption は個々のリクエストの設定を変更する。
type RequestOption func(*requestConfig)

// WithBody はDELETEなどボディを取らない動詞にJSONボディを付ける。
func WithBody(v any) RequestOption {
	return func(rc *requestConfig) {
		rc.body = v
		rc.hasBody = true
	}
}

// Get はGETリクエストを送り、レスポンスをoutにデコードする。
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, false, out, opts)
}

// Post はpayloadをJSONで送るPOSTリクエスト。payloadがnilならボディなし。
func (c *Client) Post(ctx context.Context, path string, payload, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPost, path, payload, payload != nil, out, opts)
}

// Put はpayloadをJSONで送るPUTリクエスト。
func (c *Client) Put(ctx context.Context, path string, payload, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPut, path, payload, payload != nil, out, opts)
}

// Patch はpayloadをJSONで送るPATCHリクエスト。
func (c *Client) Patch(ctx context.Context, path string, payload, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPatch, path, payload, payload != nil, out, opts)
}

// Delete はDELETEリクエスト。ボディが必要な場合はWithBodyを使う。
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, false, out, opts)
}

// PostMultipart はrの内容をfieldという名前のファイルパートとして送る。
func (c *Client) PostMultipart(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("マルチパートの作成に失敗しました: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("マルチパートへの書き込みに失敗しました: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("マルチパートのクローズに失敗しました: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, &buf, mw.FormDataContentType(), out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, hasPayload bool, out any, opts []RequestOption) error {
	rc := requestConfig{body: payload, hasBody: hasPayload}
	for _, opt := range opts {
		opt(&rc)
	}

	var body io.Reader
	if rc.hasBody {
		data, err := json.Marshal(rc.body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, body, "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	// リクエストインターセプタ: トークンがあればBearerを付与する
	token, err := c.session.Token(ctx)
	if err != nil {
		return fmt.Errorf("トークンの取得に失敗しました: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordTransportError(method)
		c.logger.Warn("API呼び出しに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordTransportError(method)
		return &TransportError{Method: method, Path: path, Err: err}
	}

	elapsed := time.Since(start)
	c.metrics.RecordAPIRequest(method, resp.StatusCode, elapsed)
	c.logger.Debug("API呼び出し",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)

	// レスポンスインターセプタ: 401はセッションを破棄してから元のエラーを返す
	if resp.StatusCode == http.StatusUnauthorized {
		c.teardown(ctx, method, path)
		return newHTTPError(method, path, resp.StatusCode, respBody)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return newHTTPError(method, path, resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}

// teardown は呼び出し元のキャンセルから切り離したコンテキストでセッションを破棄する。
func (c *Client) teardown(ctx context.Context, method, path string) {
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	c.metrics.RecordSessionTeardown()
	c.logger.Info("401応答のためセッションを破棄します",
		slog.String("method", method),
		slog.String("path", path),
	)
	if err := c.session.Invalidate(tctx); err != nil {
		c.logger.Error("セッションの破棄に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// Package proxy は開発用のAPI中継を提供する。
// /api 配下のリクエストから接頭辞を取り除き、BACKEND_URL のパスに連結して転送する。
package proxy

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/hitoshi/sharehub/internal/metrics"
	"github.com/hitoshi/sharehub/internal/middleware"
	"github.com/hitoshi/sharehub/internal/model"
)

// DefaultPrefix は中継対象のパス接頭辞。
const DefaultPrefix = "/api"

// ownCookies はバックエンドへ転送しないサーバー自身のCookie。
var ownCookies = map[string]bool{
	middleware.ClientCookieName: true,
	"csrf_token":                true,
}

// Proxy はバックエンドへの中継ハンドラー。
type Proxy struct {
	target  *url.URL
	prefix  string
	logger  *slog.Logger
	metrics metrics.MetricsCollector
	rp      *httputil.ReverseProxy
}

// Option はProxyの設定を変更する。
type Option func(*Proxy)

// WithLogger はロガーを指定する。
func WithLogger(logger *slog.Logger) Option {
	return func(p *Proxy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics はメトリクスコレクタを指定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(p *Proxy) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithTransport は転送に使うRoundTripperを指定する（テスト用）。
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Proxy) { p.rp.Transport = rt }
}

// WithPrefix は取り除く接頭辞を変更する。
func WithPrefix(prefix string) Option {
	return func(p *Proxy) { p.prefix = "/" + strings.Trim(prefix, "/") }
}

// New はbackendURLへ転送するProxyを生成する。backendURLは絶対URLでなければならない。
func New(backendURL string, opts ...Option) (*Proxy, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("中継先URLのパースに失敗しました: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, errors.New("中継先URLは絶対URLである必要があります: " + backendURL)
	}

	p := &Proxy{
		target:  target,
		prefix:  DefaultPrefix,
		logger:  slog.Default(),
		metrics: metrics.Nop{},
	}
	p.rp = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleError,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Target は中継先のURLを返す。
func (p *Proxy) Target() string {
	return p.target.String()
}

// ServeHTTP はhttp.Handlerインターフェースを実装する。
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

// TargetPath は受け取ったパスから接頭辞を取り除いたパスを返す。
func (p *Proxy) TargetPath(path string) string {
	trimmed := strings.TrimPrefix(path, p.prefix)
	if trimmed == "" {
		return "/"
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return trimmed
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.Out.URL.Path = p.TargetPath(pr.In.URL.Path)
	pr.Out.URL.RawPath = ""
	// SetURLがHostを中継先に置き換える（changeOrigin相当）
	pr.SetURL(p.target)
	pr.SetXForwarded()
	stripOwnCookies(pr.Out)

	p.logger.Info(fmt.Sprintf("[Proxy] %s %s -> %s", pr.In.Method, pr.In.URL.RequestURI(), pr.Out.URL.String()))
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	p.metrics.RecordProxyRequest(resp.StatusCode)
	return nil
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("[Proxy] 中継に失敗しました",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("target", p.target.String()),
		slog.String("error", err.Error()),
	)
	p.metrics.RecordProxyRequest(http.StatusBadGateway)
	middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewUpstreamFailedError(err.Error()))
}

func stripOwnCookies(r *http.Request) {
	cookies := r.Cookies()
	if len(cookies) == 0 {
		return
	}
	r.Header.Del("Cookie")
	for _, c := range cookies {
		if !ownCookies[c.Name] {
			r.AddCookie(c)
		}
	}
}

package middleware

import (
	"net/http"
	"strings"
)

// pageContentSecurityPolicy はサーバー描画ページ向けのポリシー。
// 物品画像はバックエンドや外部ストレージから読み込まれるためimg-srcはhttp(s)を許可する。
const pageContentSecurityPolicy = "default-src 'self'; img-src 'self' data: https: http:; style-src 'self' 'unsafe-inline'; form-action 'self'; frame-ancestors 'none'"

// SecurityHeadersConfig はセキュリティヘッダーの設定。
type SecurityHeadersConfig struct {
	// HSTS はStrict-Transport-Securityを付与するか。COOKIE_SECUREと連動させる。
	HSTS bool
}

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
// CSPはHTMLを返す画面にだけ付ける。/api の中継やJSONはバックエンドのヘッダーのまま返す。
func NewSecurityHeadersMiddleware(config SecurityHeadersConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if config.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000")
			}
			next.ServeHTTP(&pageHeaderWriter{ResponseWriter: w}, r)
		})
	}
}

// pageHeaderWriter はヘッダー確定時にContent-Typeを見て画面用ヘッダーを足す。
type pageHeaderWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (pw *pageHeaderWriter) WriteHeader(code int) {
	if !pw.wroteHeader {
		pw.wroteHeader = true
		h := pw.Header()
		if strings.HasPrefix(h.Get("Content-Type"), "text/html") {
			h.Set("Content-Security-Policy", pageContentSecurityPolicy)
			h.Set("X-Frame-Options", "DENY")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		}
	}
	pw.ResponseWriter.WriteHeader(code)
}

func (pw *pageHeaderWriter) Write(b []byte) (int, error) {
	if !pw.wroteHeader {
		if pw.Header().Get("Content-Type") == "" {
			pw.Header().Set("Content-Type", http.DetectContentType(b))
		}
		pw.WriteHeader(http.StatusOK)
	}
	return pw.ResponseWriter.Write(b)
}

// Flush はストリーミング中継のためにFlusherを透過する。
func (pw *pageHeaderWriter) Flush() {
	if f, ok := pw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap はhttp.ResponseControllerから元のWriterに到達できるようにする。
func (pw *pageHeaderWriter) Unwrap() http.ResponseWriter {
	return pw.ResponseWriter
}

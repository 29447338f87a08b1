package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/hitoshi/sharehub/internal/label"
	"github.com/hitoshi/sharehub/internal/security"
	"github.com/hitoshi/sharehub/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// pageNames は共通レイアウトに組み込む画面テンプレートの一覧。
var pageNames = []string{
	"home", "item", "login", "register", "create", "profile", "messages", "notfound",
}

// pageData はテンプレートに渡す値。Pageは各画面の表示モデル。
type pageData struct {
	Title     string
	Layout    *view.Layout
	CSRFToken string
	Page      any
}

// Renderer は画面テンプレートを保持し、共通レイアウトに埋め込んで描画する。
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer は埋め込みテンプレートを読み込む。sanitizerは物品説明の表示に使う。
func NewRenderer(sanitizer security.ContentSanitizerService, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	funcs := template.FuncMap{
		// bluemondayでサニタイズ済みのため安全なHTMLとして扱う
		"description": func(s string) template.HTML {
			return template.HTML(sanitizer.Render(s))
		},
		"plain":       sanitizer.StripTags,
		"status":      label.Status,
		"sortOptions": func() []view.SortOption { return view.SortOptions },
		"itemRoute":   view.ItemRoute,
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames)), logger: logger}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("テンプレート %s の読み込みに失敗しました: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render は画面をバッファに描画してから書き込む。描画途中の失敗で壊れたHTMLを返さない。
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data pageData) {
	t, ok := r.pages[name]
	if !ok {
		r.logger.Error("未知のテンプレートです", slog.String("template", name))
		http.Error(w, "服务器内部错误", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("テンプレートの描画に失敗しました",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "服务器内部错误", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// staticHandler は埋め込みの静的ファイルを /static/ 配下で配信する。
func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

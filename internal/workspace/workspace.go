// Package workspace はブラウザ1つ分のクライアント状態（セッション、HTTPクライアント、
// サービス、クエリキャッシュ、ドメインストア、ナビゲーション、通知）を組み立てて保持する。
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/sharehub/internal/apiclient"
	"github.com/hitoshi/sharehub/internal/metrics"
	"github.com/hitoshi/sharehub/internal/querycache"
	"github.com/hitoshi/sharehub/internal/service"
	"github.com/hitoshi/sharehub/internal/session"
	"github.com/hitoshi/sharehub/internal/storage"
	"github.com/hitoshi/sharehub/internal/store"
	"github.com/hitoshi/sharehub/internal/view"
)

// Options はワークスペースの生成に必要な共通設定。
type Options struct {
	// APIURL はバックエンドAPIのベースURL。"/api" のようなパスはサーバー自身のオリジンで解決する。
	APIURL     string
	Storage    storage.Factory
	HTTPClient *http.Client
	StaleTime  time.Duration
	Metrics    metrics.MetricsCollector
	Logger     *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// ResolveBaseURL はAPIのベースURLを絶対URLにする。
// パスで指定された場合はoriginを前に付け、開発用プロキシを経由させる。
func ResolveBaseURL(apiURL, origin string) (string, error) {
	if apiURL == "" {
		return "", errors.New("APIのベースURLが空です")
	}
	if !strings.HasPrefix(apiURL, "/") {
		return strings.TrimRight(apiURL, "/"), nil
	}
	o, err := url.Parse(origin)
	if err != nil || o.Scheme == "" || o.Host == "" {
		return "", fmt.Errorf("オリジンが不正です: %s", origin)
	}
	return o.Scheme + "://" + o.Host + strings.TrimRight(apiURL, "/"), nil
}

// Workspace はブラウザ1つ分のクライアント状態。
type Workspace struct {
	ID      string
	BaseURL string

	env         *view.Env
	unsubscribe func()

	Home       *view.HomeView
	ItemDetail *view.ItemDetailView
	CreateItem *view.CreateItemView
	Auth       *view.AuthView
	Profile    *view.ProfileView
	Messages   *view.MessagesView

	reqMu    sync.Mutex
	mu       sync.Mutex
	lastSeen time.Time
}

// New はワークスペースを組み立て、永続ストレージからセッションを復元する。
func New(ctx context.Context, id, baseURL string, opts Options) (*Workspace, error) {
	if opts.Storage == nil {
		return nil, errors.New("ストレージは必須です")
	}
	logger := opts.logger().With(slog.String("client_id", id))

	st, err := opts.Storage.Open(id)
	if err != nil {
		return nil, fmt.Errorf("ストレージを開けません: %w", err)
	}
	sess := session.New(st, logger)
	if err := sess.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("セッションの復元に失敗しました: %w", err)
	}

	clientOpts := []apiclient.Option{apiclient.WithLogger(logger)}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(opts.HTTPClient))
	}
	if opts.Metrics != nil {
		clientOpts = append(clientOpts, apiclient.WithMetrics(opts.Metrics))
	}
	client, err := apiclient.NewClient(baseURL, sess, clientOpts...)
	if err != nil {
		return nil, err
	}

	cacheOpts := []querycache.Option{querycache.WithMetrics(opts.Metrics)}
	if opts.StaleTime > 0 {
		cacheOpts = append(cacheOpts, querycache.WithStaleTime(opts.StaleTime))
	}

	env := &view.Env{
		Session:  sess,
		Services: service.NewServices(client, logger),
		Cache:    querycache.New(cacheOpts...),
		Items:    store.NewItemStore(),
		Messages: store.NewMessageStore(),
		Nav:      view.NewNavigator(),
		Notify:   view.NewNotifier(),
		Logger:   logger,
	}

	w := &Workspace{
		ID:          id,
		BaseURL:     client.BaseURL(),
		env:         env,
		unsubscribe: env.WatchSession(),
		Home:        view.NewHomeView(env),
		ItemDetail:  view.NewItemDetailView(env),
		CreateItem:  view.NewCreateItemView(env),
		Auth:        view.NewAuthView(env),
		Profile:     view.NewProfileView(env),
		Messages:    view.NewMessagesView(env),
		lastSeen:    time.Now(),
	}
	return w, nil
}

// Env は画面ロジックの構成要素を返す。
func (w *Workspace) Env() *view.Env {
	return w.env
}

// Layout は共通枠の表示モデルを返す。溜まった通知はここで取り出される。
func (w *Workspace) Layout() *view.Layout {
	return view.NewLayout(w.env)
}

// Session はセッションストアを返す。
func (w *Workspace) Session() *session.Store {
	return w.env.Session
}

// Nav はナビゲーターを返す。
func (w *Workspace) Nav() *view.Navigator {
	return w.env.Nav
}

// Notify は通知キューを返す。
func (w *Workspace) Notify() *view.Notifier {
	return w.env.Notify
}

// Lock はワークスペースを1リクエストで占有する。
// ブラウザのタブと同じく、画面の処理はワークスペースごとに逐次実行される。
func (w *Workspace) Lock() {
	w.reqMu.Lock()
}

// Unlock はLockで得た占有を解放する。
func (w *Workspace) Unlock() {
	w.reqMu.Unlock()
}

// Touch は最終アクセス時刻を更新する。
func (w *Workspace) Touch(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = now
}

// LastSeen は最終アクセス時刻を返す。
func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// Close はセッションの購読を解除し、キャッシュを破棄する。
// 永続ストレージの内容は残るため、同じIDで再び開けばセッションが復元される。
func (w *Workspace) Close() {
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
	w.env.Cache.Clear()
}

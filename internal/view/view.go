// Package view は各画面のロジック（キャッシュキーの導出、読み込み、表示モデルの構築、操作）を提供する。
// 描画はhandlerパッケージのテンプレートが担い、ここではHTMLを扱わない。
package view

import (
	"log/slog"

	"github.com/hitoshi/sharehub/internal/querycache"
	"github.com/hitoshi/sharehub/internal/service"
	"github.com/hitoshi/sharehub/internal/session"
	"github.com/hitoshi/sharehub/internal/store"
)

// Env は画面ロジックが利用するワークスペースの構成要素。
type Env struct {
	Session  *session.Store
	Services *service.Services
	Cache    *querycache.Cache
	Items    *store.ItemStore
	Messages *store.MessageStore
	Nav      *Navigator
	Notify   *Notifier
	Logger   *slog.Logger
}

// WatchSession はセッションの破棄を購読し、キャッシュとドメインストアを空にしてログイン画面へ移動する。
// 返り値は購読の解除関数。
func (e *Env) WatchSession() func() {
	return e.Session.Subscribe(func(ev session.Event) {
		if ev.To != session.Anonymous {
			return
		}
		e.Cache.Clear()
		e.Items.Reset()
		e.Messages.Reset()
		if ev.Reason == session.ReasonUnauthorized && ev.From == session.Authenticated {
			e.Notify.Warning("登录已过期，请重新登录")
		}
		e.Nav.Navigate(RouteLogin)
	})
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// キャッシュキーの先頭要素
const (
	keyItems         = "items"
	keyItem          = "item"
	keyCategories    = "categories"
	keyFavorites     = "favorites"
	keyProfile       = "profile"
	keyUserFavorites = "user-favorites"
	keyFollowStats   = "follow-stats"
)

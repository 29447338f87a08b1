// Package querycache はキー単位のリードスルーキャッシュを提供する。
// 同一キーへの同時読み取りは1回のフェッチに集約され、無効化と楽観的なローカル更新を備える。
package querycache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/sharehub/internal/metrics"
)

// DefaultStaleTime はエントリが新鮮とみなされる期間のデフォルト値。
const DefaultStaleTime = 30 * time.Second

// Fetcher はキャッシュミス時に呼ばれる取得関数。
type Fetcher[T any] func(ctx context.Context) (T, error)

// State はキーごとのキャッシュ状態のスナップショット。
type State struct {
	Key       Key
	Data      any
	HasData   bool
	Err       error
	UpdatedAt time.Time
	Stale     bool
	Fetching  bool
}

type call struct {
	done    chan struct{}
	val     any
	err     error
	waiters int
	cancel  context.CancelFunc
}

type entry struct {
	key         Key
	data        any
	hasData     bool
	err         error
	updatedAt   time.Time
	invalidated bool
	call        *call
}

// Cache はワークスペース1つ分のクエリキャッシュ。
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	staleTime time.Duration
	now       func() time.Time
	metrics   metrics.MetricsCollector

	subMu  sync.Mutex
	subs   map[string]map[int]func(State)
	nextID int
}

// Option はCacheの設定を変更する。
type Option func(*Cache)

// WithStaleTime は新鮮とみなす期間を指定する。0以下なら常に再取得する。
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) { c.staleTime = d }
}

// WithMetrics はメトリクスコレクタを指定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(c *Cache) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithClock は現在時刻の取得関数を差し替える（テスト用）。
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New はCacheの新しいインスタンスを生成する。
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:   make(map[string]*entry),
		staleTime: DefaultStaleTime,
		now:       time.Now,
		metrics:   metrics.Nop{},
		subs:      make(map[string]map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read はキーの値を返す。新鮮なエントリがあればそれを返し、
// なければ進行中のフェッチに合流するか新しくフェッチを開始する。
// フェッチは呼び出し元から切り離したコンテキストで実行され、全員が待機をやめた時点でキャンセルされる。
func Read[T any](ctx context.Context, c *Cache, key Key, fetch Fetcher[T]) (T, error) {
	var zero T
	v, err := c.read(ctx, key, func(fctx context.Context) (any, error) {
		return fetch(fctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("キー %s のキャッシュ値の型が一致しません: %T", key, v)
	}
	return t, nil
}

func (c *Cache) read(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (any, error) {
	k := key.id()

	c.mu.Lock()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{key: append(Key(nil), key...)}
		c.entries[k] = e
	}
	if c.fresh(e) {
		data := e.data
		c.mu.Unlock()
		c.metrics.RecordCacheRead(metrics.CacheHit)
		return data, nil
	}

	cl := e.call
	if cl != nil {
		cl.waiters++
		c.mu.Unlock()
		c.metrics.RecordCacheRead(metrics.CacheShared)
	} else {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		cl = &call{done: make(chan struct{}), waiters: 1, cancel: cancel}
		e.call = cl
		state := e.state(c)
		c.mu.Unlock()
		c.metrics.RecordCacheRead(metrics.CacheMiss)
		c.notify(k, state)
		go c.run(fctx, k, e, cl, fetch)
	}

	select {
	case <-cl.done:
		return cl.val, cl.err
	case <-ctx.Done():
		c.leave(e, cl)
		return nil, ctx.Err()
	}
}

// leave は待機をやめた呼び出し元を数え、誰も待っていなければフェッチをキャンセルする。
func (c *Cache) leave(e *entry, cl *call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl.waiters--
	if cl.waiters > 0 {
		return
	}
	cl.cancel()
	if e.call == cl {
		e.call = nil
	}
}

func (c *Cache) run(ctx context.Context, k string, e *entry, cl *call, fetch func(context.Context) (any, error)) {
	v, err := fetch(ctx)
	cl.cancel()

	c.mu.Lock()
	cl.val, cl.err = v, err
	// 無効化やキャンセルで切り離されたフェッチの結果は格納しない
	attached := c.entries[k] == e && e.call == cl
	var state State
	if attached {
		e.call = nil
		if err == nil {
			e.data = v
			e.hasData = true
			e.err = nil
			e.updatedAt = c.now()
			e.invalidated = false
		} else {
			e.err = err
		}
		state = e.state(c)
	}
	c.mu.Unlock()

	if attached {
		c.notify(k, state)
	}
	close(cl.done)
}

func (c *Cache) fresh(e *entry) bool {
	if !e.hasData || e.invalidated {
		return false
	}
	return c.now().Sub(e.updatedAt) < c.staleTime
}

func (e *entry) state(c *Cache) State {
	return State{
		Key:       e.key,
		Data:      e.data,
		HasData:   e.hasData,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     !c.fresh(e),
		Fetching:  e.call != nil,
	}
}

// Invalidate はprefixに前方一致するエントリを古いものとし、進行中のフェッチを切り離す。
// 次の読み取りは必ず新しくフェッチする。無効化したエントリ数を返す。
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	var ids []string
	var states []State
	for k, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.invalidated = true
		// 切り離したフェッチは既存の待機者にだけ結果を返す
		e.call = nil
		ids = append(ids, k)
		states = append(states, e.state(c))
	}
	c.mu.Unlock()

	for i, k := range ids {
		c.notify(k, states[i])
	}
	return len(ids)
}

// Write はネットワークを介さずにキャッシュ値を更新する。
// updaterは受け取った値を変更せず新しい値を返すこと。
// 値が未格納または型が異なる場合は何もせずfalseを返す。
func Write[T any](c *Cache, key Key, updater func(T) T) bool {
	k := key.id()

	c.mu.Lock()
	e, ok := c.entries[k]
	if !ok || !e.hasData {
		c.mu.Unlock()
		return false
	}
	cur, ok := e.data.(T)
	if !ok {
		c.mu.Unlock()
		return false
	}
	e.data = updater(cur)
	state := e.state(c)
	c.mu.Unlock()

	c.notify(k, state)
	return true
}

// Peek はフェッチせずにキャッシュ値を返す。
func Peek[T any](c *Cache, key Key) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok || !e.hasData {
		return zero, false
	}
	t, ok := e.data.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Snapshot はキーの状態を返す。
func (c *Cache) Snapshot(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok {
		return State{Key: key, Stale: true}
	}
	return e.state(c)
}

// Clear はすべてのエントリを破棄する。進行中のフェッチは切り離される。
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Len は保持しているエントリ数を返す。
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Subscribe はキーの状態変化の購読を登録し、解除関数を返す。
func (c *Cache) Subscribe(key Key, fn func(State)) func() {
	k := key.id()
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	if c.subs[k] == nil {
		c.subs[k] = make(map[int]func(State))
	}
	c.subs[k][id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs[k], id)
		if len(c.subs[k]) == 0 {
			delete(c.subs, k)
		}
		c.subMu.Unlock()
	}
}

func (c *Cache) notify(k string, state State) {
	c.subMu.Lock()
	fns := make([]func(State), 0, len(c.subs[k]))
	for _, fn := range c.subs[k] {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry はクライアントIDごとのワークスペースを保持する。
// 一定時間アクセスのないワークスペースはEvictIdleで破棄される。
type Registry struct {
	opts Options
	now  func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry はRegistryを生成する。
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:       opts,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// NewID は新しいクライアントIDを発行する。
func NewID() string {
	return uuid.NewString()
}

// ValidID はクライアントIDとして受け付ける形式かを返す。
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get はIDのワークスペースを返す。なければoriginでAPIのベースURLを解決して生成する。
func (r *Registry) Get(ctx context.Context, id, origin string) (*Workspace, error) {
	r.mu.Lock()
	w, ok := r.workspaces[id]
	r.mu.Unlock()
	if ok {
		w.Touch(r.now())
		return w, nil
	}

	baseURL, err := ResolveBaseURL(r.opts.APIURL, origin)
	if err != nil {
		return nil, err
	}
	created, err := New(ctx, id, baseURL, r.opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	// 並行して生成された場合は先に登録された方を使う
	if w, ok := r.workspaces[id]; ok {
		r.mu.Unlock()
		created.Close()
		w.Touch(r.now())
		return w, nil
	}
	created.Touch(r.now())
	r.workspaces[id] = created
	r.mu.Unlock()

	r.opts.logger().Debug("ワークスペースを生成しました", "client_id", id, "base_url", created.BaseURL)
	return created, nil
}

// Lookup は生成せずにワークスペースを返す。
func (r *Registry) Lookup(id string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workspaces[id]
	return w, ok
}

// Len は保持しているワークスペース数を返す。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// EvictIdle は最終アクセスからidleTTL以上経過したワークスペースを破棄し、破棄した数を返す。
func (r *Registry) EvictIdle(_ context.Context, idleTTL time.Duration) (int, error) {
	cutoff := r.now().Add(-idleTTL)

	r.mu.Lock()
	var idle []*Workspace
	for id, w := range r.workspaces {
		if w.LastSeen().Before(cutoff) {
			idle = append(idle, w)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	for _, w := range idle {
		w.Close()
	}
	return len(idle), nil
}

// Close はすべてのワークスペースを破棄する。
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()

	for _, w := range all {
		w.Close()
	}
}

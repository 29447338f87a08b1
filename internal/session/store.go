// Package session はワークスペースのログイン状態（匿名/認証済み）を管理する。
// トークンとユーザーは永続ストレージを唯一の正とし、状態遷移は購読者へ通知される。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/sharehub/internal/model"
	"github.com/hitoshi/sharehub/internal/storage"
)

// State はセッションの状態を表す。
type State int

const (
	// Anonymous は未ログイン状態。
	Anonymous State = iota
	// Authenticated はログイン済み状態。
	Authenticated
)

// String は状態名を返す。
func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Reason は状態遷移の理由を表す。
type Reason string

const (
	ReasonLogin        Reason = "login"
	ReasonRestore      Reason = "restore"
	ReasonUpdate       Reason = "update"
	ReasonLogout       Reason = "logout"
	ReasonUnauthorized Reason = "unauthorized"
)

// Event は購読者に通知される状態遷移。
type Event struct {
	From   State
	To     State
	Reason Reason
}

// ErrNotAuthenticated は未ログイン状態でユーザー更新を行った場合のエラー。
var ErrNotAuthenticated = errors.New("ログインしていません")

// Store はワークスペース1つ分のセッションストア。
// 不変条件: state == Authenticated ⇔ user != nil
type Store struct {
	mu          sync.Mutex
	storage     storage.Storage
	logger      *slog.Logger
	state       State
	user        *model.User
	initialized bool

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// New はStoreの新しいインスタンスを生成する。
func New(st storage.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		storage: st,
		logger:  logger,
		subs:    make(map[int]func(Event)),
	}
}

// Initialize は永続ストレージからセッションを一度だけ復元する。
// tokenとuserが揃い、userが有効なレコードにデコードできた場合のみ認証済みとする。
// デコードに失敗した場合は両方のキーを削除して匿名状態にする。
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true

	token, hasToken, err := s.storage.Get(ctx, storage.KeyToken)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("トークンの読み込みに失敗しました: %w", err)
	}
	raw, hasUser, err := s.storage.Get(ctx, storage.KeyUser)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("ユーザー情報の読み込みに失敗しました: %w", err)
	}

	if !hasToken || token == "" || !hasUser {
		s.mu.Unlock()
		return nil
	}

	var user *model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user == nil {
		s.logger.Warn("保存されたユーザー情報を復元できないためセッションを破棄します",
			slog.Any("error", err),
		)
		removeErr := s.storage.Remove(ctx, storage.KeyToken, storage.KeyUser)
		s.mu.Unlock()
		if removeErr != nil {
			return fmt.Errorf("破損したセッションの削除に失敗しました: %w", removeErr)
		}
		return nil
	}

	from := s.state
	s.state = Authenticated
	s.user = user
	s.mu.Unlock()

	s.publish(Event{From: from, To: Authenticated, Reason: ReasonRestore})
	return nil
}

// Login はトークンとユーザーを永続化して認証済み状態へ遷移する。
func (s *Store) Login(ctx context.Context, token string, user *model.User) error {
	if token == "" || user == nil {
		return errors.New("トークンとユーザーは必須です")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("ユーザー情報のエンコードに失敗しました: %w", err)
	}

	s.mu.Lock()
	if err := s.storage.Set(ctx, storage.KeyToken, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("トークンの保存に失敗しました: %w", err)
	}
	if err := s.storage.Set(ctx, storage.KeyUser, string(data)); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("ユーザー情報の保存に失敗しました: %w", err)
	}
	from := s.state
	s.state = Authenticated
	s.user = cloneUser(user)
	s.initialized = true
	s.mu.Unlock()

	s.publish(Event{From: from, To: Authenticated, Reason: ReasonLogin})
	return nil
}

// SetCurrentUser は保存済みのユーザー情報を差し替える（プロフィール編集後など）。
func (s *Store) SetCurrentUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("ユーザーは必須です")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("ユーザー情報のエンコードに失敗しました: %w", err)
	}

	s.mu.Lock()
	if s.state != Authenticated {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	if err := s.storage.Set(ctx, storage.KeyUser, string(data)); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("ユーザー情報の保存に失敗しました: %w", err)
	}
	s.user = cloneUser(user)
	s.mu.Unlock()

	s.publish(Event{From: Authenticated, To: Authenticated, Reason: ReasonUpdate})
	return nil
}

// Logout はトークンとユーザーを削除して匿名状態へ遷移する。
func (s *Store) Logout(ctx context.Context) error {
	return s.clear(ctx, ReasonLogout)
}

// Invalidate は401応答を受けた際のセッション破棄。
// 既に匿名状態でも購読者には必ず通知する（ログイン画面への遷移のため）。
func (s *Store) Invalidate(ctx context.Context) error {
	return s.clear(ctx, ReasonUnauthorized)
}

func (s *Store) clear(ctx context.Context, reason Reason) error {
	s.mu.Lock()
	err := s.storage.Remove(ctx, storage.KeyToken, storage.KeyUser)
	from := s.state
	s.state = Anonymous
	s.user = nil
	s.initialized = true
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("セッションの削除に失敗しました",
			slog.String("reason", string(reason)),
			slog.String("error", err.Error()),
		)
	}
	s.publish(Event{From: from, To: Anonymous, Reason: reason})
	if err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}
	return nil
}

// Token は永続ストレージから現在のトークンを読む。未保存なら空文字を返す。
func (s *Store) Token(ctx context.Context) (string, error) {
	token, ok, err := s.storage.Get(ctx, storage.KeyToken)
	if err != nil {
		return "", fmt.Errorf("トークンの読み込みに失敗しました: %w", err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// CurrentUser は現在のユーザーのコピーを返す。匿名状態ではnil。
func (s *Store) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.user)
}

// IsAuthenticated はログイン済みかどうかを返す。
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Authenticated
}

// State は現在の状態を返す。
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe は状態遷移の購読を登録し、解除関数を返す。
// コールバックはロック外で呼ばれるため、Storeのメソッドを呼び出してよい。
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Package store はドメインストア（物品ストアとメッセージストア）を提供する。
// 状態遷移は純粋なリデューサ関数で表し、ストアはそれをミューテックスで保護して適用する。
// クエリキャッシュとは独立しており、両者の鮮度は同期しない。
package store

import (
	"slices"
	"sync"

	"github.com/hitoshi/sharehub/internal/model"
)

// Pagination は一覧のページ情報。
type Pagination struct {
	Page       int
	Size       int
	Total      int64
	TotalPages int
}

// DefaultPagination はページ情報の初期値。
var DefaultPagination = Pagination{Page: 0, Size: 20, Total: 0, TotalPages: 0}

// ItemState は物品ストアの状態。
type ItemState struct {
	Items      []model.Item
	Current    *model.Item
	Loading    bool
	Err        string
	Pagination Pagination
}

// NewItemState は初期状態を返す。
func NewItemState() ItemState {
	return ItemState{Pagination: DefaultPagination}
}

// ItemSetLoading は読み込み中フラグを設定する。
func ItemSetLoading(s ItemState, loading bool) ItemState {
	s.Loading = loading
	return s
}

// ItemSetItems は一覧を置き換え、読み込み中とエラーを解除する。
func ItemSetItems(s ItemState, items []model.Item) ItemState {
	s.Items = slices.Clone(items)
	s.Loading = false
	s.Err = ""
	return s
}

// ItemSetCurrent は詳細表示中の物品を設定する。nilで解除。
func ItemSetCurrent(s ItemState, item *model.Item) ItemState {
	s.Current = cloneItem(item)
	s.Loading = false
	s.Err = ""
	return s
}

// ItemAdd は物品を一覧の先頭に追加する。
func ItemAdd(s ItemState, item model.Item) ItemState {
	s.Items = append([]model.Item{item}, s.Items...)
	return s
}

// ItemUpdate は同じIDの物品を置き換える。該当がなければ一覧は変化しない。
func ItemUpdate(s ItemState, item model.Item) ItemState {
	if i := slices.IndexFunc(s.Items, func(it model.Item) bool { return it.ID == item.ID }); i >= 0 {
		s.Items = slices.Clone(s.Items)
		s.Items[i] = item
	}
	if s.Current != nil && s.Current.ID == item.ID {
		s.Current = cloneItem(&item)
	}
	return s
}

// ItemRemove は指定IDの物品を取り除く。
func ItemRemove(s ItemState, itemID int64) ItemState {
	s.Items = slices.DeleteFunc(slices.Clone(s.Items), func(it model.Item) bool { return it.ID == itemID })
	if s.Current != nil && s.Current.ID == itemID {
		s.Current = nil
	}
	return s
}

// ItemSetPagination はページ情報を設定する。
func ItemSetPagination(s ItemState, p Pagination) ItemState {
	s.Pagination = p
	return s
}

// ItemSetError はエラーを設定し、読み込み中を解除する。
func ItemSetError(s ItemState, msg string) ItemState {
	s.Err = msg
	s.Loading = false
	return s
}

// ItemClearError はエラーを解除する。
func ItemClearError(s ItemState) ItemState {
	s.Err = ""
	return s
}

// ItemStore は物品ストア。
type ItemStore struct {
	mu    sync.RWMutex
	state ItemState
}

// NewItemStore は初期状態のItemStoreを生成する。
func NewItemStore() *ItemStore {
	return &ItemStore{state: NewItemState()}
}

// State は現在の状態のコピーを返す。
func (s *ItemStore) State() ItemState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Items = slices.Clone(st.Items)
	st.Current = cloneItem(st.Current)
	return st
}

func (s *ItemStore) apply(fn func(ItemState) ItemState) {
	s.mu.Lock()
	s.state = fn(s.state)
	s.mu.Unlock()
}

// SetLoading は読み込み中フラグを設定する。
func (s *ItemStore) SetLoading(loading bool) {
	s.apply(func(st ItemState) ItemState { return ItemSetLoading(st, loading) })
}

// SetItems は一覧を置き換える。
func (s *ItemStore) SetItems(items []model.Item) {
	s.apply(func(st ItemState) ItemState { return ItemSetItems(st, items) })
}

// SetCurrent は表示中の物品を設定する。
func (s *ItemStore) SetCurrent(item *model.Item) {
	s.apply(func(st ItemState) ItemState { return ItemSetCurrent(st, item) })
}

// Add は物品を先頭に追加する。
func (s *ItemStore) Add(item model.Item) {
	s.apply(func(st ItemState) ItemState { return ItemAdd(st, item) })
}

// Update は同じIDの物品を置き換える。
func (s *ItemStore) Update(item model.Item) {
	s.apply(func(st ItemState) ItemState { return ItemUpdate(st, item) })
}

// Remove は指定IDの物品を一覧から外す。
func (s *ItemStore) Remove(itemID int64) {
	s.apply(func(st ItemState) ItemState { return ItemRemove(st, itemID) })
}

// SetPagination はページ情報を設定する。
func (s *ItemStore) SetPagination(p Pagination) {
	s.apply(func(st ItemState) ItemState { return ItemSetPagination(st, p) })
}

// SetError はエラーを設定する。
func (s *ItemStore) SetError(msg string) {
	s.apply(func(st ItemState) ItemState { return ItemSetError(st, msg) })
}

// ClearError はエラーを解除する。
func (s *ItemStore) ClearError() {
	s.apply(ItemClearError)
}

// Reset は初期状態に戻す（ログアウト時）。
func (s *ItemStore) Reset() {
	s.apply(func(ItemState) ItemState { return NewItemState() })
}

func cloneItem(it *model.Item) *model.Item {
	if it == nil {
		return nil
	}
	c := *it
	return &c
}

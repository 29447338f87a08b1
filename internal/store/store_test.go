package store

import (
	"sync"
	"testing"

	"github.com/hitoshi/sharehub/internal/model"
)

func TestNewItemState_DefaultPagination(t *testing.T) {
	s := NewItemState()
	if s.Pagination != (Pagination{Page: 0, Size: 20, Total: 0, TotalPages: 0}) {
		t.Errorf("初期ページ情報 = %+v", s.Pagination)
	}
	if len(s.Items) != 0 || s.Current != nil || s.Loading || s.Err != "" {
		t.Errorf("初期状態 = %+v", s)
	}
}

func TestItemAdd_Prepends(t *testing.T) {
	s := ItemSetItems(NewItemState(), []model.Item{{ID: 1}, {ID: 2}})
	s = ItemAdd(s, model.Item{ID: 3})
	if len(s.Items) != 3 || s.Items[0].ID != 3 {
		t.Errorf("先頭に追加されるべき: %+v", s.Items)
	}
}

func TestItemSetItems_ClearsLoadingAndError(t *testing.T) {
	s := ItemSetError(ItemSetLoading(NewItemState(), true), "boom")
	s = ItemSetLoading(s, true)
	s = ItemSetItems(s, []model.Item{{ID: 1}})
	if s.Loading || s.Err != "" {
		t.Errorf("SetItems後は読み込み中とエラーが解除されるべき: %+v", s)
	}
}

func TestItemUpdate_ReplacesListAndCurrent(t *testing.T) {
	s := ItemSetItems(NewItemState(), []model.Item{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}})
	s = ItemSetCurrent(s, &model.Item{ID: 2, Title: "b"})

	s = ItemUpdate(s, model.Item{ID: 2, Title: "B"})
	if s.Items[1].Title != "B" || s.Current.Title != "B" {
		t.Errorf("一覧と詳細の両方が更新されるべき: %+v %+v", s.Items, s.Current)
	}

	before := s
	s = ItemUpdate(s, model.Item{ID: 99, Title: "none"})
	if len(s.Items) != len(before.Items) || s.Items[0].Title != "a" {
		t.Error("該当がない場合は何もしないべき")
	}
}

func TestItemUpdate_DoesNotMutatePreviousState(t *testing.T) {
	prev := ItemSetItems(NewItemState(), []model.Item{{ID: 1, Title: "a"}})
	_ = ItemUpdate(prev, model.Item{ID: 1, Title: "changed"})
	if prev.Items[0].Title != "a" {
		t.Error("リデューサは元の状態を変更してはならない")
	}
}

func TestItemRemove_ClearsCurrent(t *testing.T) {
	s := ItemSetItems(NewItemState(), []model.Item{{ID: 1}, {ID: 2}})
	s = ItemSetCurrent(s, &model.Item{ID: 1})
	s = ItemRemove(s, 1)
	if len(s.Items) != 1 || s.Items[0].ID != 2 {
		t.Errorf("一覧から取り除かれるべき: %+v", s.Items)
	}
	if s.Current != nil {
		t.Error("詳細表示中の物品も解除されるべき")
	}

	s = ItemRemove(s, 42)
	if len(s.Items) != 1 {
		t.Error("該当がない場合は何もしないべき")
	}
}

func TestItemSetPaginationAndClearError(t *testing.T) {
	s := ItemSetPagination(NewItemState(), Pagination{Page: 2, Size: 12, Total: 30, TotalPages: 3})
	if s.Pagination.TotalPages != 3 {
		t.Errorf("ページ情報 = %+v", s.Pagination)
	}
	s = ItemClearError(ItemSetError(s, "x"))
	if s.Err != "" {
		t.Error("ClearError後はエラーが空であるべき")
	}
}

func TestItemStore_StateReturnsCopy(t *testing.T) {
	st := NewItemStore()
	st.SetItems([]model.Item{{ID: 1, Title: "a"}})
	st.SetCurrent(&model.Item{ID: 1, Title: "a"})

	snap := st.State()
	snap.Items[0].Title = "mutated"
	snap.Current.Title = "mutated"

	if st.State().Items[0].Title != "a" || st.State().Current.Title != "a" {
		t.Error("State はコピーを返すべき")
	}

	st.Reset()
	if len(st.State().Items) != 0 {
		t.Error("Reset後は空であるべき")
	}
}

func TestItemStore_ConcurrentAdds(t *testing.T) {
	st := NewItemStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st.Add(model.Item{ID: int64(i)})
		}(i)
	}
	wg.Wait()
	if n := len(st.State().Items); n != 50 {
		t.Errorf("件数 = %d, want 50", n)
	}
}

func TestMessageAdd_AppendsAndCountsUnread(t *testing.T) {
	s := MessageAdd(MessageState{}, model.Message{ID: 1, IsRead: 0})
	s = MessageAdd(s, model.Message{ID: 2, IsRead: 1})
	if len(s.Messages) != 2 || s.Messages[1].ID != 2 {
		t.Errorf("末尾に追加されるべき: %+v", s.Messages)
	}
	if s.UnreadCount != 1 {
		t.Errorf("未読数 = %d, want 1", s.UnreadCount)
	}
}

func TestMessageMarkAsRead_FloorsAtZero(t *testing.T) {
	s := MessageSetMessages(MessageState{}, []model.Message{{ID: 1, IsRead: 0}, {ID: 2, IsRead: 0}})
	s = MessageSetUnreadCount(s, 0)

	s = MessageMarkAsRead(s, 1)
	if !s.Messages[0].Read() {
		t.Error("メッセージが既読になるべき")
	}
	if s.UnreadCount != 0 {
		t.Errorf("未読数は0未満にならないべき: %d", s.UnreadCount)
	}

	s = MessageSetUnreadCount(s, 5)
	s = MessageMarkAsRead(s, 1) // 既読のものは数えない
	if s.UnreadCount != 5 {
		t.Errorf("既読メッセージでは未読数を変えないべき: %d", s.UnreadCount)
	}
	s = MessageMarkAsRead(s, 2)
	if s.UnreadCount != 4 {
		t.Errorf("未読数 = %d, want 4", s.UnreadCount)
	}
	s = MessageMarkAsRead(s, 99)
	if s.UnreadCount != 4 {
		t.Error("該当がない場合は何もしないべき")
	}
}

func TestMessageMarkAllAsRead(t *testing.T) {
	s := MessageSetMessages(MessageState{}, []model.Message{{ID: 1}, {ID: 2}})
	s = MessageSetUnreadCount(s, 2)
	prev := s

	s = MessageMarkAllAsRead(s)
	for _, m := range s.Messages {
		if !m.Read() {
			t.Errorf("メッセージ %d が未読のまま", m.ID)
		}
	}
	if s.UnreadCount != 0 {
		t.Errorf("未読数 = %d, want 0", s.UnreadCount)
	}
	if prev.Messages[0].Read() {
		t.Error("リデューサは元の状態を変更してはならない")
	}
}

func TestMessageStore_ConversationAndErrors(t *testing.T) {
	st := NewMessageStore()
	st.SetLoading(true)
	st.SetError("加载失败")
	if s := st.State(); s.Loading || s.Err != "加载失败" {
		t.Errorf("SetError後の状態 = %+v", s)
	}
	st.ClearError()
	st.SetConversation([]model.Message{{ID: 3}})
	st.Add(model.Message{ID: 4})
	st.MarkAsRead(4)
	st.MarkAllAsRead()

	s := st.State()
	if s.Err != "" || len(s.Conversation) != 1 || len(s.Messages) != 1 || s.UnreadCount != 0 {
		t.Errorf("状態 = %+v", s)
	}

	st.Reset()
	if len(st.State().Messages) != 0 {
		t.Error("Reset後は空であるべき")
	}
}

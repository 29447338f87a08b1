package view

import "sync"

// Level は通知の種類。
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notice は画面上部に一時的に表示する通知。
type Notice struct {
	Level Level
	Text  string
}

// maxNotices は保持する通知の上限。古いものから捨てる。
const maxNotices = 20

// Notifier は次の画面描画で表示する通知を溜めるキュー。
type Notifier struct {
	mu      sync.Mutex
	notices []Notice
}

// NewNotifier はNotifierを生成する。
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Push は通知を追加する。
func (n *Notifier) Push(level Level, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{Level: level, Text: text})
	if len(n.notices) > maxNotices {
		n.notices = n.notices[len(n.notices)-maxNotices:]
	}
}

func (n *Notifier) Success(text string) { n.Push(LevelSuccess, text) }
func (n *Notifier) Error(text string)   { n.Push(LevelError, text) }
func (n *Notifier) Warning(text string) { n.Push(LevelWarning, text) }

// Drain は溜まった通知をすべて取り出す。
func (n *Notifier) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.notices
	n.notices = nil
	return out
}

// Peek は取り出さずに通知の一覧を返す。
func (n *Notifier) Peek() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

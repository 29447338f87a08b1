package querycache

import (
	"fmt"
	"strings"
)

// Key はクエリキャッシュのキー。順序付きの要素列で、前方一致は要素単位で判定する。
type Key []string

// NewKey は各要素を文字列化してKeyを生成する。nilは空文字として扱う。
func NewKey(parts ...any) Key {
	k := make(Key, len(parts))
	for i, p := range parts {
		if p == nil {
			continue
		}
		k[i] = fmt.Sprint(p)
	}
	return k
}

// HasPrefix はkがprefixで始まるかを要素単位で判定する。
// "items" は "item" の前方一致にはならない。
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// String は表示用の文字列を返す。
func (k Key) String() string {
	return "[" + strings.Join(k, ",") + "]"
}

// id はマップ用の内部識別子を返す。
func (k Key) id() string {
	return strings.Join(k, "\x00")
}

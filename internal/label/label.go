// Package label は物品の分類・新旧程度・状態の表示ラベル表を提供する。
// 各対応は1つの双方向表で持ち、解決できないラベルは明示的なエラーにする。
package label

import (
	"github.com/hitoshi/sharehub/internal/model"
)

// Unknown は未知のコードに対する表示ラベル。
const Unknown = "未知"

// フォームの既定値
const (
	DefaultCategoryName  = "其他"
	DefaultConditionName = "九成新"
)

// entry は表の1行。
type entry struct {
	code int
	name string
}

// Table はコードと表示名の双方向表。行の順序を保持する。
type Table struct {
	rows   []entry
	byCode map[int]string
	byName map[string]int
}

func newTable(rows ...entry) *Table {
	t := &Table{
		rows:   rows,
		byCode: make(map[int]string, len(rows)),
		byName: make(map[string]int, len(rows)),
	}
	for _, r := range rows {
		t.byCode[r.code] = r.name
		t.byName[r.name] = r.code
	}
	return t
}

// Name はコードの表示名を返す。未知のコードは「未知」。
func (t *Table) Name(code int) string {
	if name, ok := t.byCode[code]; ok {
		return name
	}
	return Unknown
}

// Code は表示名のコードを返す。
func (t *Table) Code(name string) (int, bool) {
	code, ok := t.byName[name]
	return code, ok
}

// Names は表示名を表の順序で返す。
func (t *Table) Names() []string {
	names := make([]string, len(t.rows))
	for i, r := range t.rows {
		names[i] = r.name
	}
	return names
}

var (
	// CardConditions は一覧カードの新旧程度表。
	CardConditions = newTable(
		entry{1, "全新"},
		entry{2, "九成新"},
		entry{3, "八成新"},
		entry{4, "七成新"},
		entry{5, "六成新及以下"},
	)

	// DetailConditions は詳細画面の新旧程度表。
	DetailConditions = newTable(
		entry{1, "全新"},
		entry{2, "几乎全新"},
		entry{3, "轻微使用痕迹"},
		entry{4, "明显使用痕迹"},
		entry{5, "需要维修"},
	)

	// Statuses は物品状態表。
	Statuses = newTable(
		entry{int(model.ItemStatusPending), "待审核"},
		entry{int(model.ItemStatusApproved), "在售"},
		entry{int(model.ItemStatusRejected), "审核拒绝"},
		entry{int(model.ItemStatusOffline), "已下架"},
	)

	// Categories は分類名とIDの表。
	Categories = newTable(
		entry{1, "电子产品"},
		entry{2, "服装配饰"},
		entry{3, "家居用品"},
		entry{4, "图书文具"},
		entry{5, "运动器材"},
		entry{6, "其他"},
	)

	// FormConditions は出品フォームの新旧程度表。
	FormConditions = newTable(
		entry{1, "全新"},
		entry{2, "九成新"},
		entry{3, "八成新"},
		entry{4, "七成新"},
		entry{5, "六成新"},
		entry{6, "五成新及以下"},
	)
)

// CategoryID は分類名からIDを解決する。空文字は既定値「其他」として扱う。
func CategoryID(name string) (int64, error) {
	if name == "" {
		name = DefaultCategoryName
	}
	code, ok := Categories.Code(name)
	if !ok {
		return 0, model.NewUnknownCategoryError(name)
	}
	return int64(code), nil
}

// CategoryName は分類IDの表示名を返す。
func CategoryName(id int64) string {
	return Categories.Name(int(id))
}

// ConditionCode は出品フォームの新旧程度名からコードを解決する。空文字は既定値「九成新」として扱う。
func ConditionCode(name string) (int, error) {
	if name == "" {
		name = DefaultConditionName
	}
	code, ok := FormConditions.Code(name)
	if !ok {
		return 0, model.NewUnknownConditionError(name)
	}
	return code, nil
}

// CardCondition は一覧カード用の新旧程度ラベルを返す。
func CardCondition(code int) string {
	return CardConditions.Name(code)
}

// DetailCondition は詳細画面用の新旧程度ラベルを返す。
func DetailCondition(code int) string {
	return DetailConditions.Name(code)
}

// Status は物品状態のラベルを返す。
func Status(code int) string {
	return Statuses.Name(code)
}

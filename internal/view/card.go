package view

import (
	"strconv"

	"github.com/hitoshi/sharehub/internal/label"
	"github.com/hitoshi/sharehub/internal/model"
)

// FormatPrice は物品の価格表示を返す。無料の物品は「免费」。
func FormatPrice(item model.Item) string {
	if item.IsFree == 1 {
		return "免费"
	}
	return "¥" + strconv.FormatFloat(item.Price, 'f', -1, 64)
}

// Card は一覧に表示する物品カード。
type Card struct {
	Item      model.Item
	Price     string
	Condition string
	Category  string
	Image     string
	Link      string
}

// NewCard は物品からカードの表示モデルを構築する。
func NewCard(item model.Item) Card {
	c := Card{
		Item:      item,
		Price:     FormatPrice(item),
		Condition: label.CardCondition(item.ConditionType),
		Category:  label.CategoryName(item.CategoryID),
		Link:      ItemRoute(item.ID),
	}
	if item.Category != nil && item.Category.Name != "" {
		c.Category = item.Category.Name
	}
	if len(item.Images) > 0 {
		c.Image = item.Images[0].FilePath
	}
	return c
}

// NewCards は物品の一覧をカードに変換する。
func NewCards(items []model.Item) []Card {
	cards := make([]Card, 0, len(items))
	for _, it := range items {
		cards = append(cards, NewCard(it))
	}
	return cards
}

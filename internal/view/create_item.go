package view

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/hitoshi/sharehub/internal/label"
	"github.com/hitoshi/sharehub/internal/model"
	"github.com/hitoshi/sharehub/internal/querycache"
)

// ItemForm は出品フォームの入力値。価格は空なら無料として扱う。
type ItemForm struct {
	Title         string
	Description   string
	Category      string
	Condition     string
	Price         string
	Location      string
	ContactMethod string
}

// DefaultItemForm はフォームの初期値を返す。
func DefaultItemForm() ItemForm {
	return ItemForm{Category: label.DefaultCategoryName, Condition: label.DefaultConditionName}
}

// ParsePrice は価格の入力を小数2桁に丸めて返す。空は0。
func ParsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, model.NewValidationError("请输入有效的价格")
	}
	if v < 0 {
		return 0, model.NewValidationError("价格不能为负数")
	}
	return math.Round(v*100) / 100, nil
}

// Request はフォームを出品リクエストに変換する。
// 価格が空または0なら無料（isFree=1）、それ以外は有料で原価も同額にする。
func (f ItemForm) Request(userID int64) (model.ItemCreateRequest, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return model.ItemCreateRequest{}, model.NewValidationError("请输入物品标题")
	}
	description := strings.TrimSpace(f.Description)
	if description == "" {
		return model.ItemCreateRequest{}, model.NewValidationError("请输入物品描述")
	}
	categoryID, err := label.CategoryID(f.Category)
	if err != nil {
		return model.ItemCreateRequest{}, err
	}
	condition, err := label.ConditionCode(f.Condition)
	if err != nil {
		return model.ItemCreateRequest{}, err
	}
	price, err := ParsePrice(f.Price)
	if err != nil {
		return model.ItemCreateRequest{}, err
	}

	isFree := 0
	if price == 0 {
		isFree = 1
	}
	return model.ItemCreateRequest{
		Title:         title,
		Description:   description,
		CategoryID:    categoryID,
		ConditionType: condition,
		Price:         price,
		OriginalPrice: price,
		IsFree:        isFree,
		ContactMethod: strings.TrimSpace(f.ContactMethod),
		Location:      strings.TrimSpace(f.Location),
		UserID:        userID,
	}, nil
}

// CreateItemPage は出品画面の表示モデル。
type CreateItemPage struct {
	Form       ItemForm
	Categories []string
	Conditions []string
	Err        string
}

func newCreateItemPage(form ItemForm) *CreateItemPage {
	return &CreateItemPage{
		Form:       form,
		Categories: label.Categories.Names(),
		Conditions: label.FormConditions.Names(),
	}
}

// CreateItemView は出品画面のロジック。
type CreateItemView struct {
	env *Env
}

// NewCreateItemView はCreateItemViewを生成する。
func NewCreateItemView(env *Env) *CreateItemView {
	return &CreateItemView{env: env}
}

// Load は出品フォームを表示する。未ログインならログイン画面へ移動してnilを返す。
func (v *CreateItemView) Load() *CreateItemPage {
	if !v.env.Session.IsAuthenticated() {
		v.env.Notify.Warning("请先登录后再发布物品")
		v.env.Nav.Navigate(RouteLogin)
		return nil
	}
	v.env.Nav.Visit(RouteCreate)
	return newCreateItemPage(DefaultItemForm())
}

// Submit はフォームを検証して出品する。成功すると一覧へ移動する。
// 入力エラーやバックエンドの失敗はフォームを再表示するための表示モデルで返す。
func (v *CreateItemView) Submit(ctx context.Context, form ItemForm) *CreateItemPage {
	user := v.env.Session.CurrentUser()
	if user == nil {
		v.env.Notify.Error("用户未登录，请先登录")
		v.env.Nav.Navigate(RouteLogin)
		return nil
	}

	page := newCreateItemPage(form)
	req, err := form.Request(user.ID)
	if err != nil {
		page.Err = errorMessage(err, "发布失败，请重试")
		return page
	}

	resp, err := v.env.Services.Items.Create(ctx, req)
	if err != nil {
		v.env.logger().Error("物品の出品に失敗しました", "error", err)
		page.Err = errorMessage(err, "发布失败，请重试")
		v.env.Notify.Error(page.Err)
		return page
	}
	if !resp.Success {
		page.Err = messageOr(resp.Message, "发布失败，请重试")
		v.env.Notify.Error(page.Err)
		return page
	}

	v.env.Cache.Invalidate(querycache.NewKey(keyItems))
	if resp.Data != nil {
		v.env.Items.Add(*resp.Data)
	}
	v.env.Notify.Success("物品发布成功！")
	v.env.Nav.Navigate(RouteHome)
	return nil
}

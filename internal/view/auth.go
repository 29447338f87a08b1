package view

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/sharehub/internal/model"
)

// LoginForm はログインフォームの入力値。
type LoginForm struct {
	Username string
	Password string
}

// Validate はフォームの入力規則を検証する。
func (f LoginForm) Validate() error {
	if err := validateUsername(f.Username, false); err != nil {
		return err
	}
	return validatePassword(f.Password, "请输入密码")
}

// RegisterForm はユーザー登録フォームの入力値。
type RegisterForm struct {
	Username        string
	Email           string
	Nickname        string
	Password        string
	ConfirmPassword string
}

// Validate はフォームの入力規則を検証する。確認用パスワードの一致もここで確かめる。
func (f RegisterForm) Validate() error {
	if err := validateUsername(f.Username, true); err != nil {
		return err
	}
	email := strings.TrimSpace(f.Email)
	if email == "" {
		return model.NewValidationError("请输入邮箱")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.NewValidationError("请输入有效的邮箱地址")
	}
	if err := validatePassword(f.Password, "请输入密码"); err != nil {
		return err
	}
	if err := validatePassword(f.ConfirmPassword, "请确认密码"); err != nil {
		return err
	}
	if f.Password != f.ConfirmPassword {
		return model.NewValidationError("两次输入的密码不一致")
	}
	return nil
}

func validateUsername(username string, register bool) error {
	n := utf8.RuneCountInString(strings.TrimSpace(username))
	switch {
	case n == 0:
		return model.NewValidationError("请输入用户名")
	case n < 3:
		return model.NewValidationError("用户名至少3个字符")
	case register && n > 20:
		return model.NewValidationError("用户名最多20个字符")
	}
	return nil
}

func validatePassword(password, required string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n == 0:
		return model.NewValidationError(required)
	case n < 6:
		return model.NewValidationError("密码至少6个字符")
	}
	return nil
}

// FormPage はログインと登録の画面の表示モデル。パスワードは再表示しない。
type FormPage struct {
	Username string
	Email    string
	Nickname string
	Err      string
}

// AuthView はログインとユーザー登録の画面のロジック。
type AuthView struct {
	env *Env
}

// NewAuthView はAuthViewを生成する。
func NewAuthView(env *Env) *AuthView {
	return &AuthView{env: env}
}

// LoadLogin はログイン画面を表示する。
func (v *AuthView) LoadLogin() *FormPage {
	v.env.Nav.Visit(RouteLogin)
	return &FormPage{}
}

// LoadRegister は登録画面を表示する。
func (v *AuthView) LoadRegister() *FormPage {
	v.env.Nav.Visit(RouteRegister)
	return &FormPage{}
}

// Login は認証してセッションを保存し、一覧へ移動する。
// 失敗時はフォームを再表示するための表示モデルを返し、成功時はnilを返す。
func (v *AuthView) Login(ctx context.Context, form LoginForm) *FormPage {
	page := &FormPage{Username: form.Username}
	if err := form.Validate(); err != nil {
		page.Err = errorMessage(err, "登录失败")
		return page
	}

	resp, err := v.env.Services.Users.Login(ctx, model.LoginRequest{
		Username: strings.TrimSpace(form.Username),
		Password: form.Password,
	})
	if err != nil {
		page.Err = errorMessage(err, "登录失败")
		v.env.Notify.Error(page.Err)
		return page
	}
	if !resp.Success || resp.Data.Token == "" || resp.Data.User == nil {
		page.Err = messageOr(resp.Message, "登录失败")
		v.env.Notify.Error(page.Err)
		return page
	}

	if err := v.env.Session.Login(ctx, resp.Data.Token, resp.Data.User); err != nil {
		v.env.logger().Error("セッションの保存に失敗しました", "error", err)
		page.Err = "登录失败"
		v.env.Notify.Error(page.Err)
		return page
	}
	v.env.Notify.Success("登录成功")
	v.env.Nav.Navigate(RouteHome)
	return nil
}

// Register はユーザーを登録し、ログイン画面へ移動する。
func (v *AuthView) Register(ctx context.Context, form RegisterForm) *FormPage {
	page := &FormPage{Username: form.Username, Email: form.Email, Nickname: form.Nickname}
	if err := form.Validate(); err != nil {
		page.Err = errorMessage(err, "注册失败")
		return page
	}

	resp, err := v.env.Services.Users.Register(ctx, model.RegisterRequest{
		Username:        strings.TrimSpace(form.Username),
		Email:           strings.TrimSpace(form.Email),
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
		Nickname:        strings.TrimSpace(form.Nickname),
	})
	if err != nil {
		page.Err = errorMessage(err, "注册失败")
		v.env.Notify.Error(page.Err)
		return page
	}
	if !resp.Success {
		page.Err = messageOr(resp.Message, "注册失败")
		v.env.Notify.Error(page.Err)
		return page
	}
	v.env.Notify.Success("注册成功，请登录")
	v.env.Nav.Navigate(RouteLogin)
	return nil
}

// Logout はセッションを破棄してログイン画面へ移動する。
func (v *AuthView) Logout(ctx context.Context) error {
	if err := v.env.Session.Logout(ctx); err != nil {
		return err
	}
	v.env.Notify.Success("已退出登录")
	v.env.Nav.Navigate(RouteLogin)
	return nil
}

package service

import (
	"context"
	"io"

	"github.com/hitoshi/sharehub/internal/model"
)

// UserService はユーザー関連エンドポイントのサービス。
type UserService struct {
	api Requester
}

// NewUserService はUserServiceの新しいインスタンスを生成する。
func NewUserService(api Requester) *UserService {
	return &UserService{api: api}
}

// Register はユーザーを登録する。
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.Response[*model.User], error) {
	return post[*model.User](ctx, s.api, "/users/register", req)
}

// Login はログインしてトークンとユーザーを取得する。
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.Response[model.LoginResponse], error) {
	return post[model.LoginResponse](ctx, s.api, "/users/login", req)
}

// Profile はログイン中ユーザーのプロフィールを取得する。
func (s *UserService) Profile(ctx context.Context) (*model.Response[*model.User], error) {
	return get[*model.User](ctx, s.api, "/users/profile")
}

// UpdateProfile はプロフィールを部分更新する。
func (s *UserService) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.Response[*model.User], error) {
	return put[*model.User](ctx, s.api, "/users/profile", update)
}

// List はユーザー一覧を取得する。
func (s *UserService) List(ctx context.Context, page, size int) (*model.Response[[]model.User], error) {
	return get[[]model.User](ctx, s.api, "/users"+pageQuery(page, size))
}

// GetByID はIDでユーザーを取得する。
func (s *UserService) GetByID(ctx context.Context, userID int64) (*model.Response[*model.User], error) {
	return get[*model.User](ctx, s.api, "/users/"+id(userID))
}

// GetByUsername はユーザー名でユーザーを取得する。
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.Response[*model.User], error) {
	return get[*model.User](ctx, s.api, "/users/username/"+pathEscape(username))
}

// GetByEmail はメールアドレスでユーザーを取得する。
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.Response[*model.User], error) {
	return get[*model.User](ctx, s.api, "/users/email/"+pathEscape(email))
}

// ChangePassword はパスワードを変更する。
func (s *UserService) ChangePassword(ctx context.Context, req model.ChangePasswordRequest) (*model.Response[Empty], error) {
	return put[Empty](ctx, s.api, "/users/change-password", req)
}

// UploadAvatar はアバター画像をmultipartのfileパートとしてアップロードする。
func (s *UserService) UploadAvatar(ctx context.Context, filename string, r io.Reader) (*model.Response[model.AvatarUpload], error) {
	var resp model.Response[model.AvatarUpload]
	if err := s.api.PostMultipart(ctx, "/users/upload-avatar", "file", filename, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

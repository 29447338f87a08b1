// Package model はドメインモデルを定義する。
package model

// User はプラットフォームの利用ユーザーを表す。
// バックエンドが所有するレコードのクライアント側コピーであり、古い可能性がある。
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Nickname      string `json:"nickname,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Bio           string `json:"bio,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Location      string `json:"location,omitempty"`
	Status        int    `json:"status"`
	EmailVerified int    `json:"emailVerified"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
	LastLoginAt   string `json:"lastLoginAt,omitempty"`
}

// DisplayName は表示用の名前を返す。ニックネームが未設定の場合はユーザー名を使う。
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// UserStatus はユーザーの状態を表す。
type UserStatus int

const (
	// UserStatusDisabled は無効化されたユーザー。
	UserStatusDisabled UserStatus = 0
	// UserStatusNormal は通常のユーザー。
	UserStatusNormal UserStatus = 1
)

// Follow はフォロー関係（follower → following）を表す。
type Follow struct {
	ID          int64  `json:"id"`
	FollowerID  int64  `json:"followerId"`
	FollowingID int64  `json:"followingId"`
	CreatedAt   string `json:"createdAt"`
}

// LoginRequest はログインリクエストのボディ。
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse はログイン成功時のペイロード。
type LoginResponse struct {
	Token     string `json:"token"`
	User      *User  `json:"user"`
	ExpiresIn int64  `json:"expiresIn,omitempty"`
}

// RegisterRequest はユーザー登録リクエストのボディ。
// confirmPasswordもバックエンドに送信する。
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Nickname        string `json:"nickname,omitempty"`
	Phone           string `json:"phone,omitempty"`
}

// ProfileUpdate はプロフィール更新リクエストのボディ。
// nilフィールドは送信しない部分更新。
type ProfileUpdate struct {
	Nickname *string `json:"nickname,omitempty"`
	Email    *string `json:"email,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Location *string `json:"location,omitempty"`
}

// ChangePasswordRequest はパスワード変更リクエストのボディ。
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// AvatarUpload はアバターアップロードの結果。
type AvatarUpload struct {
	AvatarURL string `json:"avatarUrl"`
}

// FollowStatus はフォロー状態の確認結果。
type FollowStatus struct {
	IsFollowing bool `json:"isFollowing"`
}

// FollowStats はフォロー数・フォロワー数の統計。
type FollowStats struct {
	FollowingCount int64 `json:"followingCount"`
	FollowersCount int64 `json:"followersCount"`
}

// Package service はバックエンドのリソースごとのサービス（ユーザー、物品、分類、お気に入り、フォロー、メッセージ）を提供する。
// 各サービスはHTTPクライアントの動詞を薄くラップし、デコードしたエンベロープをそのまま返す。
package service

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/hitoshi/sharehub/internal/apiclient"
	"github.com/hitoshi/sharehub/internal/model"
)

// ページングのデフォルト値
const (
	DefaultPage = 0
	DefaultSize = 20
	// DefaultTopSize は人気・最新一覧のデフォルト件数。
	DefaultTopSize = 10
	// DefaultDistance は近隣検索のデフォルト距離（km）。
	DefaultDistance = 10
)

// Requester はサービスが利用するHTTPクライアントの動詞セット。
// apiclient.Clientが実装する。テスト時にモックに差し替え可能。
type Requester interface {
	Get(ctx context.Context, path string, out any, opts ...apiclient.RequestOption) error
	Post(ctx context.Context, path string, payload, out any, opts ...apiclient.RequestOption) error
	Put(ctx context.Context, path string, payload, out any, opts ...apiclient.RequestOption) error
	Patch(ctx context.Context, path string, payload, out any, opts ...apiclient.RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...apiclient.RequestOption) error
	PostMultipart(ctx context.Context, path, field, filename string, r io.Reader, out any) error
}

func get[T any](ctx context.Context, api Requester, path string) (*model.Response[T], error) {
	var resp model.Response[T]
	if err := api.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func post[T any](ctx context.Context, api Requester, path string, payload any) (*model.Response[T], error) {
	var resp model.Response[T]
	if err := api.Post(ctx, path, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func put[T any](ctx context.Context, api Requester, path string, payload any) (*model.Response[T], error) {
	var resp model.Response[T]
	if err := api.Put(ctx, path, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func del[T any](ctx context.Context, api Requester, path string, opts ...apiclient.RequestOption) (*model.Response[T], error) {
	var resp model.Response[T]
	if err := api.Delete(ctx, path, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

// pageQuery は ?page=&size= のクエリ文字列を返す。
func pageQuery(page, size int) string {
	return "?page=" + strconv.Itoa(page) + "&size=" + strconv.Itoa(size)
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}

// Empty はデータを持たない応答のData型。
type Empty = *struct{}

// pathEscape はパスセグメントをエスケープする。
func pathEscape(s string) string {
	return url.PathEscape(s)
}

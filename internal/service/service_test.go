package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hitoshi/sharehub/internal/apiclient"
	"github.com/hitoshi/sharehub/internal/model"
)

// recordedRequest はテストサーバーが受け取ったリクエスト。
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// recorder はリクエストを記録して固定レスポンスを返すテストサーバー。
type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (r *recorder) handler(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, recordedRequest{
		Method: req.Method,
		Path:   strings.TrimPrefix(req.URL.Path, "/api"),
		Query:  req.URL.RawQuery,
		Body:   string(body),
	})
	status, respBody := r.status, r.body
	r.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	if respBody == "" {
		respBody = `{"success":true}`
	}
	w.WriteHeader(status)
	w.Write([]byte(respBody))
}

func (r *recorder) last(t *testing.T) recordedRequest {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		t.Fatal("リクエストが送信されていない")
	}
	return r.requests[len(r.requests)-1]
}

// noSession はトークンを持たないSessionProvider。
type noSession struct{}

func (noSession) Token(context.Context) (string, error) { return "", nil }
func (noSession) Invalidate(context.Context) error      { return nil }

func newTestAPI(t *testing.T) (*apiclient.Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(rec.handler))
	t.Cleanup(server.Close)

	c, err := apiclient.NewClient(server.URL+"/api", noSession{}, apiclient.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient がエラーを返した: %v", err)
	}
	return c, rec
}

func expectRequest(t *testing.T, got recordedRequest, method, path, query string) {
	t.Helper()
	if got.Method != method || got.Path != path || got.Query != query {
		t.Errorf("リクエスト = %s %s?%s, want %s %s?%s", got.Method, got.Path, got.Query, method, path, query)
	}
}

func TestUserService_Endpoints(t *testing.T) {
	api, rec := newTestAPI(t)
	s := NewUserService(api)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
		query  string
	}{
		{"Register", func() error { _, err := s.Register(ctx, model.RegisterRequest{Username: "bob"}); return err }, "POST", "/users/register", ""},
		{"Login", func() error { _, err := s.Login(ctx, model.LoginRequest{Username: "bob"}); return err }, "POST", "/users/login", ""},
		{"Profile", func() error { _, err := s.Profile(ctx); return err }, "GET", "/users/profile", ""},
		{"UpdateProfile", func() error { _, err := s.UpdateProfile(ctx, model.ProfileUpdate{}); return err }, "PUT", "/users/profile", ""},
		{"List", func() error { _, err := s.List(ctx, DefaultPage, DefaultSize); return err }, "GET", "/users", "page=0&size=20"},
		{"GetByID", func() error { _, err := s.GetByID(ctx, 7); return err }, "GET", "/users/7", ""},
		{"GetByUsername", func() error { _, err := s.GetByUsername(ctx, "bob"); return err }, "GET", "/users/username/bob", ""},
		{"GetByEmail", func() error { _, err := s.GetByEmail(ctx, "b@x.io"); return err }, "GET", "/users/email/b@x.io", ""},
		{"ChangePassword", func() error { _, err := s.ChangePassword(ctx, model.ChangePasswordRequest{}); return err }, "PUT", "/users/change-password", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("%s がエラーを返した: %v", tt.name, err)
			}
			expectRequest(t, rec.last(t), tt.method, tt.path, tt.query)
		})
	}
}

func TestUserService_RegisterSendsConfirmPassword(t *testing.T) {
	api, rec := newTestAPI(t)
	s := NewUserService(api)

	_, _ = s.Register(context.Background(), model.RegisterRequest{
		Username: "bob", Email: "b@x.io", Password: "secret1", ConfirmPassword: "secret1",
	})
	if !strings.Contains(rec.last(t).Body, `"confirmPassword":"secret1"`) {
		t.Errorf("confirmPasswordが送信されるべき: %s", rec.last(t).Body)
	}
}

func TestUserService_UploadAvatar(t *testing.T) {
	api, rec := newTestAPI(t)
	rec.body = `{"success":true,"data":{"avatarUrl":"/a.png"}}`
	s := NewUserService(api)

	resp, err := s.UploadAvatar(context.Background(), "a.png", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("UploadAvatar がエラーを返した: %v", err)
	}
	if resp.Data.AvatarURL != "/a.png" {
		t.Errorf("avatarUrl = %s", resp.Data.AvatarURL)
	}
	got := rec.last(t)
	expectRequest(t, got, "POST", "/users/upload-avatar", "")
	if !strings.Contains(got.Body, `name="file"`) {
		t.Errorf("fileパートが含まれるべき: %s", got.Body)
	}
}

func TestItemService_Endpoints(t *testing.T) {
	api, rec := newTestAPI(t)
	s := NewItemService(api)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
		query  string
	}{
		{"Create", func() error { _, err := s.Create(ctx, model.ItemCreateRequest{Title: "x"}); return err }, "POST", "/items", ""},
		{"GetByID", func() error { _, err := s.GetByID(ctx, 42); return err }, "GET", "/items/42", ""},
		{"List", func() error { _, err := s.List(ctx, 0, 20); return err }, "GET", "/items", "page=0&size=20"},
		{"ListByCategory", func() error { _, err := s.ListByCategory(ctx, 3, 1, 12); return err }, "GET", "/items/category/3", "page=1&size=12"},
		{"ListByUser", func() error { _, err := s.ListByUser(ctx, 7, 0, 12); return err }, "GET", "/items/user/7", "page=0&size=12"},
		{"Update", func() error { _, err := s.Update(ctx, 42, model.ItemUpdateRequest{ID: 42}); return err }, "PUT", "/items/42", ""},
		{"Delete", func() error { _, err := s.Delete(ctx, 42); return err }, "DELETE", "/items/42", ""},
		{"Popular", func() error { _, err := s.Popular(ctx, DefaultTopSize); return err }, "GET", "/items/popular", "size=10"},
		{"Latest", func() error { _, err := s.Latest(ctx, DefaultTopSize); return err }, "GET", "/items/latest", "size=10"},
		{"Nearby", func() error { _, err := s.Nearby(ctx, 31.2, 121.5, DefaultDistance); return err }, "GET", "/items/nearby", "latitude=31.2&longitude=121.5&distance=10"},
		{"Favorite", func() error { _, err := s.Favorite(ctx, 42); return err }, "POST", "/items/42/favorite", ""},
		{"Unfavorite", func() error { _, err := s.Unfavorite(ctx, 42); return err }, "DELETE", "/items/42/favorite", ""},
		{"FavoriteStatus", func() error { _, err := s.FavoriteStatus(ctx, 42); return err }, "GET", "/items/42/favorite-status", ""},
		{"ListUserFavorites", func() error { _, err := s.ListUserFavorites(ctx, 7, 0, 12); return err }, "GET", "/items/favorites/7", "page=0&size=12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("%s がエラーを返した: %v", tt.name, err)
			}
			expectRequest(t, rec.last(t), tt.method, tt.path, tt.query)
		})
	}
}

func TestItemService_Search_DropsEmptyParams(t *testing.T) {
	api, rec := newTestAPI(t)
	s := NewItemService(api)

	page, size := 0, 12
	min, max := 0.0, 0.0
	free := 1
	_, err := s.Search(context.Background(), model.ItemSearchParams{
		Keyword: "",
		IsFree:  &free, MinPrice: &min, MaxPrice: &max,
		SortBy: "createdAt", Page: &page, Size: &size,
	})
	if err != nil {
		t.Fatalf("Search がエラーを返した: %v", err)
	}

	got := rec.last(t)
	if got.Path != "/items/search" {
		t.Errorf("パス = %s", got.Path)
	}
	want := "isFree=1&maxPrice=0&minPrice=0&page=0&size=12&sortBy=createdAt"
	if got.Query != want {
		t.Errorf("クエリ = %s, want %s", got.Query, want)
	}
}

func TestEncodeSearchParams_AllFields(t *testing.T) {
	cat := int64(3)
	cond := 2
	minP, maxP := 10.5, 200.0
	q := EncodeSearchParams(model.ItemSearchParams{
		Keyword: "自行车", CategoryID: &cat, ConditionType: &cond,
		MinPrice: &minP, MaxPrice: &maxP, Location: "上海",
	})
	for _, part := range []string{"categoryId=3", "conditionType=2", "minPrice=10.5", "maxPrice=200", "keyword=", "location="} {
		if !strings.Contains(q, part) {
			t.Errorf("クエリ %q に %q が含まれるべき", q, part)
		}
	}
	if EncodeSearchParams(model.ItemSearchParams{}) != "" {
		t.Error("全フィールド未設定なら空文字を返すべき")
	}
}

func TestItemService_Search_DecodesPage(t *testing.T) {
	api, rec := newTestAPI(t)
	rec.body = `{"success":true,"data":{"content":[{"id":1},{"id":2}],"totalElements":2,"totalPages":1,"number":0,"size":12}}`
	s := NewItemService(api)

	resp, err := s.Search(context.Background(), model.ItemSearchParams{})
	if err != nil {
		t.Fatalf("Search がエラーを返した: %v", err)
	}
	if len(resp.Data.Content) != 2 || resp.Data.TotalElements != 2 {
		t.Errorf("ページ = %+v", resp.Data)
	}
}

func TestCategoryService_Endpoints(t *testing.T) {
	api, rec := newTestAPI(t)
	s := NewCategoryService(api)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
		query  string
	}{
		{"List", func() error { _, err := s.List(ctx); return err }, "GET", "/categories", ""},
		{"GetByID", func() error { _, err := s.GetByID(ctx, 1); return err }, "GET", "/categories/1", ""},
		{"Create", func() error { _, err := s.Create(ctx, model.CategoryInput{Name: "x"}); return err }, "POST", "/categories", ""},
		{"Update", func() error { _, err := s.Update(ctx, 1, model.CategoryInput{}); return err }, "PUT", "/categories/1", ""},
		{"Delete", func() error { _, err := s.Delete(ctx, 1); return err }, "DELETE", "/categories/1", ""},
		{"TopLevel", func() error { _, err := s.TopLevel(ctx); return err }, "GET", "/categories/top-level", ""},
		{"Children", func() error { _, err := s.Children(ctx, 1); return err }, "GET", "/categories/children/1", ""},
		{"Tree", func() error { _, err := s.Tree(ctx); return err }, "GET", "/categories/tree", ""},
		{"Search", func() error { _, err := s.Search(ctx, "图书 文具"); return err }, "GET", "/categories/search", "keyword=%E5%9B%BE%E4%B9%A6+%E6%96%87%E5%85%B7"},
		{"Popular", func() error { _, err := s.Popular(ctx, DefaultTopSize); return err }, "GET", "/categories/popular", "size=10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("%s がエラーを返した: %v", tt.name, err)
			}
			expectRequest(t, rec.last(t), tt.method, tt.path, tt.query)
		})
	}
}

func TestFavoriteService_Endpoints(t *testing.T) {
	api, rec := newTestAPI(t)
	s := NewFavoriteService(api, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
		query  string
	}{
		{"Add", func() error { _, err := s.Add(ctx, 7, 42); return err }, "POST", "/favorites", "userId=7&itemId=42"},
		{"Remove", func() error { _, err := s.Remove(ctx, 7, 42); return err }, "DELETE", "/favorites", "userId=7&itemId=42"},
		{"Check", func() error { _, err := s.Check(ctx, 7, 42); return err }, "GET", "/favorites/check", "userId=7&itemId=42"},
		{"ListByUser", func() error { _, err := s.ListByUser(ctx, 7, 0, 20); return err }, "GET", "/favorites/user/7", "page=0&size=20"},
		{"ListMine", func() error { _, err := s.ListMine(ctx, 0, 20); return err }, "GET", "/favorites/my", "page=0&size=20"},
		{"Stats", func() error { _, err := s.Stats(ctx, 7); return err }, "GET", "/favorites/stats/7", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("%s がエラーを返した: %v", tt.name, err)
			}
			expectRequest(t, rec.last(t), tt.method, tt.path, tt.query)
		})
	}
}

func TestFavoriteService_BatchRemove_SendsBody(t *testing.T) {
	api, rec := newTestAPI(t)
	s := NewFavoriteService(api, nil)

	if _, err := s.BatchRemove(context.Background(), []int64{1, 2, 3}); err != nil {
		t.Fatalf("BatchRemove がエラーを返した: %v", err)
	}
	got := rec.last(t)
	expectRequest(t, got, "DELETE", "/favorites/batch", "")
	if got.Body != `{"itemIds":[1,2,3]}` {
		t.Errorf("ボディ = %s", got.Body)
	}
}

func TestFavoriteService_LogsAndRethrowsSameError(t *testing.T) {
	api, rec := newTestAPI(t)
	rec.status = http.StatusInternalServerError
	rec.body = `{"success":false,"message":"db down"}`

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s := NewFavoriteService(api, logger)

	_, err := s.Add(context.Background(), 7, 42)
	var httpErr *apiclient.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("HTTPError がそのまま返されるべき: %v", err)
	}
	if httpErr.UserMessage() != "db down" {
		t.Errorf("UserMessage = %s", httpErr.UserMessage())
	}
	if !strings.Contains(buf.String(), "ERROR") || !strings.Contains(buf.String(), `"operation":"add"`) {
		t.Errorf("失敗時はERRORログが記録されるべき: %s", buf.String())
	}
}

func TestFollowService_Endpoints(t *testing.T) {
	api, rec := newTestAPI(t)
	s := NewFollowService(api, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
		query  string
		body   string
	}{
		{"Follow", func() error { _, err := s.Follow(ctx, 9); return err }, "POST", "/follows", "", `{"userId":9}`},
		{"Unfollow", func() error { _, err := s.Unfollow(ctx, 9); return err }, "DELETE", "/follows/9", "", ""},
		{"Check", func() error { _, err := s.Check(ctx, 9); return err }, "GET", "/follows/check/9", "", ""},
		{"Following", func() error { _, err := s.Following(ctx, 9, 0, 20); return err }, "GET", "/follows/following/9", "page=0&size=20", ""},
		{"Followers", func() error { _, err := s.Followers(ctx, 9, 0, 20); return err }, "GET", "/follows/followers/9", "page=0&size=20", ""},
		{"MyFollowing", func() error { _, err := s.MyFollowing(ctx, 0, 20); return err }, "GET", "/follows/my-following", "page=0&size=20", ""},
		{"MyFollowers", func() error { _, err := s.MyFollowers(ctx, 0, 20); return err }, "GET", "/follows/my-followers", "page=0&size=20", ""},
		{"BatchFollow", func() error { _, err := s.BatchFollow(ctx, []int64{1, 2}); return err }, "POST", "/follows/batch", "", `{"userIds":[1,2]}`},
		{"BatchUnfollow", func() error { _, err := s.BatchUnfollow(ctx, []int64{1, 2}); return err }, "DELETE", "/follows/batch", "", `{"userIds":[1,2]}`},
		{"Stats", func() error { _, err := s.Stats(ctx, 9); return err }, "GET", "/follows/stats/9", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("%s がエラーを返した: %v", tt.name, err)
			}
			got := rec.last(t)
			expectRequest(t, got, tt.method, tt.path, tt.query)
			if got.Body != tt.body {
				t.Errorf("ボディ = %s, want %s", got.Body, tt.body)
			}
		})
	}
}

func TestMessageService_Endpoints(t *testing.T) {
	api, rec := newTestAPI(t)
	s := NewMessageService(api)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
		query  string
	}{
		{"Send", func() error { _, err := s.Send(ctx, model.SendMessageRequest{ReceiverID: 3, Content: "hi"}); return err }, "POST", "/messages", ""},
		{"List", func() error { _, err := s.List(ctx, 0, 20); return err }, "GET", "/messages", "page=0&size=20"},
		{"Received", func() error { _, err := s.Received(ctx, 0, 20); return err }, "GET", "/messages/received", "page=0&size=20"},
		{"Sent", func() error { _, err := s.Sent(ctx, 0, 20); return err }, "GET", "/messages/sent", "page=0&size=20"},
		{"Conversation", func() error { _, err := s.Conversation(ctx, 3, 0, 20); return err }, "GET", "/messages/conversation/3", "page=0&size=20"},
		{"MarkAsRead", func() error { _, err := s.MarkAsRead(ctx, 5); return err }, "PUT", "/messages/5/read", ""},
		{"MarkMultipleAsRead", func() error { _, err := s.MarkMultipleAsRead(ctx, []int64{5, 6}); return err }, "PUT", "/messages/read-multiple", ""},
		{"Delete", func() error { _, err := s.Delete(ctx, 5); return err }, "DELETE", "/messages/5", ""},
		{"UnreadCount", func() error { _, err := s.UnreadCount(ctx); return err }, "GET", "/messages/unread-count", ""},
		{"System", func() error { _, err := s.System(ctx, 0, 20); return err }, "GET", "/messages/system", "page=0&size=20"},
		{"ItemMessages", func() error { _, err := s.ItemMessages(ctx, 42, 0, 20); return err }, "GET", "/messages/item/42", "page=0&size=20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("%s がエラーを返した: %v", tt.name, err)
			}
			expectRequest(t, rec.last(t), tt.method, tt.path, tt.query)
		})
	}
}

func TestMessageService_MarkMultipleAsRead_Body(t *testing.T) {
	api, rec := newTestAPI(t)
	s := NewMessageService(api)

	_, _ = s.MarkMultipleAsRead(context.Background(), []int64{5, 6})
	if got := rec.last(t).Body; got != `{"messageIds":[5,6]}` {
		t.Errorf("ボディ = %s", got)
	}
}

func TestService_ApplicationFailureReturnedUnchanged(t *testing.T) {
	api, rec := newTestAPI(t)
	rec.body = `{"success":false,"message":"物品不存在","code":404}`
	s := NewItemService(api)

	resp, err := s.GetByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("success=false はエラーではない: %v", err)
	}
	if resp.Success || resp.Message != "物品不存在" || resp.Code != 404 {
		t.Errorf("エンベロープがそのまま返されるべき: %+v", resp)
	}
}

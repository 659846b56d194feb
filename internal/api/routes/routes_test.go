package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"realtime-threads/internal/adapters/storage"
	"realtime-threads/internal/database"
	"realtime-threads/internal/models"
	"realtime-threads/internal/repository"
	"realtime-threads/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tokenIdentity struct {
	users repository.UserRepository
}

// ResolveUser treats the credential as an external id.
func (t *tokenIdentity) ResolveUser(ctx context.Context, credential string) (*service.Identity, error) {
	if credential == "" || credential == "bad" {
		return nil, fmt.Errorf("%w: rejected", service.ErrInvalidCredential)
	}
	name := credential
	u, err := t.users.UpsertByExternalID(ctx, credential, &name, nil)
	if err != nil {
		return nil, err
	}
	return &service.Identity{UserID: u.ID, ExternalID: u.ExternalID}, nil
}

type allowAll struct{}

func (allowAll) Allow(context.Context, string, int, time.Duration) (bool, error) { return true, nil }

type countingNotifier struct {
	replies int
	likes   int
}

func (n *countingNotifier) NotifyReplyCreated(context.Context, uint, uint) { n.replies++ }
func (n *countingNotifier) NotifyLikeCreated(context.Context, uint, uint)  { n.likes++ }

type fakeUploader struct{}

func (fakeUploader) UploadImage(_ context.Context, file *multipart.FileHeader) (*storage.UploadResult, error) {
	if file.Header.Get("Content-Type") != "image/png" {
		return nil, storage.ErrNotAnImage
	}
	return &storage.UploadResult{URL: "http://cdn.local/images/x.png", Key: "images/x.png", ContentType: "image/png", Size: file.Size}, nil
}

type fixture struct {
	router   *Router
	db       *gorm.DB
	notifier *countingNotifier
	healthy  error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	users := repository.NewUserRepository(db)
	chats := repository.NewChatRepository(db)
	notifications := repository.NewNotificationRepository(db)
	threads := repository.NewThreadRepository(db)

	f := &fixture{db: db, notifier: &countingNotifier{}}
	f.router = NewRouter(Dependencies{
		Identity:        &tokenIdentity{users: users},
		Users:           service.NewUserService(users),
		Chat:            service.NewChatService(users, chats),
		Notifications:   service.NewNotificationService(notifications),
		Threads:         service.NewThreadService(threads, f.notifier),
		RateLimiter:     allowAll{},
		Uploader:        fakeUploader{},
		MetricsGatherer: prometheus.NewRegistry(),
		HealthCheck:     func() error { return f.healthy },
	})
	f.router.SetupRoutes()
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.GetEngine().ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Data
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "", nil).Code)

	f.healthy = errors.New("redis down")
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/healthz", "", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/metrics", "", nil).Code)
}

func TestProfileRequiresAuth(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/me", "bad", nil).Code)

	rec := f.do(t, http.MethodGet, "/api/v1/me", "idp|alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeData[models.UserProfileResponse](t, rec)
	assert.Equal(t, "idp|alice", profile.ExternalID)

	rec = f.do(t, http.MethodPatch, "/api/v1/me", "idp|alice", map[string]string{"handle": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	profile = decodeData[models.UserProfileResponse](t, rec)
	require.NotNil(t, profile.Handle)
	assert.Equal(t, "alice", *profile.Handle)
}

func TestThreadFlow(t *testing.T) {
	f := newFixture(t)
	const author, fan = "idp|author", "idp|fan"

	rec := f.do(t, http.MethodPost, "/api/v1/threads", author, map[string]string{"title": "Hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/threads", author, models.CreateThreadRequest{
		Title:        "First thread",
		Body:         "Something worth replying to",
		CategorySlug: "no-such-category",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/threads", author, models.CreateThreadRequest{
		Title:        "First thread",
		Body:         "Something worth replying to",
		CategorySlug: "general",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	thread := decodeData[models.ThreadResponse](t, rec)
	base := fmt.Sprintf("/api/v1/threads/%d", thread.ID)

	rec = f.do(t, http.MethodPost, base+"/replies", fan, models.CreateReplyRequest{Body: "great post"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reply := decodeData[models.ReplyResponse](t, rec)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, base+"/likes", fan, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, base+"/likes", fan, nil).Code)
	assert.Equal(t, 1, f.notifier.replies)
	assert.Equal(t, 1, f.notifier.likes)

	rec = f.do(t, http.MethodGet, base, fan, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeData[models.ThreadStatsResponse](t, rec)
	assert.Equal(t, int64(1), stats.LikeCount)
	assert.Equal(t, int64(1), stats.ReplyCount)
	assert.True(t, stats.ViewerHasLiked)

	replyPath := fmt.Sprintf("/api/v1/threads/replies/%d", reply.ID)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, replyPath, author, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, replyPath, fan, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, replyPath, fan, nil).Code)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/threads/9999", fan, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/threads/abc", fan, nil).Code)
}

func TestChatHistoryAndNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := repository.NewUserRepository(f.db)
	chats := repository.NewChatRepository(f.db)
	threads := repository.NewThreadRepository(f.db)
	notifications := repository.NewNotificationRepository(f.db)

	alice, err := users.UpsertByExternalID(ctx, "idp|alice", nil, nil)
	require.NoError(t, err)
	bob, err := users.UpsertByExternalID(ctx, "idp|bob", nil, nil)
	require.NoError(t, err)

	for _, body := range []string{"one", "two", "three"} {
		b := body
		_, err := chats.InsertMessage(ctx, alice.ID, bob.ID, &b, nil)
		require.NoError(t, err)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/chat/users", "idp|alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]models.ChatUserResponse](t, rec), 1)

	path := fmt.Sprintf("/api/v1/chat/%d/messages?limit=2", alice.ID)
	rec = f.do(t, http.MethodGet, path, "idp|bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeData[[]models.DirectMessageResponse](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, "two", *history[0].Body)
	assert.Equal(t, "three", *history[1].Body)

	assert.Equal(t, http.StatusBadRequest,
		f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/chat/%d/messages?limit=x", alice.ID), "idp|bob", nil).Code)

	general, err := threads.FindCategoryBySlug(ctx, "general")
	require.NoError(t, err)
	thread, err := threads.CreateThread(ctx, general.ID, alice.ID, "Alice's thread", "Body text for the thread")
	require.NoError(t, err)
	n, err := notifications.InsertNotification(ctx, alice.ID, thread.ID, bob.ID, models.NotificationReplyOnThread)
	require.NoError(t, err)

	rec = f.do(t, http.MethodGet, "/api/v1/notifications?unreadonly=true", "idp|alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]models.NotificationResponse](t, rec), 1)

	readPath := fmt.Sprintf("/api/v1/notifications/%d/read", n.ID)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, readPath, "idp|alice", nil).Code)

	rec = f.do(t, http.MethodGet, "/api/v1/notifications?unreadonly=true", "idp|alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[[]models.NotificationResponse](t, rec))

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/api/v1/notifications/read-all", "idp|alice", nil).Code)
}

func TestListThreadsAndCategories(t *testing.T) {
	f := newFixture(t)
	const author = "idp|author"

	rec := f.do(t, http.MethodGet, "/api/v1/threads/categories", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	categories := decodeData[[]models.CategoryResponse](t, rec)
	require.NotEmpty(t, categories)

	for i, c := range []struct{ slug, title string }{
		{"general", "Welcome to the forum"},
		{"help", "Cannot connect to the websocket"},
		{"help", "Websocket drops after a minute"},
	} {
		rec := f.do(t, http.MethodPost, "/api/v1/threads", author, models.CreateThreadRequest{
			Title:        c.title,
			Body:         fmt.Sprintf("Thread body number %d", i),
			CategorySlug: c.slug,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	list := func(query string) []models.ThreadSummaryResponse {
		t.Helper()
		rec := f.do(t, http.MethodGet, "/api/v1/threads"+query, author, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decodeData[[]models.ThreadSummaryResponse](t, rec)
	}

	assert.Len(t, list(""), 3)
	assert.Len(t, list("?category=help"), 2)
	assert.Len(t, list("?pageSize=1"), 1)
	assert.Len(t, list("?pageSize=1000"), 3, "page size is clamped, not rejected")
	assert.Empty(t, list("?page=2&pageSize=5"))

	found := list("?q=WEBSOCKET&category=help&sort=oldest")
	require.Len(t, found, 2)
	assert.Equal(t, "Cannot connect to the websocket", found[0].Title)
	assert.Equal(t, "help", found[0].Category.Slug)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/threads?page=abc", author, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/threads?pageSize=abc", author, nil).Code)
}

func TestUploadImage(t *testing.T) {
	f := newFixture(t)

	upload := func(contentType string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="file"; filename="a.png"`}
		header["Content-Type"] = []string{contentType}
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/image", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer idp|alice")
		rec := httptest.NewRecorder()
		f.router.GetEngine().ServeHTTP(rec, req)
		return rec
	}

	rec := upload("image/png")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "images/x.png", decodeData[storage.UploadResult](t, rec).Key)

	assert.Equal(t, http.StatusBadRequest, upload("text/plain").Code)

	rec = f.do(t, http.MethodPost, "/api/v1/upload/image", "idp|alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

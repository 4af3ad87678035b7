package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aigenthix/cms-backend/cache"
	"github.com/aigenthix/cms-backend/database"
	"github.com/aigenthix/cms-backend/models"
	"github.com/aigenthix/cms-backend/services"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "admin-pass-123"
)

// newTestApp wires the full router over an isolated in-memory store with
// caching disabled, plus one seeded admin account.
func newTestApp(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	pool := database.NewPoolWithDB(gdb, zerolog.Nop())
	require.NoError(t, database.Migrate(ctx, pool))
	t.Cleanup(pool.Close)
	db := database.New(pool)

	hash, err := services.HashPassword(testAdminPassword)
	require.NoError(t, err)
	_, err = db.UserRepo().Create(ctx, &models.User{
		Email:        testAdminEmail,
		PasswordHash: hash,
		Name:         "Admin",
		Role:         "admin",
		IsActive:     true,
	})
	require.NoError(t, err)

	cacheSvc := cache.New("", 5*time.Minute, zerolog.Nop())
	t.Cleanup(cacheSvc.Close)

	auth := services.NewAuthService(db.UserRepo(), strings.Repeat("k", 32), time.Hour)

	return newRouter(db, cacheSvc, auth)
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func loginAdmin(t *testing.T, handler http.Handler) string {
	t.Helper()

	rec := doRequest(t, handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	token, ok := data["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestApp(t)

	rec := doRequest(t, handler, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status   string `json:"status"`
		Version  string `json:"version"`
		Database bool   `json:"database"`
		Cache    bool   `json:"cache"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, Version, health.Version)
	assert.True(t, health.Database)
	// A missing cache degrades reads but never health.
	assert.False(t, health.Cache)
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	handler := newTestApp(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/admin/blogs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// Error bodies are JSON and must say so.
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = doRequest(t, handler, http.MethodGet, "/api/admin/blogs", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	handler := newTestApp(t)

	rec := doRequest(t, handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    testAdminEmail,
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	handler := newTestApp(t)

	body := map[string]string{"email": testAdminEmail, "password": "wrong"}
	for i := 0; i < 5; i++ {
		rec := doRequest(t, handler, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := doRequest(t, handler, http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestBlogLifecycle(t *testing.T) {
	handler := newTestApp(t)
	token := loginAdmin(t, handler)

	// Create.
	rec := doRequest(t, handler, http.MethodPost, "/api/admin/blogs", token, map[string]any{
		"title":     "Hello World",
		"content":   "some body text for the first post",
		"published": true,
		"tags":      []string{"go", "testing"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	id := int(data["id"].(float64))
	slug := data["slug"].(string)
	require.NotZero(t, id)
	assert.Equal(t, "hello-world", slug)

	// Public read by slug.
	rec = doRequest(t, handler, http.MethodGet, "/api/blogs/"+slug, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeEnvelope(t, rec)
	blog := envelope["data"].(map[string]any)
	assert.Equal(t, "Hello World", blog["title"])
	assert.Equal(t, []any{"go", "testing"}, blog["tags"])

	// Public aggregate.
	rec = doRequest(t, handler, http.MethodGet, "/api/blogs/page-data", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeEnvelope(t, rec)
	pageData := envelope["data"].(map[string]any)
	assert.Len(t, pageData["latest"], 1)
	assert.Equal(t, pageData["latest"], pageData["popular"])

	// Unpublish via toggle; the public lookup must stop resolving.
	rec = doRequest(t, handler, http.MethodPatch, fmt.Sprintf("/api/admin/blogs/%d/publish", id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["data"].(map[string]any)["published"])

	rec = doRequest(t, handler, http.MethodGet, "/api/blogs/"+slug, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Admin read by ID still resolves while unpublished.
	rec = doRequest(t, handler, http.MethodGet, fmt.Sprintf("/api/admin/blogs/%d", id), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Update.
	rec = doRequest(t, handler, http.MethodPut, fmt.Sprintf("/api/admin/blogs/%d", id), token, map[string]any{
		"title":     "Hello Again",
		"content":   "rewritten body text",
		"published": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeEnvelope(t, rec)
	assert.Equal(t, slug, envelope["data"].(map[string]any)["slug"])

	// Delete, then both lookups miss.
	rec = doRequest(t, handler, http.MethodDelete, fmt.Sprintf("/api/admin/blogs/%d", id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodDelete, fmt.Sprintf("/api/admin/blogs/%d", id), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(t, handler, http.MethodGet, "/api/blogs/"+slug, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBlog_ValidationError(t *testing.T) {
	handler := newTestApp(t)
	token := loginAdmin(t, handler)

	rec := doRequest(t, handler, http.MethodPost, "/api/admin/blogs", token, map[string]any{
		"content": "body without a title",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "Title", errResp.Field)
}

func TestBlogIDParamValidation(t *testing.T) {
	handler := newTestApp(t)
	token := loginAdmin(t, handler)

	for _, path := range []string{"/api/admin/blogs/abc", "/api/admin/blogs/0", "/api/admin/blogs/-4"} {
		rec := doRequest(t, handler, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestBulkEndpoints(t *testing.T) {
	handler := newTestApp(t)
	token := loginAdmin(t, handler)

	var ids []int
	for _, title := range []string{"Bulk One", "Bulk Two"} {
		rec := doRequest(t, handler, http.MethodPost, "/api/admin/blogs", token, map[string]any{
			"title":     title,
			"content":   "bulk body",
			"published": true,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		envelope := decodeEnvelope(t, rec)
		ids = append(ids, int(envelope["data"].(map[string]any)["id"].(float64)))
	}

	rec := doRequest(t, handler, http.MethodPost, "/api/admin/blogs/bulk/unpublish", token, map[string]any{
		"ids": append(ids, 9999),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.EqualValues(t, 2, envelope["data"].(map[string]any)["affected"])

	rec = doRequest(t, handler, http.MethodPost, "/api/admin/blogs/bulk/delete", token, map[string]any{
		"ids": ids,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeEnvelope(t, rec)
	assert.EqualValues(t, 2, envelope["data"].(map[string]any)["affected"])

	rec = doRequest(t, handler, http.MethodGet, "/api/admin/blogs", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeEnvelope(t, rec)
	assert.Empty(t, envelope["data"])
}

func TestUserContext(t *testing.T) {
	ctx := ctxWithUser(context.Background(), "7", "admin@example.com")

	userID, err := ctxGetUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7", userID)

	email, err := ctxGetStringValue(ctx, userEmailKey)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", email)

	_, err = ctxGetUserID(context.Background())
	assert.Error(t, err)
}

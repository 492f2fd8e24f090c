package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appauth "atrium/internal/application/auth"
	infraauth "atrium/internal/infrastructure/auth"
	"atrium/internal/infrastructure/migration"
	"atrium/internal/infrastructure/repository"
	"atrium/internal/shared/config"
	"atrium/internal/shared/db"
	"atrium/internal/shared/logger"
	"atrium/internal/shared/utils"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(migration.AutoMigrateModels()...))

	log := logger.NewLogger()
	local := appauth.NewLocalProvider(appauth.LocalProviderDeps{
		Users:       repository.NewUserRepository(gdb, log),
		Credentials: repository.NewCredentialRepository(gdb, log),
		Sessions:    repository.NewSessionRepository(gdb, log),
		Tokens:      repository.NewOneShotTokenRepository(gdb, log),
		OAuthLinks:  repository.NewOAuthAccountRepository(gdb, log),
		Hasher:      infraauth.NewArgon2idHasher(8*1024, 1, 1),
		Issuer:      infraauth.NewTokenIssuer("test-secret", 15),
		TxManager:   db.NewTransactionManager(gdb),
		Logger:      log,
	})

	facade := appauth.NewFacade(local, nil, repository.NewAuthSettingRepository(gdb, log), config.ManagedConfig{}, log)
	return NewRouter(facade, []string{"https://app.example.com"}, log).Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, utils.APIResponse) {
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
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp utils.APIResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func tokensFrom(t *testing.T, resp utils.APIResponse) (accessToken, refreshToken string) {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "response data is not an object")
	tokens, ok := data["tokens"].(map[string]any)
	require.True(t, ok, "response has no tokens")
	accessToken, _ = tokens["access_token"].(string)
	refreshToken, _ = tokens["refresh_token"].(string)
	return accessToken, refreshToken
}

func TestRouterHealth(t *testing.T) {
	handler := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestRouterSignUpSignIn(t *testing.T) {
	handler := newTestRouter(t)

	rec, resp := doJSON(t, handler, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password1",
		"name":     "Alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	access, refresh := tokensFrom(t, resp)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	t.Run("duplicate signup conflicts", func(t *testing.T) {
		rec, resp := doJSON(t, handler, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
			"email":    "alice@example.com",
			"password": "password1",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.False(t, resp.Success)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		rec, _ := doJSON(t, handler, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
			"email": "bob@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("sign in", func(t *testing.T) {
		rec, resp := doJSON(t, handler, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
			"email":    "alice@example.com",
			"password": "password1",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
	})

	t.Run("wrong password unauthorized", func(t *testing.T) {
		rec, _ := doJSON(t, handler, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
			"email":    "alice@example.com",
			"password": "wrongpass1",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRouterAuthenticatedRoutes(t *testing.T) {
	handler := newTestRouter(t)

	_, resp := doJSON(t, handler, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password1",
		"name":     "Alice",
	})
	access, refresh := tokensFrom(t, resp)

	t.Run("me requires a token", func(t *testing.T) {
		rec, _ := doJSON(t, handler, http.MethodGet, "/api/v1/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me rejects garbage tokens", func(t *testing.T) {
		rec, _ := doJSON(t, handler, http.MethodGet, "/api/v1/users/me", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me returns the profile", func(t *testing.T) {
		rec, resp := doJSON(t, handler, http.MethodGet, "/api/v1/users/me", access, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		data := resp.Data.(map[string]any)
		assert.Equal(t, "alice@example.com", data["email"])
		assert.Equal(t, "Alice", data["name"])
	})

	t.Run("update profile", func(t *testing.T) {
		rec, resp := doJSON(t, handler, http.MethodPut, "/api/v1/users/me", access, map[string]any{
			"name": "Alice Cooper",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		data := resp.Data.(map[string]any)
		assert.Equal(t, "Alice Cooper", data["name"])
	})

	t.Run("change password", func(t *testing.T) {
		rec, _ := doJSON(t, handler, http.MethodPost, "/api/v1/auth/password/change", access, map[string]string{
			"current_password": "password1",
			"new_password":     "newpassword2",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = doJSON(t, handler, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
			"email":    "alice@example.com",
			"password": "newpassword2",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("refresh rotates the session", func(t *testing.T) {
		rec, resp := doJSON(t, handler, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
			"refresh_token": refresh,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		_, rotated := tokensFrom(t, resp)
		assert.NotEqual(t, refresh, rotated)

		rec, _ = doJSON(t, handler, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
			"refresh_token": refresh,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("sign out is always ok", func(t *testing.T) {
		rec, _ := doJSON(t, handler, http.MethodPost, "/api/v1/auth/signout", "", map[string]string{
			"refresh_token": "never-issued",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouterResetRequestNeverLeaks(t *testing.T) {
	handler := newTestRouter(t)

	rec, resp := doJSON(t, handler, http.MethodPost, "/api/v1/auth/password/reset-request", "", map[string]string{
		"email": "ghost@example.com",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestRouterOAuthURLValidation(t *testing.T) {
	handler := newTestRouter(t)

	t.Run("unknown provider", func(t *testing.T) {
		rec, _ := doJSON(t, handler, http.MethodGet, "/api/v1/auth/oauth/myspace?redirect_uri=https%3A%2F%2Fapp.example.com", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing redirect_uri", func(t *testing.T) {
		rec, _ := doJSON(t, handler, http.MethodGet, "/api/v1/auth/oauth/google", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouterSecurityHeaders(t *testing.T) {
	handler := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRouterCORS(t *testing.T) {
	handler := newTestRouter(t)

	t.Run("allowed origin echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/signin", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("unknown origin not echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

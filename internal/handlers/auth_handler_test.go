package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gst-billing-service/internal/middleware"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/services"
)

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.AccessTokenCookie {
			return cookie
		}
	}
	return nil
}

func authResult() *services.AuthResult {
	return &services.AuthResult{
		AccessToken: "jwt-abc",
		TokenType:   "bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        &models.User{ID: uuid.New(), Email: "owner@sharmastores.in"},
	}
}

func signupBody() map[string]string {
	return map[string]string{
		"fullName":        "Ravi Sharma",
		"shopName":        "Sharma Stores",
		"email":           "owner@sharmastores.in",
		"mobile":          "9876543210",
		"password":        "s3cret-pass",
		"confirmPassword": "s3cret-pass",
		"city":            "Pune",
		"state":           "Maharashtra",
	}
}

func TestAuthHandler_Signup(t *testing.T) {
	env := newTestEnv(t)
	env.auth.On("Signup", mock.Anything, mock.MatchedBy(func(req *models.SignupRequest) bool {
		return req.ShopName == "Sharma Stores" && req.State == "Maharashtra"
	}), testIP).Return(authResult(), nil)

	w := env.doPublic(http.MethodPost, "/api/v1/auth/signup", signupBody())

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "jwt-abc", decodeBody(t, w)["accessToken"])
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Equal(t, "jwt-abc", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Greater(t, cookie.MaxAge, 3500)
}

func TestAuthHandler_SignupErrors(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.doPublic(http.MethodPost, "/api/v1/auth/signup", map[string]string{"email": "a@b.in"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env.auth.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("email taken", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.On("Signup", mock.Anything, mock.Anything, testIP).Return(nil, services.ErrEmailTaken)

		w := env.doPublic(http.MethodPost, "/api/v1/auth/signup", signupBody())
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, services.ErrEmailTaken.Error(), decodeError(t, w).Message)
		assert.Nil(t, sessionCookie(w))
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.On("Login", mock.Anything, &models.LoginRequest{Email: "owner@sharmastores.in", Password: "pw"}, testIP).
			Return(authResult(), nil)

		w := env.doPublic(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "owner@sharmastores.in", "password": "pw"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotNil(t, sessionCookie(w))
	})

	t.Run("bad credentials", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.On("Login", mock.Anything, mock.Anything, testIP).Return(nil, services.ErrInvalidCredentials)

		w := env.doPublic(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "owner@sharmastores.in", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid email or password", decodeError(t, w).Message)
	})

	t.Run("rate limited", func(t *testing.T) {
		env := newTestEnv(t, func(cfg *RouterConfig) { cfg.LoginRatePerMinute = 2 })
		env.auth.On("Login", mock.Anything, mock.Anything, testIP).Return(nil, services.ErrInvalidCredentials)

		body := map[string]string{"email": "owner@sharmastores.in", "password": "guess"}
		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusUnauthorized, env.doPublic(http.MethodPost, "/api/v1/auth/login", body).Code)
		}
		w := env.doPublic(http.MethodPost, "/api/v1/auth/login", body)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		env.auth.AssertNumberOfCalls(t, "Login", 2)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	env := newTestEnv(t)

	w := env.doPublic(http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestAuthHandler_Me(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, env.principal.ShopID.String(), body["shopId"])
	assert.Equal(t, "owner@sharmastores.in", body["email"])
}

func TestAuthHandler_Security(t *testing.T) {
	t.Run("change password issues a new session", func(t *testing.T) {
		env := newTestEnv(t)
		req := &models.ChangePasswordRequest{CurrentPassword: "old", NewPassword: "new-pass-1", ConfirmPassword: "new-pass-1"}
		env.auth.On("ChangePassword", mock.Anything, env.actor(), req).Return(authResult(), nil)

		w := env.do(http.MethodPost, "/api/v1/settings/security/change-password", req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "jwt-abc", sessionCookie(w).Value)
	})

	t.Run("logout all clears the cookie", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.On("LogoutAll", mock.Anything, env.actor()).Return(nil)

		w := env.do(http.MethodPost, "/api/v1/settings/security/logout-all", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Less(t, sessionCookie(w).MaxAge, 0)
	})
}

func TestAuthHandler_APITokens(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		env := newTestEnv(t)
		req := &models.CreateAPITokenRequest{Name: "tally sync", Scopes: []string{"invoices:read"}}
		env.auth.On("CreateAPIToken", mock.Anything, env.actor(), req).
			Return(&services.CreatedAPIToken{Token: "wt_secret", APIToken: &models.APIToken{Name: "tally sync"}}, nil)

		w := env.do(http.MethodPost, "/api/v1/settings/tokens", req)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "wt_secret", decodeBody(t, w)["token"])
	})

	t.Run("list", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.On("ListAPITokens", mock.Anything, env.principal.UserID).
			Return([]models.APIToken{{Name: "tally sync"}, {Name: "backup"}}, nil)

		w := env.do(http.MethodGet, "/api/v1/settings/tokens", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeBody(t, w)["data"], 2)
	})

	t.Run("revoke unknown token", func(t *testing.T) {
		env := newTestEnv(t)
		tokenID := uuid.New()
		env.auth.On("RevokeAPIToken", mock.Anything, env.actor(), tokenID).Return(repository.ErrNotFound)

		w := env.do(http.MethodDelete, "/api/v1/settings/tokens/"+tokenID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "API token not found", decodeError(t, w).Message)
	})

	t.Run("revoke", func(t *testing.T) {
		env := newTestEnv(t)
		tokenID := uuid.New()
		env.auth.On("RevokeAPIToken", mock.Anything, env.actor(), tokenID).Return(nil)

		w := env.do(http.MethodDelete, "/api/v1/settings/tokens/"+tokenID.String(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

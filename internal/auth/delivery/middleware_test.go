package delivery

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	authdomain "commune-backend/internal/auth/domain"
	authdto "commune-backend/internal/auth/dto"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthUsecase struct {
	user *authdomain.User
	err  error
}

func (f *fakeAuthUsecase) Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	return nil, nil
}

func (f *fakeAuthUsecase) Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	return nil, nil
}

func (f *fakeAuthUsecase) GoogleSignIn(idToken string) (*authdto.TokenResponse, error) {
	return nil, nil
}

func (f *fakeAuthUsecase) RefreshToken(refreshToken string) (*authdto.TokenResponse, error) {
	return nil, nil
}

func (f *fakeAuthUsecase) Logout(refreshToken string) error { return nil }

func (f *fakeAuthUsecase) ValidateToken(tokenString string) (*authdomain.User, error) {
	return f.user, f.err
}

func (f *fakeAuthUsecase) UpdateProfile(userID string, req *authdto.UpdateProfileRequest) (*authdomain.User, error) {
	return nil, nil
}

func middlewareRouter(uc *fakeAuthUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(uc), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("userID")})
	})
	return r
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	r := middlewareRouter(&fakeAuthUsecase{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	r := middlewareRouter(&fakeAuthUsecase{})

	for _, header := range []string{"tok-123", "Basic tok-123", "Bearer"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	r := middlewareRouter(&fakeAuthUsecase{err: errors.New("expired")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	r := middlewareRouter(&fakeAuthUsecase{user: &authdomain.User{ID: "user-1"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

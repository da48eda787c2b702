package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leiwu2020/salesagents/model"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cret" {
		t.Error("password stored in plain text")
	}

	if !CheckPassword("s3cret", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateJWT("alice", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	claims, err := ValidateJWT(token, secret)
	if err != nil {
		t.Fatalf("ValidateJWT failed: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username alice, got %q", claims.Username)
	}
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("alice", []byte("secret-a"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	if _, err := ValidateJWT(token, []byte("secret-b")); err != ErrInvalidJWT {
		t.Errorf("expected ErrInvalidJWT, got %v", err)
	}
}

func TestValidateJWT_Expired(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateJWT("alice", secret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	if _, err := ValidateJWT(token, secret); err != ErrExpiredJWT {
		t.Errorf("expected ErrExpiredJWT, got %v", err)
	}
}

// fakeUserLookup implements UserLookup for middleware tests
type fakeUserLookup struct {
	users map[string]*model.User
}

func (f *fakeUserLookup) GetUserByUsername(username string) (*model.User, error) {
	if user, ok := f.users[username]; ok {
		return user, nil
	}
	return nil, ErrUnauthenticated
}

func newAuthRouter(secret []byte, users UserLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", Middleware(secret, users), func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "identity missing"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": identity.UserID, "username": identity.Username})
	})
	return router
}

func TestMiddleware_ValidToken(t *testing.T) {
	secret := []byte("test-secret")
	lookup := &fakeUserLookup{users: map[string]*model.User{
		"alice": {ID: 7, Username: "alice", IsApproved: true},
	}}
	router := newAuthRouter(secret, lookup)

	token, err := GenerateJWT("alice", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMiddleware_RejectsBadRequests(t *testing.T) {
	secret := []byte("test-secret")
	lookup := &fakeUserLookup{users: map[string]*model.User{}}
	router := newAuthRouter(secret, lookup)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestMiddleware_UnknownUserRejected(t *testing.T) {
	secret := []byte("test-secret")
	lookup := &fakeUserLookup{users: map[string]*model.User{}}
	router := newAuthRouter(secret, lookup)

	token, err := GenerateJWT("ghost", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for token naming a deleted user, got %d", w.Code)
	}
}

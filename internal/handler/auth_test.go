package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanh/training-provider-api/internal/config"
	"github.com/stefanh/training-provider-api/internal/middleware"
	"github.com/stefanh/training-provider-api/internal/model"
	"github.com/stefanh/training-provider-api/internal/repository"
	"github.com/stefanh/training-provider-api/internal/utils"
)

// fakeUserStore is an in-memory UserStore keyed by user id.
type fakeUserStore struct {
	byID   map[string]model.User
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[string]model.User{}}
}

func (f *fakeUserStore) Create(_ context.Context, email, password string, roles, perms []string, cost int) (string, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return "", repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	f.nextID++
	id := fmt.Sprintf("u%d", f.nextID)
	f.byID[id] = model.User{ID: id, Email: email, PasswordHash: hash, Roles: roles, Permissions: perms}
	return id, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) List(_ context.Context, _ int64) ([]model.User, error) {
	out := []model.User{}
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	f.byID[id] = u
	return nil
}

// fakeTokenStore is an in-memory revocation set.
type fakeTokenStore struct{ revoked map[string]bool }

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{revoked: map[string]bool{}}
}

func (f *fakeTokenStore) Revoke(_ context.Context, tokenHash string) error {
	f.revoked[tokenHash] = true
	return nil
}

func (f *fakeTokenStore) IsRevoked(_ context.Context, tokenHash string) (bool, error) {
	return f.revoked[tokenHash], nil
}

func testAuthConfig() config.Config {
	return config.Config{
		SecretKey:        "access-secret",
		RefreshSecretKey: "refresh-secret",
		AccessTTLMin:     15,
		RefreshTTLDays:   7,
		BcryptCost:       4,
		DefaultGetLimit:  100,
		MaxGetLimit:      1000,
	}
}

// postJSON routes a JSON POST through the given handler, optionally
// wrapped in the bearer authentication middleware.
func postJSON(t *testing.T, h echo.HandlerFunc, users middleware.UserSource, cfg config.Config, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if users != nil {
		h = middleware.Authenticate(cfg.SecretKey, users)(h)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestLogoutThenRefreshRejected(t *testing.T) {
	cfg := testAuthConfig()
	users := newFakeUserStore()
	users.byID["u1"] = model.User{ID: "u1", Email: "alice@example.com", Roles: []string{"user"}}
	tokens := newFakeTokenStore()
	h := NewAuthHandler(cfg, users, tokens)

	access, err := utils.NewAccessToken(cfg.SecretKey, "u1", cfg.AccessTTLMin)
	require.NoError(t, err)
	refresh, err := utils.NewRefreshToken(cfg.RefreshSecretKey, "u1", cfg.RefreshTTLDays)
	require.NoError(t, err)

	body := fmt.Sprintf(`{"refresh_token":%q}`, refresh.Token)

	rec := postJSON(t, h.Logout, users, cfg, access.Token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The same refresh token must no longer mint access tokens.
	rec = postJSON(t, h.Refresh, nil, cfg, "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "refresh token revoked")
}

func TestRefreshIssuesAccessToken(t *testing.T) {
	cfg := testAuthConfig()
	users := newFakeUserStore()
	users.byID["u1"] = model.User{ID: "u1", Email: "alice@example.com", Roles: []string{"user"}}
	h := NewAuthHandler(cfg, users, newFakeTokenStore())

	refresh, err := utils.NewRefreshToken(cfg.RefreshSecretKey, "u1", cfg.RefreshTTLDays)
	require.NoError(t, err)

	rec := postJSON(t, h.Refresh, nil, cfg, "", fmt.Sprintf(`{"refresh_token":%q}`, refresh.Token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	sub, err := utils.VerifyToken(cfg.SecretKey, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)
}

func TestRefreshRejectsAccessSecretToken(t *testing.T) {
	cfg := testAuthConfig()
	users := newFakeUserStore()
	users.byID["u1"] = model.User{ID: "u1", Email: "alice@example.com"}
	h := NewAuthHandler(cfg, users, newFakeTokenStore())

	// A token signed with the access secret is not a refresh token.
	access, err := utils.NewAccessToken(cfg.SecretKey, "u1", cfg.AccessTTLMin)
	require.NoError(t, err)

	rec := postJSON(t, h.Refresh, nil, cfg, "", fmt.Sprintf(`{"refresh_token":%q}`, access.Token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRejectsDeletedUser(t *testing.T) {
	cfg := testAuthConfig()
	h := NewAuthHandler(cfg, newFakeUserStore(), newFakeTokenStore())

	refresh, err := utils.NewRefreshToken(cfg.RefreshSecretKey, "gone", cfg.RefreshTTLDays)
	require.NoError(t, err)

	rec := postJSON(t, h.Refresh, nil, cfg, "", fmt.Sprintf(`{"refresh_token":%q}`, refresh.Token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoutRequiresAuthentication(t *testing.T) {
	cfg := testAuthConfig()
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	h := NewAuthHandler(cfg, users, tokens)

	rec := postJSON(t, h.Logout, users, cfg, "", `{"refresh_token":"whatever"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, tokens.revoked)
}

func TestLogoutRevokesRegardlessOfSignature(t *testing.T) {
	cfg := testAuthConfig()
	users := newFakeUserStore()
	users.byID["u1"] = model.User{ID: "u1", Email: "alice@example.com"}
	tokens := newFakeTokenStore()
	h := NewAuthHandler(cfg, users, tokens)

	access, err := utils.NewAccessToken(cfg.SecretKey, "u1", cfg.AccessTTLMin)
	require.NoError(t, err)

	rec := postJSON(t, h.Logout, users, cfg, access.Token, `{"refresh_token":"garbage-token"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, tokens.revoked[utils.HashToken("garbage-token")])
}

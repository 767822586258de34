package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/meeting-room-reservation/internal/config"
	"github.com/iliyamo/meeting-room-reservation/internal/model"
	"github.com/iliyamo/meeting-room-reservation/internal/repository"
	"github.com/iliyamo/meeting-room-reservation/internal/utils"
)

type memUsers struct {
	byID map[uint64]model.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uint64]model.User{}} }

func (m *memUsers) Create(_ context.Context, u *model.User, cost int) error {
	for _, existing := range m.byID {
		if existing.EmployeeID == u.EmployeeID {
			return repository.ErrDuplicate
		}
	}
	hash, err := utils.HashPassword(utils.EmployeeSecret(u.EmployeeID, u.Name), cost)
	if err != nil {
		return err
	}
	u.ID = uint64(len(m.byID) + 1)
	u.PasswordHash = hash
	u.IsActive = true
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByEmployeeID(_ context.Context, employeeID string) (model.User, error) {
	for _, u := range m.byID {
		if u.EmployeeID == employeeID {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

type memToken struct {
	userID  uint64
	revoked bool
}

type memTokens struct{ byHash map[string]*memToken }

func newMemTokens() *memTokens { return &memTokens{byHash: map[string]*memToken{}} }

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	m.byHash[hash] = &memToken{userID: userID}
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	t, ok := m.byHash[hash]
	if !ok || t.revoked {
		return 0, repository.ErrTokenInvalid
	}
	return t.userID, nil
}

func (m *memTokens) Rotate(ctx context.Context, oldHash, newHash string, exp time.Time) (uint64, error) {
	uid, err := m.ValidateRefresh(ctx, oldHash)
	if err != nil {
		return 0, err
	}
	m.byHash[oldHash].revoked = true
	return uid, m.StoreRefresh(ctx, uid, newHash, exp)
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	if t, ok := m.byHash[hash]; ok {
		t.revoked = true
	}
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	for _, t := range m.byHash {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

func newAuth() (*AuthHandler, *memTokens) {
	cfg := config.Config{
		JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4,
		AdminEmployees: []string{"1000001"},
	}
	tokens := newMemTokens()
	return NewAuthHandler(cfg, newMemUsers(), tokens, nopLog()), tokens
}

func decodeAuth(t *testing.T, body []byte) authResp {
	t.Helper()
	var resp authResp
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestSignupAndLogin(t *testing.T) {
	h, _ := newAuth()
	e := newEcho()

	c, rec := request(e, http.MethodPost, "/v1/auth/signup", `{"employee_id":"1234567","name":"Kim Minji","department":"Platform"}`, 0, "")
	require.NoError(t, h.Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	signup := decodeAuth(t, rec.Body.Bytes())
	assert.Equal(t, model.RoleEmployee, signup.User.Role)
	assert.NotEmpty(t, signup.Access.Token)
	assert.NotEmpty(t, signup.Refresh.Token)

	c, rec = request(e, http.MethodPost, "/v1/auth/signup", `{"employee_id":"1234567","name":"Someone Else","department":"Platform"}`, 0, "")
	require.NoError(t, h.Signup(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	c, rec = request(e, http.MethodPost, "/v1/auth/login", `{"employee_id":"1234567","name":"Kim Minji"}`, 0, "")
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)
	login := decodeAuth(t, rec.Body.Bytes())
	claims, err := utils.ParseAccessToken("test-secret", login.Access.Token)
	require.NoError(t, err)
	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, uid)

	c, rec = request(e, http.MethodPost, "/v1/auth/login", `{"employee_id":"1234567","name":"Kim Minjae"}`, 0, "")
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = request(e, http.MethodPost, "/v1/auth/login", `{"employee_id":"7654321","name":"Kim Minji"}`, 0, "")
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupValidation(t *testing.T) {
	h, _ := newAuth()
	bodies := map[string]string{
		"short employee id": `{"employee_id":"12345","name":"Kim","department":"Platform"}`,
		"letters":           `{"employee_id":"12345ab","name":"Kim","department":"Platform"}`,
		"missing name":      `{"employee_id":"1234567","department":"Platform"}`,
		"bad email":         `{"employee_id":"1234567","name":"Kim","email":"nope","department":"Platform"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c, rec := request(newEcho(), http.MethodPost, "/v1/auth/signup", body, 0, "")
			require.NoError(t, h.Signup(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSignupGrantsConfiguredAdmin(t *testing.T) {
	h, _ := newAuth()
	c, rec := request(newEcho(), http.MethodPost, "/v1/auth/signup", `{"employee_id":"1000001","name":"Lee","department":"Facilities"}`, 0, "")
	require.NoError(t, h.Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, model.RoleAdmin, decodeAuth(t, rec.Body.Bytes()).User.Role)
}

func TestRefreshRotates(t *testing.T) {
	h, _ := newAuth()
	e := newEcho()
	c, rec := request(e, http.MethodPost, "/v1/auth/signup", `{"employee_id":"1234567","name":"Kim","department":"Platform"}`, 0, "")
	require.NoError(t, h.Signup(c))
	first := decodeAuth(t, rec.Body.Bytes()).Refresh.Token

	c, rec = request(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+first+`"}`, 0, "")
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeAuth(t, rec.Body.Bytes()).Refresh.Token
	assert.NotEqual(t, first, second)

	c, rec = request(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+first+`"}`, 0, "")
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "a rotated token cannot be replayed")

	c, rec = request(e, http.MethodPost, "/v1/auth/refresh", `{}`, 0, "")
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	h, tokens := newAuth()
	e := newEcho()
	c, rec := request(e, http.MethodPost, "/v1/auth/signup", `{"employee_id":"1234567","name":"Kim","department":"Platform"}`, 0, "")
	require.NoError(t, h.Signup(c))
	pair := decodeAuth(t, rec.Body.Bytes())

	c, rec = request(e, http.MethodPost, "/v1/auth/logout", "", 0, "")
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+pair.Access.Token)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := tokens.ValidateRefresh(context.Background(), utils.HashRefreshRaw(pair.Refresh.Token))
	assert.ErrorIs(t, err, repository.ErrTokenInvalid)

	c, rec = request(e, http.MethodPost, "/v1/auth/logout", `{"refresh_token":"`+pair.Refresh.Token+`"}`, 0, "")
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = request(e, http.MethodPost, "/v1/auth/logout", "", 0, "")
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	h, _ := newAuth()
	e := newEcho()
	c, rec := request(e, http.MethodPost, "/v1/auth/signup", `{"employee_id":"1234567","name":"Kim","department":"Platform"}`, 0, "")
	require.NoError(t, h.Signup(c))
	id := decodeAuth(t, rec.Body.Bytes()).User.ID

	c, rec = request(e, http.MethodGet, "/v1/me", "", id, model.RoleEmployee)
	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"department":"Platform"`)

	c, rec = request(e, http.MethodGet, "/v1/me", "", 0, "")
	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

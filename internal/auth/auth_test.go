package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cashdesk-backend/internal/database/dbtest"
	"cashdesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	branch := uint(3)
	tok, err := GenerateToken(secret, &models.User{ID: 7, Email: "ana@example.com", Role: models.RoleCashier, BranchID: &branch})
	require.NoError(t, err)

	claims, err := ParseToken(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, models.RoleCashier, claims.Role)
	require.NotNil(t, claims.BranchID)
	assert.Equal(t, branch, *claims.BranchID)

	_, err = ParseToken("another-secret-another-secret-xx", tok)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpiredAndForeignAlg(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTCustomClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	s, err := expired.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = ParseToken(secret, s)
	assert.Error(t, err)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, &JWTCustomClaims{UserID: 1})
	s, err = hs512.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = ParseToken(secret, s)
	assert.Error(t, err)
}

func identityApp() *fiber.App {
	app := fiber.New()
	app.Get("/who", JWTMiddleware(secret), func(c *fiber.Ctx) error {
		id, err := BranchScope(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"user": id.UserID, "branch": id.BranchID, "role": id.Role})
	})
	app.Get("/root-only", JWTMiddleware(secret), RequireRole(models.RoleSuperAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func get(t *testing.T, app *fiber.App, path string, u *models.User) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if u != nil {
		tok, err := GenerateToken(secret, u)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestIdentity(t *testing.T) {
	app := identityApp()
	branch := uint(4)
	cashier := &models.User{ID: 10, Role: models.RoleCashier, BranchID: &branch}
	root := &models.User{ID: 1, Role: models.RoleSuperAdmin}
	orphan := &models.User{ID: 11, Role: models.RoleCashier}

	resp := get(t, app, "/who?branch_id=99", cashier)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(4), body["branch"], "branch users ignore branch_id")

	resp = get(t, app, "/who?branch_id=99", root)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(99), body["branch"])

	assert.Equal(t, http.StatusBadRequest, get(t, app, "/who", root).StatusCode)
	assert.Equal(t, http.StatusBadRequest, get(t, app, "/who?branch_id=x", root).StatusCode)
	assert.Equal(t, http.StatusForbidden, get(t, app, "/who", orphan).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/who", nil).StatusCode)

	assert.Equal(t, http.StatusForbidden, get(t, app, "/root-only", cashier).StatusCode)
	assert.Equal(t, http.StatusNoContent, get(t, app, "/root-only", root).StatusCode)
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	app := identityApp()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterLoginMe(t *testing.T) {
	db := dbtest.New(t)
	app := fiber.New()
	app.Post("/register", RegisterSuperAdminHandler(db))
	app.Post("/login", LoginHandler(db, secret))
	app.Get("/me", JWTMiddleware(secret), MeHandler(db))

	post := func(path, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := post("/register", `{"name":"Root","email":" Root@Example.com ","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post("/register", `{"name":"Again","email":"again@example.com","password":"hunter22"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = post("/login", `{"email":"root@example.com","password":"wrong-one"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post("/login", `{"email":"ROOT@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "Root", me["name"])
	assert.Equal(t, "super_admin", me["role"])
}

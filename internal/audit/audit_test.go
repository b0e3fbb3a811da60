package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cashdesk-backend/internal/auth"
	"cashdesk-backend/internal/database/dbtest"
	"cashdesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestWriteFillsUserNameAndJSON(t *testing.T) {
	db := dbtest.New(t)
	u := models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: models.RoleCashier}
	require.NoError(t, db.Create(&u).Error)

	branch := uint(2)
	require.NoError(t, Write(db, LogOptions{
		BranchID:   &branch,
		UserID:     u.ID,
		EntityType: EntityShift,
		EntityID:   5,
		Action:     models.AuditActionOpen,
		After:      map[string]string{"status": "OPEN"},
	}))

	var got models.AuditLog
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, "Ana", got.UserName)
	assert.Equal(t, "null", got.BeforeData)
	assert.JSONEq(t, `{"status":"OPEN"}`, got.AfterData)
}

func TestWriteRollsBackWithTransaction(t *testing.T) {
	db := dbtest.New(t)
	boom := errors.New("boom")

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := Write(tx, LogOptions{EntityType: EntityShift, EntityID: 1, Action: models.AuditActionClose}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int64
	db.Model(&models.AuditLog{}).Count(&n)
	assert.Zero(t, n)
}

func TestWriteRejectsUnencodablePayload(t *testing.T) {
	db := dbtest.New(t)
	err := Write(db, LogOptions{EntityType: EntityShift, After: make(chan int)})
	assert.Error(t, err)
}

func TestListAuditLogsScopedToBranch(t *testing.T) {
	db := dbtest.New(t)
	b1, b2 := uint(1), uint(2)
	for i, b := range []*uint{&b1, &b1, &b2} {
		require.NoError(t, Write(db, LogOptions{
			BranchID: b, UserID: uint(10 + i), EntityType: EntityCashMovement, EntityID: uint(i + 1), Action: models.AuditActionCreate,
		}))
	}

	app := fiber.New()
	app.Get("/api/audit-logs", auth.JWTMiddleware(secret), ListAuditLogsHandler(db))

	list := func(u models.User, query string) []AuditLogResponse {
		tok, err := auth.GenerateToken(secret, &u)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/audit-logs"+query, nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []AuditLogResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	admin := models.User{ID: 50, Role: models.RoleBranchAdmin, BranchID: &b1}
	assert.Len(t, list(admin, ""), 2)
	assert.Len(t, list(admin, "?branch_id=2"), 2, "branch users cannot widen their scope")
	assert.Len(t, list(admin, "?user_id=11"), 1)
	assert.Len(t, list(admin, fmt.Sprintf("?entity_type=%s&entity_id=1", EntityCashMovement)), 1)

	root := models.User{ID: 1, Role: models.RoleSuperAdmin}
	assert.Len(t, list(root, ""), 3)
	assert.Len(t, list(root, "?branch_id=2"), 1)
}

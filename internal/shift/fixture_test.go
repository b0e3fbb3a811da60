package shift

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"cashdesk-backend/internal/database/dbtest"
	"cashdesk-backend/internal/logging"
	"cashdesk-backend/internal/metrics"
	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/money"
	"cashdesk-backend/internal/tolerance"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// clock hands out strictly increasing timestamps, one minute apart.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	metrics  *metrics.Metrics
	branch   models.Branch
	other    models.Branch
	cashier  models.User
	cashier2 models.User
	admin    models.User
	register models.Register
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db := dbtest.New(t)

	f := &fixture{db: db, metrics: metrics.New()}
	f.branch = models.Branch{Name: "Miraflores"}
	f.other = models.Branch{Name: "Barranco"}
	require.NoError(t, db.Create(&f.branch).Error)
	require.NoError(t, db.Create(&f.other).Error)

	f.cashier = models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: models.RoleCashier, BranchID: &f.branch.ID}
	f.cashier2 = models.User{Name: "Luis", Email: "luis@example.com", PasswordHash: "x", Role: models.RoleCashier, BranchID: &f.branch.ID}
	f.admin = models.User{Name: "Rosa", Email: "rosa@example.com", PasswordHash: "x", Role: models.RoleBranchAdmin, BranchID: &f.branch.ID}
	for _, u := range []*models.User{&f.cashier, &f.cashier2, &f.admin} {
		require.NoError(t, db.Create(u).Error)
	}

	f.register = models.Register{BranchID: f.branch.ID, Name: "Caja 1"}
	require.NoError(t, db.Create(&f.register).Error)

	clk := &clock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	base := []Option{
		WithClock(clk.Now),
		WithMetrics(f.metrics),
		WithLogger(logging.New("error", "json", &bytes.Buffer{})),
	}
	f.svc = NewService(db, tolerance.Static(money.MustParse("5.00")), append(base, opts...)...)
	return f
}

func (f *fixture) open(t *testing.T, operator uint, opening string) *models.Shift {
	t.Helper()
	sh, err := f.svc.Open(testContext(t), OpenInput{
		BranchID:    f.branch.ID,
		OperatorID:  operator,
		OpeningCash: money.MustParse(opening),
		Turn:        "morning",
	})
	require.NoError(t, err)
	return sh
}

func (f *fixture) move(t *testing.T, shiftID uint, typ models.MovementType, amount, concept string) *models.CashMovement {
	t.Helper()
	mv, err := f.svc.AddMovement(testContext(t), MovementInput{
		BranchID:  f.branch.ID,
		ShiftID:   shiftID,
		Type:      typ,
		Amount:    money.MustParse(amount),
		Concept:   concept,
		CreatedBy: f.cashier.ID,
	})
	require.NoError(t, err)
	return mv
}

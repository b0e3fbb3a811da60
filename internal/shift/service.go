// Package shift runs the cash drawer lifecycle: opening a shift, the
// append-only movement ledger, the reconciled close and the history of closed
// shifts.
package shift

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cashdesk-backend/internal/audit"
	"cashdesk-backend/internal/config"
	"cashdesk-backend/internal/database"
	"cashdesk-backend/internal/denomination"
	"cashdesk-backend/internal/metrics"
	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/money"
	"cashdesk-backend/internal/reconcile"
	"cashdesk-backend/internal/tolerance"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db        *gorm.DB
	tolerance tolerance.Source
	scopes    []string
	log       logrus.FieldLogger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Service)

// WithExclusivity sets which dimensions allow only one open shift. See
// config.ParseExclusivity for the accepted names.
func WithExclusivity(scopes []string) Option {
	return func(s *Service) { s.scopes = scopes }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, tol tolerance.Source, opts ...Option) *Service {
	s := &Service{
		db:        db,
		tolerance: tol,
		scopes:    []string{config.ScopeOperator, config.ScopeRegister},
		log:       logrus.StandardLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type OpenInput struct {
	BranchID    uint
	OperatorID  uint
	RegisterID  *uint
	OpeningCash money.Money
	Turn        string
	Notes       string
}

// Open starts a shift. The shift row, its exclusivity keys and the audit
// entry commit together; a key already held by another open shift rolls the
// whole thing back with a ConflictError.
func (s *Service) Open(ctx context.Context, in OpenInput) (*models.Shift, error) {
	if in.BranchID == 0 {
		return nil, invalid("branch is required")
	}
	if in.OperatorID == 0 {
		return nil, invalid("operator is required")
	}
	if in.OpeningCash.IsNegative() {
		return nil, invalid("opening cash cannot be negative")
	}
	if !in.OpeningCash.InRange() {
		return nil, invalid(fmt.Sprintf("opening cash cannot exceed %s", money.Max))
	}
	in.Turn = strings.TrimSpace(in.Turn)
	if len(in.Turn) > 50 {
		return nil, invalid("turn is too long")
	}
	if len(in.Notes) > 500 {
		return nil, invalid("notes are too long")
	}

	sh := &models.Shift{
		BranchID:    in.BranchID,
		OperatorID:  in.OperatorID,
		RegisterID:  in.RegisterID,
		Turn:        in.Turn,
		OpeningCash: in.OpeningCash,
		OpenedAt:    s.now().UTC(),
		Notes:       in.Notes,
		Status:      models.ShiftOpen,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.RegisterID != nil {
			var reg models.Register
			err := tx.Where("id = ? AND branch_id = ?", *in.RegisterID, in.BranchID).Take(&reg).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid(fmt.Sprintf("register %d does not belong to this branch", *in.RegisterID))
			}
			if err != nil {
				return fmt.Errorf("load register: %w", err)
			}
		}

		if err := tx.Create(sh).Error; err != nil {
			return fmt.Errorf("create shift: %w", err)
		}

		for _, k := range exclusivityKeys(s.scopes, in.BranchID, in.OperatorID, in.RegisterID) {
			err := tx.Create(&models.ShiftLock{Key: k.key, ShiftID: sh.ID}).Error
			if err != nil {
				if database.IsUniqueViolation(err) {
					return conflict(k.describe() + " already has an open shift")
				}
				return fmt.Errorf("lock %s: %w", k.key, err)
			}
		}

		return audit.Write(tx, audit.LogOptions{
			BranchID:    &sh.BranchID,
			UserID:      in.OperatorID,
			EntityType:  audit.EntityShift,
			EntityID:    sh.ID,
			Action:      models.AuditActionOpen,
			Description: fmt.Sprintf("shift opened with %s", sh.OpeningCash),
			After:       sh,
		})
	})
	if err != nil {
		s.countConflict("open", err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ShiftsOpened.Inc()
	}
	s.log.WithFields(logrus.Fields{
		"shift_id":     sh.ID,
		"branch_id":    sh.BranchID,
		"operator_id":  sh.OperatorID,
		"opening_cash": sh.OpeningCash.String(),
	}).Info("shift opened")

	return sh, nil
}

// GetOpen returns the operator's open shift in the branch, or nil when there
// is none.
func (s *Service) GetOpen(ctx context.Context, branchID, operatorID uint) (*models.Shift, error) {
	var sh models.Shift
	err := s.db.WithContext(ctx).
		Where("branch_id = ? AND operator_id = ? AND status = ?", branchID, operatorID, models.ShiftOpen).
		Order("id DESC").
		Take(&sh).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load open shift: %w", err)
	}
	return &sh, nil
}

type CloseInput struct {
	BranchID            uint
	ShiftID             uint
	Counts              denomination.Count
	ClosingCashOverride *money.Money
	Notes               string
	ClosedBy            uint
	OwnedBy             *uint // only close shifts of this operator
}

type Totals struct {
	Income     money.Money `json:"income"`
	Expense    money.Money `json:"expense"`
	Withdrawal money.Money `json:"withdrawal"`
	Net        money.Money `json:"net"`
}

type ClosedSummary struct {
	Shift          *models.Shift            `json:"shift"`
	Movements      []models.CashMovement    `json:"movements"`
	Totals         Totals                   `json:"totals"`
	Counted        money.Money              `json:"counted_total"`
	Lines          []denomination.Line      `json:"denominations"`
	Tolerance      money.Money              `json:"tolerance"`
	Classification reconcile.Classification `json:"classification"`
}

// Close reconciles and closes an open shift in one transaction. The shift row
// is locked first, so every movement that committed before the lock is in the
// expected amount and any later one is rejected by AddMovement.
func (s *Service) Close(ctx context.Context, in CloseInput) (*ClosedSummary, error) {
	if err := in.Counts.Validate(); err != nil {
		return nil, invalid(err.Error())
	}
	if in.ClosingCashOverride != nil {
		if in.ClosingCashOverride.IsNegative() {
			return nil, invalid("closing cash cannot be negative")
		}
		if !in.ClosingCashOverride.InRange() {
			return nil, invalid(fmt.Sprintf("closing cash cannot exceed %s", money.Max))
		}
	}
	if len(in.Notes) > 500 {
		return nil, invalid("notes are too long")
	}
	counted, err := reconcile.Total(in.Counts)
	if err != nil {
		return nil, invalid(err.Error())
	}

	// read before the transaction so a failing source leaves the shift open
	tol, err := s.tolerance.Tolerance(ctx, in.BranchID)
	if err != nil {
		return nil, fmt.Errorf("read tolerance: %w", err)
	}

	var (
		sh        models.Shift
		movements []models.CashMovement
		totals    Totals
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Where("id = ? AND branch_id = ?", in.ShiftID, in.BranchID).
			Take(&sh).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(fmt.Sprintf("shift %d not found", in.ShiftID))
		}
		if err != nil {
			return fmt.Errorf("load shift: %w", err)
		}
		if in.OwnedBy != nil && sh.OperatorID != *in.OwnedBy {
			return notFound(fmt.Sprintf("shift %d not found", in.ShiftID))
		}
		if !sh.IsOpen() {
			return notFound(fmt.Sprintf("shift %d is already closed", in.ShiftID))
		}
		before := sh

		if err := tx.Where("shift_id = ?", sh.ID).Order("created_at, id").Find(&movements).Error; err != nil {
			return fmt.Errorf("load movements: %w", err)
		}

		expected, err := reconcile.Expected(sh.OpeningCash, movements)
		if err != nil {
			return invalid(err.Error())
		}
		closing := counted
		manual := false
		if in.ClosingCashOverride != nil {
			closing = *in.ClosingCashOverride
			manual = !closing.Equal(counted)
		}
		diff, err := reconcile.Difference(expected, closing)
		if err != nil {
			return invalid(err.Error())
		}
		if totals, err = totalsOf(movements); err != nil {
			return invalid(err.Error())
		}
		closedAt := s.now().UTC()

		update := models.Shift{
			Status:         models.ShiftClosed,
			ClosingCash:    &closing,
			ExpectedCash:   &expected,
			CountedCash:    &counted,
			Difference:     &diff,
			ManualOverride: manual,
			Denominations:  in.Counts,
			ClosingNotes:   in.Notes,
			ClosedBy:       &in.ClosedBy,
			ClosedAt:       &closedAt,
		}
		res := tx.Model(&models.Shift{ID: sh.ID}).
			Where("status = ?", models.ShiftOpen).
			Select("status", "closing_cash", "expected_cash", "counted_cash", "difference",
				"manual_override", "denominations", "closing_notes", "closed_by", "closed_at", "updated_at").
			Updates(&update)
		if res.Error != nil {
			return fmt.Errorf("close shift: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return conflict("shift was closed by another request")
		}

		sh.Status = update.Status
		sh.ClosingCash = update.ClosingCash
		sh.ExpectedCash = update.ExpectedCash
		sh.CountedCash = update.CountedCash
		sh.Difference = update.Difference
		sh.ManualOverride = update.ManualOverride
		sh.Denominations = update.Denominations
		sh.ClosingNotes = update.ClosingNotes
		sh.ClosedBy = update.ClosedBy
		sh.ClosedAt = update.ClosedAt

		if err := tx.Where("shift_id = ?", sh.ID).Delete(&models.ShiftLock{}).Error; err != nil {
			return fmt.Errorf("release shift locks: %w", err)
		}

		return audit.Write(tx, audit.LogOptions{
			BranchID:    &sh.BranchID,
			UserID:      in.ClosedBy,
			EntityType:  audit.EntityShift,
			EntityID:    sh.ID,
			Action:      models.AuditActionClose,
			Description: fmt.Sprintf("shift closed, expected %s counted %s difference %s", expected, closing, diff),
			Before:      before,
			After:       sh,
		})
	})
	if err != nil {
		s.countConflict("close", err)
		return nil, err
	}

	class := reconcile.Classify(*sh.Difference, tol)
	if s.metrics != nil {
		s.metrics.ShiftsClosed.WithLabelValues(string(class)).Inc()
	}
	entry := s.log.WithFields(logrus.Fields{
		"shift_id":       sh.ID,
		"branch_id":      sh.BranchID,
		"expected":       sh.ExpectedCash.String(),
		"closing":        sh.ClosingCash.String(),
		"difference":     sh.Difference.String(),
		"classification": class,
	})
	if class == reconcile.WithinTolerance {
		entry.Info("shift closed")
	} else {
		entry.Warn("shift closed outside tolerance")
	}

	return &ClosedSummary{
		Shift:          &sh,
		Movements:      movements,
		Totals:         totals,
		Counted:        counted,
		Lines:          in.Counts.Lines(),
		Tolerance:      tol,
		Classification: class,
	}, nil
}

type Summary struct {
	Shift          *models.Shift            `json:"shift"`
	Movements      []models.CashMovement    `json:"movements"`
	Totals         Totals                   `json:"totals"`
	RunningBalance money.Money              `json:"running_balance"`
	Lines          []denomination.Line      `json:"denominations,omitempty"`
	Tolerance      *money.Money             `json:"tolerance,omitempty"`
	Classification reconcile.Classification `json:"classification,omitempty"`
}

// Summary reports a shift with its ledger. The running balance is always
// derived from the movements, never stored.
func (s *Service) Summary(ctx context.Context, branchID, shiftID uint) (*Summary, error) {
	sh, err := s.load(ctx, branchID, shiftID)
	if err != nil {
		return nil, err
	}
	movements, err := s.movements(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	totals, err := totalsOf(movements)
	if err != nil {
		return nil, err
	}
	balance, err := reconcile.Expected(sh.OpeningCash, movements)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Shift:          sh,
		Movements:      movements,
		Totals:         totals,
		RunningBalance: balance,
	}
	if !sh.IsOpen() && sh.Difference != nil {
		tol, err := s.tolerance.Tolerance(ctx, branchID)
		if err != nil {
			return nil, fmt.Errorf("read tolerance: %w", err)
		}
		sum.Tolerance = &tol
		sum.Classification = reconcile.Classify(*sh.Difference, tol)
		sum.Lines = sh.Denominations.Lines()
	}
	return sum, nil
}

func (s *Service) load(ctx context.Context, branchID, shiftID uint) (*models.Shift, error) {
	var sh models.Shift
	err := s.db.WithContext(ctx).Where("id = ? AND branch_id = ?", shiftID, branchID).Take(&sh).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(fmt.Sprintf("shift %d not found", shiftID))
	}
	if err != nil {
		return nil, fmt.Errorf("load shift: %w", err)
	}
	return &sh, nil
}

func totalsOf(movements []models.CashMovement) (Totals, error) {
	var t Totals
	for _, m := range movements {
		var err error
		switch m.Type {
		case models.MovementIncome:
			t.Income, err = t.Income.Add(m.Amount)
		case models.MovementExpense:
			t.Expense, err = t.Expense.Add(m.Amount)
		case models.MovementWithdrawal:
			t.Withdrawal, err = t.Withdrawal.Add(m.Amount)
		}
		if err == nil {
			t.Net, err = t.Net.Add(m.Signed())
		}
		if err != nil {
			return Totals{}, fmt.Errorf("movement totals: %w", err)
		}
	}
	return t, nil
}

func (s *Service) countConflict(op string, err error) {
	if s.metrics != nil && IsConflict(err) {
		s.metrics.Conflicts.WithLabelValues(op).Inc()
	}
	if IsConflict(err) {
		s.log.WithField("operation", op).WithError(err).Warn("shift conflict")
	}
}

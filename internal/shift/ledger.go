package shift

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cashdesk-backend/internal/audit"
	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/money"
	"cashdesk-backend/internal/reconcile"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MovementInput struct {
	BranchID  uint
	ShiftID   uint
	Type      models.MovementType
	Amount    money.Money
	Concept   string
	Reference string
	CreatedBy uint
	OwnedBy   *uint // only write to shifts of this operator
}

func (in *MovementInput) validate() error {
	if !in.Type.Valid() {
		return invalid(fmt.Sprintf("unknown movement type %q", in.Type))
	}
	if !in.Amount.IsPositive() {
		return invalid("amount must be greater than zero")
	}
	if !in.Amount.InRange() {
		return invalid(fmt.Sprintf("amount cannot exceed %s", money.Max))
	}
	in.Concept = strings.TrimSpace(in.Concept)
	if in.Concept == "" {
		return invalid("concept is required")
	}
	if len(in.Concept) > 255 {
		return invalid("concept is too long")
	}
	in.Reference = strings.TrimSpace(in.Reference)
	if len(in.Reference) > 100 {
		return invalid("reference is too long")
	}
	return nil
}

// AddMovement appends one entry to an open shift's ledger. The shift row is
// share-locked: concurrent movements go through side by side, while a close
// in progress makes the insert wait and then fail with a ConflictError.
func (s *Service) AddMovement(ctx context.Context, in MovementInput) (*models.CashMovement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	mv := &models.CashMovement{
		ShiftID:   in.ShiftID,
		Type:      in.Type,
		Amount:    in.Amount,
		Concept:   in.Concept,
		Reference: in.Reference,
		CreatedBy: in.CreatedBy,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sh models.Shift
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).
			Where("id = ? AND branch_id = ?", in.ShiftID, in.BranchID).
			Take(&sh).Error
		if errors.Is(err, gorm.ErrRecordNotFound) ||
			(err == nil && in.OwnedBy != nil && sh.OperatorID != *in.OwnedBy) {
			return notFound(fmt.Sprintf("shift %d not found", in.ShiftID))
		}
		if err != nil {
			return fmt.Errorf("load shift: %w", err)
		}
		if !sh.IsOpen() {
			return conflict(fmt.Sprintf("shift %d is closed", in.ShiftID))
		}

		var ledger []models.CashMovement
		if err := tx.Where("shift_id = ?", sh.ID).Find(&ledger).Error; err != nil {
			return fmt.Errorf("load movements: %w", err)
		}
		ledger = append(ledger, *mv)
		balance, err := reconcile.Expected(sh.OpeningCash, ledger)
		if err != nil || !balance.InRange() {
			return invalid(fmt.Sprintf("movement would take the drawer balance past %s", money.Max))
		}
		if _, err := totalsOf(ledger); err != nil {
			return invalid(err.Error())
		}

		mv.CreatedAt = s.now().UTC()
		if err := tx.Create(mv).Error; err != nil {
			return fmt.Errorf("create movement: %w", err)
		}

		return audit.Write(tx, audit.LogOptions{
			BranchID:    &sh.BranchID,
			UserID:      in.CreatedBy,
			EntityType:  audit.EntityCashMovement,
			EntityID:    mv.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("%s %s: %s", mv.Type, mv.Amount, mv.Concept),
			After:       mv,
		})
	})
	if err != nil {
		s.countConflict("movement", err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Movements.WithLabelValues(string(mv.Type)).Inc()
	}
	s.log.WithFields(logrus.Fields{
		"shift_id":    mv.ShiftID,
		"movement_id": mv.ID,
		"type":        mv.Type,
		"amount":      mv.Amount.String(),
	}).Info("movement recorded")

	return mv, nil
}

// ListMovements returns the ledger in the order it was written.
func (s *Service) ListMovements(ctx context.Context, branchID, shiftID uint) ([]models.CashMovement, error) {
	if _, err := s.load(ctx, branchID, shiftID); err != nil {
		return nil, err
	}
	return s.movements(ctx, shiftID)
}

func (s *Service) movements(ctx context.Context, shiftID uint) ([]models.CashMovement, error) {
	movements := []models.CashMovement{}
	err := s.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC, id ASC").
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("load movements: %w", err)
	}
	return movements, nil
}

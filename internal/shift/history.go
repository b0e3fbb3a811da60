package shift

import (
	"context"
	"fmt"
	"time"

	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/money"
	"cashdesk-backend/internal/reconcile"
)

const (
	DefaultHistoryLimit = 50
	DefaultStatsSample  = 20
	maxPage             = 500
)

type HistoryFilter struct {
	BranchID   uint
	OperatorID *uint
	From       *time.Time // closed_at >= From
	To         *time.Time // closed_at <= To
	Limit      int
}

func clamp(n, def int) int {
	if n <= 0 {
		return def
	}
	if n > maxPage {
		return maxPage
	}
	return n
}

// ListClosed returns closed shifts, most recently closed first.
func (s *Service) ListClosed(ctx context.Context, f HistoryFilter) ([]models.Shift, error) {
	q := s.db.WithContext(ctx).
		Where("branch_id = ? AND status = ?", f.BranchID, models.ShiftClosed)
	if f.OperatorID != nil {
		q = q.Where("operator_id = ?", *f.OperatorID)
	}
	if f.From != nil {
		q = q.Where("closed_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("closed_at <= ?", f.To.UTC())
	}

	shifts := []models.Shift{}
	err := q.Order("closed_at DESC, id DESC").
		Limit(clamp(f.Limit, DefaultHistoryLimit)).
		Find(&shifts).Error
	if err != nil {
		return nil, fmt.Errorf("list closed shifts: %w", err)
	}
	return shifts, nil
}

type DifferenceStat struct {
	ShiftID        uint                     `json:"shift_id"`
	OperatorID     uint                     `json:"operator_id"`
	ClosedAt       time.Time                `json:"closed_at"`
	Difference     money.Money              `json:"difference"`
	Classification reconcile.Classification `json:"classification"`
}

type Distribution struct {
	SampleSize      int         `json:"sample_size"`
	WithinTolerance int         `json:"within_tolerance"`
	Shortage        int         `json:"shortage"`
	Overage         int         `json:"overage"`
	Sum             money.Money `json:"sum"`
	Min             money.Money `json:"min"`
	Max             money.Money `json:"max"`
}

type DifferenceReport struct {
	Tolerance    money.Money      `json:"tolerance"`
	Items        []DifferenceStat `json:"items"`
	Distribution Distribution     `json:"distribution"`
}

// DifferenceStats lists the stored differences of the n most recently closed
// shifts. Nothing is recomputed from the ledger.
func (s *Service) DifferenceStats(ctx context.Context, branchID uint, n int) ([]DifferenceStat, error) {
	r, err := s.DifferenceReport(ctx, branchID, n)
	if err != nil {
		return nil, err
	}
	return r.Items, nil
}

func (s *Service) DifferenceDistribution(ctx context.Context, branchID uint, n int) (*Distribution, error) {
	r, err := s.DifferenceReport(ctx, branchID, n)
	if err != nil {
		return nil, err
	}
	return &r.Distribution, nil
}

// DifferenceReport reads the tolerance once and classifies the whole sample
// against it.
func (s *Service) DifferenceReport(ctx context.Context, branchID uint, n int) (*DifferenceReport, error) {
	shifts, err := s.ListClosed(ctx, HistoryFilter{BranchID: branchID, Limit: clamp(n, DefaultStatsSample)})
	if err != nil {
		return nil, err
	}
	tol, err := s.tolerance.Tolerance(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("read tolerance: %w", err)
	}

	items := make([]DifferenceStat, 0, len(shifts))
	for _, sh := range shifts {
		diff := money.Zero
		if sh.Difference != nil {
			diff = *sh.Difference
		}
		stat := DifferenceStat{
			ShiftID:        sh.ID,
			OperatorID:     sh.OperatorID,
			Difference:     diff,
			Classification: reconcile.Classify(diff, tol),
		}
		if sh.ClosedAt != nil {
			stat.ClosedAt = *sh.ClosedAt
		}
		items = append(items, stat)
	}

	dist, err := Distribute(items)
	if err != nil {
		return nil, err
	}
	return &DifferenceReport{
		Tolerance:    tol,
		Items:        items,
		Distribution: dist,
	}, nil
}

// Distribute counts the sample per classification. Min and Max are zero for
// an empty sample.
func Distribute(items []DifferenceStat) (Distribution, error) {
	d := Distribution{SampleSize: len(items)}
	for i, it := range items {
		switch it.Classification {
		case reconcile.WithinTolerance:
			d.WithinTolerance++
		case reconcile.Shortage:
			d.Shortage++
		case reconcile.Overage:
			d.Overage++
		}
		sum, err := d.Sum.Add(it.Difference)
		if err != nil {
			return Distribution{}, fmt.Errorf("sum differences: %w", err)
		}
		d.Sum = sum
		if i == 0 || it.Difference.Cmp(d.Min) < 0 {
			d.Min = it.Difference
		}
		if i == 0 || it.Difference.Cmp(d.Max) > 0 {
			d.Max = it.Difference
		}
	}
	return d, nil
}

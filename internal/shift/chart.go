package shift

import (
	"context"
	"fmt"
	"time"

	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/money"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"

	dateLayout = "2006-01-02"
)

type ChartPoint struct {
	Label      string      `json:"label"` // bucket start, YYYY-MM-DD
	Shifts     int         `json:"shifts"`
	Expected   money.Money `json:"expected"`
	Closing    money.Money `json:"closing"`
	Difference money.Money `json:"difference"`
}

type ChartTotals struct {
	Shifts     int         `json:"shifts"`
	Expected   money.Money `json:"expected"`
	Closing    money.Money `json:"closing"`
	Difference money.Money `json:"difference"`
}

type Chart struct {
	BranchID    uint         `json:"branch_id"`
	Period      string       `json:"period"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Points      []ChartPoint `json:"points"`
	GrandTotals ChartTotals  `json:"grand_totals"`
}

// defaultBuckets is how far back a chart reaches when count is not given.
func defaultBuckets(period string) int {
	switch period {
	case PeriodWeekly:
		return 8
	case PeriodMonthly:
		return 12
	default:
		return 7
	}
}

func bucketStart(t time.Time, period string) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case PeriodWeekly:
		// weeks start on Monday
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

func nextBucket(t time.Time, period string) time.Time {
	switch period {
	case PeriodWeekly:
		return t.AddDate(0, 0, 7)
	case PeriodMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// DifferenceChart buckets the closed shifts of the last count periods (the
// current one included) by closing date. Every bucket in the range is
// present, empty ones with zero totals.
func (s *Service) DifferenceChart(ctx context.Context, branchID uint, period string, count int) (*Chart, error) {
	switch period {
	case "":
		period = PeriodDaily
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
	default:
		return nil, invalid("period must be daily, weekly or monthly")
	}
	if count < 0 {
		return nil, invalid("count must be positive")
	}
	count = clamp(count, defaultBuckets(period))

	start := bucketStart(s.now(), period)
	for i := 1; i < count; i++ {
		switch period {
		case PeriodWeekly:
			start = start.AddDate(0, 0, -7)
		case PeriodMonthly:
			start = start.AddDate(0, -1, 0)
		default:
			start = start.AddDate(0, 0, -1)
		}
	}

	points := make([]ChartPoint, 0, count)
	index := make(map[time.Time]int, count)
	b := start
	for i := 0; i < count; i++ {
		index[b] = i
		points = append(points, ChartPoint{Label: b.Format(dateLayout)})
		b = nextBucket(b, period)
	}
	end := b

	var shifts []models.Shift
	err := s.db.WithContext(ctx).
		Where("branch_id = ? AND status = ? AND closed_at >= ? AND closed_at < ?",
			branchID, models.ShiftClosed, start, end).
		Find(&shifts).Error
	if err != nil {
		return nil, fmt.Errorf("load chart shifts: %w", err)
	}

	chart := &Chart{
		BranchID: branchID,
		Period:   period,
		From:     start.Format(dateLayout),
		To:       end.AddDate(0, 0, -1).Format(dateLayout),
	}
	for _, sh := range shifts {
		if sh.ClosedAt == nil {
			continue
		}
		i, ok := index[bucketStart(*sh.ClosedAt, period)]
		if !ok {
			continue
		}
		p := &points[i]
		p.Shifts++
		if err := accumulate(&p.Expected, sh.ExpectedCash); err != nil {
			return nil, err
		}
		if err := accumulate(&p.Closing, sh.ClosingCash); err != nil {
			return nil, err
		}
		if err := accumulate(&p.Difference, sh.Difference); err != nil {
			return nil, err
		}
	}
	for i := range points {
		p := &points[i]
		chart.GrandTotals.Shifts += p.Shifts
		for _, pair := range [][2]*money.Money{
			{&chart.GrandTotals.Expected, &p.Expected},
			{&chart.GrandTotals.Closing, &p.Closing},
			{&chart.GrandTotals.Difference, &p.Difference},
		} {
			if err := accumulate(pair[0], pair[1]); err != nil {
				return nil, err
			}
		}
	}
	chart.Points = points
	return chart, nil
}

func accumulate(dst *money.Money, v *money.Money) error {
	if v == nil {
		return nil
	}
	sum, err := dst.Add(*v)
	if err != nil {
		return fmt.Errorf("chart totals: %w", err)
	}
	*dst = sum
	return nil
}

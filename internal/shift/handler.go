package shift

import (
	"strconv"
	"strings"
	"time"

	"cashdesk-backend/internal/auth"
	"cashdesk-backend/internal/denomination"
	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/money"

	"github.com/gofiber/fiber/v2"
)

type OpenShiftRequest struct {
	RegisterID  *uint       `json:"register_id"`
	OpeningCash money.Money `json:"opening_cash"`
	Turn        string      `json:"turn"`
	Notes       string      `json:"notes"`
}

type MovementRequest struct {
	Type      models.MovementType `json:"type"`
	Amount    money.Money         `json:"amount"`
	Concept   string              `json:"concept"`
	Reference string              `json:"reference"`
}

type CloseShiftRequest struct {
	Denominations denomination.Count `json:"denominations"`
	ClosingCash   *money.Money       `json:"closing_cash"`
	Notes         string             `json:"notes"`
}

// ownedBy pins cashier writes to their own shifts; admins act on any shift of
// the branch. Reads stay branch-wide.
func ownedBy(id auth.Identity) *uint {
	if id.Role == models.RoleCashier {
		uid := id.UserID
		return &uid
	}
	return nil
}

func shiftIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid shift id")
	}
	return uint(id), nil
}

// POST /api/shifts
func OpenShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.BranchScope(c)
		if err != nil {
			return err
		}

		var body OpenShiftRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		sh, err := svc.Open(c.UserContext(), OpenInput{
			BranchID:    id.BranchID,
			OperatorID:  id.UserID,
			RegisterID:  body.RegisterID,
			OpeningCash: body.OpeningCash,
			Turn:        body.Turn,
			Notes:       body.Notes,
		})
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(sh)
	}
}

// GET /api/shifts/current
func CurrentShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.BranchScope(c)
		if err != nil {
			return err
		}

		sh, err := svc.GetOpen(c.UserContext(), id.BranchID, id.UserID)
		if err != nil {
			return httpError(err)
		}
		if sh == nil {
			return c.JSON(fiber.Map{"shift": nil})
		}

		sum, err := svc.Summary(c.UserContext(), id.BranchID, sh.ID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(sum)
	}
}

// GET /api/shifts/:id
func ShiftSummaryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.BranchScope(c)
		if err != nil {
			return err
		}
		shiftID, err := shiftIDParam(c)
		if err != nil {
			return err
		}

		sum, err := svc.Summary(c.UserContext(), id.BranchID, shiftID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(sum)
	}
}

// GET /api/shifts/:id/movements
func ListMovementsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.BranchScope(c)
		if err != nil {
			return err
		}
		shiftID, err := shiftIDParam(c)
		if err != nil {
			return err
		}

		movements, err := svc.ListMovements(c.UserContext(), id.BranchID, shiftID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(movements)
	}
}

// POST /api/shifts/:id/movements
func AddMovementHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.BranchScope(c)
		if err != nil {
			return err
		}
		shiftID, err := shiftIDParam(c)
		if err != nil {
			return err
		}

		var body MovementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		mv, err := svc.AddMovement(c.UserContext(), MovementInput{
			BranchID:  id.BranchID,
			ShiftID:   shiftID,
			Type:      body.Type,
			Amount:    body.Amount,
			Concept:   body.Concept,
			Reference: body.Reference,
			CreatedBy: id.UserID,
			OwnedBy:   ownedBy(id),
		})
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(mv)
	}
}

// POST /api/shifts/:id/close
func CloseShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.BranchScope(c)
		if err != nil {
			return err
		}
		shiftID, err := shiftIDParam(c)
		if err != nil {
			return err
		}

		var body CloseShiftRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		sum, err := svc.Close(c.UserContext(), CloseInput{
			BranchID:            id.BranchID,
			ShiftID:             shiftID,
			Counts:              body.Denominations,
			ClosingCashOverride: body.ClosingCash,
			Notes:               body.Notes,
			ClosedBy:            id.UserID,
			OwnedBy:             ownedBy(id),
		})
		if err != nil {
			return httpError(err)
		}
		return c.JSON(sum)
	}
}

// GET /api/shifts/history?operator_id=&from=&to=&limit=
func HistoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.BranchScope(c)
		if err != nil {
			return err
		}

		f := HistoryFilter{BranchID: id.BranchID, Limit: c.QueryInt("limit", DefaultHistoryLimit)}
		if raw := c.Query("operator_id"); raw != "" {
			op, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid operator_id")
			}
			opID := uint(op)
			f.OperatorID = &opID
		}
		if f.From, err = parseBound(c.Query("from"), false); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid from, use YYYY-MM-DD or RFC3339")
		}
		if f.To, err = parseBound(c.Query("to"), true); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid to, use YYYY-MM-DD or RFC3339")
		}

		shifts, err := svc.ListClosed(c.UserContext(), f)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(shifts)
	}
}

// GET /api/shifts/stats/differences?n=20
func DifferenceStatsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.BranchScope(c)
		if err != nil {
			return err
		}

		report, err := svc.DifferenceReport(c.UserContext(), id.BranchID, c.QueryInt("n", DefaultStatsSample))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(report)
	}
}

// GET /api/shifts/stats/chart?period=weekly&count=8
func DifferenceChartHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.BranchScope(c)
		if err != nil {
			return err
		}

		chart, err := svc.DifferenceChart(c.UserContext(), id.BranchID, c.Query("period", PeriodDaily), c.QueryInt("count", 0))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(chart)
	}
}

// GET /api/denominations
func DenominationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(denomination.All())
	}
}

// parseBound accepts RFC3339 or a bare date. A bare date used as an upper
// bound covers the whole day. An unencoded "+05:00" offset arrives as
// " 05:00" after query decoding and is restored.
func parseBound(raw string, upper bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	raw = strings.Replace(raw, " ", "+", 1)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

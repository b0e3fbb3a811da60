package shift

import "github.com/gofiber/fiber/v2"

// Routes mounts the shift API on r, which must already run the JWT
// middleware. Static paths come before /:id.
func Routes(r fiber.Router, svc *Service) {
	r.Get("/denominations", DenominationsHandler())

	shifts := r.Group("/shifts")
	shifts.Post("/", OpenShiftHandler(svc))
	shifts.Get("/current", CurrentShiftHandler(svc))
	shifts.Get("/history", HistoryHandler(svc))
	shifts.Get("/stats/differences", DifferenceStatsHandler(svc))
	shifts.Get("/stats/chart", DifferenceChartHandler(svc))
	shifts.Get("/:id", ShiftSummaryHandler(svc))
	shifts.Get("/:id/movements", ListMovementsHandler(svc))
	shifts.Post("/:id/movements", AddMovementHandler(svc))
	shifts.Post("/:id/close", CloseShiftHandler(svc))
}

package admin

import (
	"cashdesk-backend/internal/auth"
	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/tolerance"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Routes mounts the admin API on r (already behind the JWT middleware).
// Branch-level routes are open to the branch's own admin as well.
func Routes(r fiber.Router, db *gorm.DB, src tolerance.Source, w tolerance.Writer) {
	root := auth.RequireRole(models.RoleSuperAdmin)
	scoped := auth.RequireRole(models.RoleSuperAdmin, models.RoleBranchAdmin)

	r.Post("/admin/branches", root, CreateBranchHandler(db))
	r.Get("/admin/branches", root, ListBranchesHandler(db))

	r.Get("/admin/branches/:id", scoped, GetBranchHandler(db))
	r.Put("/admin/branches/:id", scoped, UpdateBranchHandler(db))
	r.Post("/admin/branches/:id/users", scoped, CreateBranchUserHandler(db))
	r.Get("/admin/branches/:id/users", scoped, ListBranchUsersHandler(db))
	r.Post("/admin/branches/:id/registers", scoped, CreateRegisterHandler(db))
	r.Get("/admin/branches/:id/registers", scoped, ListRegistersHandler(db))
	r.Get("/admin/branches/:id/settings/cash-tolerance", scoped, GetCashToleranceHandler(db, src))
	r.Put("/admin/branches/:id/settings/cash-tolerance", scoped, SetCashToleranceHandler(db, src, w))
}

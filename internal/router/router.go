// Package router wires handlers, middleware and routes onto the Echo
// instance.
package router

import (
	"database/sql"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/hostelhq/hostel-management/internal/config"
	"github.com/hostelhq/hostel-management/internal/handler"
	"github.com/hostelhq/hostel-management/internal/middleware"
	"github.com/hostelhq/hostel-management/internal/model"
)

// Deps bundles everything the route table needs.
type Deps struct {
	Cfg   *config.Config
	DB    *sql.DB
	Redis *redis.Client // may be nil

	Auth        *handler.AuthHandler
	Hostels     *handler.HostelHandler
	Rooms       *handler.RoomHandler
	Semesters   *handler.SemesterHandler
	Enrollments *handler.EnrollmentHandler
	Billing     *handler.BillingHandler
	Public      *handler.PublicHandler

	SubscriptionCheck middleware.SubscriptionChecker
}

// New builds the Echo instance with the full route table.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	e.GET("/healthz", handler.Health(d.DB))

	v1 := e.Group("/v1", middleware.RateLimit(d.Redis, 60, time.Second))

	auth := v1.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout)

	jwt := middleware.JWTAuth(d.Cfg.JWTSecret)
	auth.GET("/me", d.Auth.Me, jwt)

	browse := v1.Group("/browse", middleware.ResponseCache(d.Redis, 5*time.Minute))
	browse.GET("/hostels", d.Public.ListHostels)
	browse.GET("/hostels/:id/rooms", d.Public.ListRooms)
	browse.GET("/plans", d.Public.ListPlans)

	// Super admin: platform-wide resources.
	super := v1.Group("", jwt, middleware.RequireRole(model.RoleSuperAdmin))
	super.GET("/hostels", d.Hostels.List)
	super.POST("/global-semesters", d.Semesters.CreateGlobal)
	super.GET("/global-semesters", d.Semesters.ListGlobal)
	super.PUT("/global-semesters/:id", d.Semesters.UpdateGlobal)
	super.DELETE("/global-semesters/:id", d.Semesters.DeleteGlobal)
	super.POST("/plans", d.Billing.CreatePlan)
	super.GET("/plans", d.Billing.ListPlans)
	super.PUT("/plans/:id/retire", d.Billing.RetirePlan)

	// Hostel admin, ungated: onboarding and billing must work while
	// the subscription is lapsed, or the admin could never renew.
	admin := v1.Group("", jwt, middleware.RequireRole(model.RoleHostelAdmin))
	admin.POST("/hostels", d.Hostels.Create)
	admin.GET("/hostels/me", d.Hostels.Mine)
	admin.PUT("/hostels/me", d.Hostels.Update)
	admin.POST("/staff", d.Hostels.CreateStaff)
	admin.POST("/subscriptions", d.Billing.Subscribe)
	admin.GET("/subscriptions", d.Billing.ListSubscriptions)

	// Hostel staff, gated on an active subscription.
	gate := middleware.RequireActiveSubscription(d.SubscriptionCheck)
	staff := v1.Group("", jwt, middleware.RequireRole(model.RoleHostelAdmin, model.RoleCustodian), gate)
	staff.POST("/rooms", d.Rooms.Create)
	staff.GET("/rooms", d.Rooms.List)
	staff.PUT("/rooms/:id", d.Rooms.Update)
	staff.PUT("/rooms/:id/status", d.Rooms.SetStatus)
	staff.POST("/rooms/:id/vacate", d.Rooms.Vacate)
	staff.DELETE("/rooms/:id", d.Rooms.Delete)

	staff.POST("/semesters", d.Semesters.Create)
	staff.GET("/semesters", d.Semesters.List)
	staff.PUT("/semesters/:id/current", d.Semesters.SetCurrent)
	staff.POST("/semesters/:id/rollover", d.Semesters.Rollover)
	staff.POST("/semesters/:id/cancel", d.Semesters.Cancel)
	staff.GET("/semesters/:id/enrollments", d.Enrollments.ListBySemester)

	staff.POST("/enrollments", d.Enrollments.Register)
	staff.PUT("/enrollments/:id/status", d.Enrollments.UpdateStatus)
	staff.POST("/enrollments/:id/drop", d.Enrollments.Drop)
	staff.POST("/enrollments/:id/transfer", d.Enrollments.Transfer)

	staff.POST("/payments", d.Billing.RecordPayment)
	staff.GET("/payments", d.Billing.ListPayments)
	staff.GET("/reports/semesters/:id/payments", d.Billing.SemesterRevenue)
	staff.POST("/expenses", d.Billing.RecordExpense)
	staff.GET("/expenses", d.Billing.ListExpenses)

	// Student self-service.
	me := v1.Group("/me", jwt, middleware.RequireRole(model.RoleStudent))
	me.GET("/enrollments", d.Enrollments.MyEnrollments)
	me.GET("/assignments", d.Enrollments.MyAssignments)

	return e
}

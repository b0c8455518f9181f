package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hostelhq/hostel-management/internal/lifecycle"
	"github.com/hostelhq/hostel-management/internal/middleware"
	"github.com/hostelhq/hostel-management/internal/model"
	"github.com/hostelhq/hostel-management/internal/repository"
)

// BillingHandler covers subscription plans, hostel subscriptions,
// payments and expenses.
type BillingHandler struct {
	Plans         *repository.PlanRepo
	Subscriptions *repository.SubscriptionRepo
	Payments      *repository.PaymentRepo
	Engine        *lifecycle.SubscriptionEngine
}

func NewBillingHandler(plans *repository.PlanRepo, subs *repository.SubscriptionRepo, payments *repository.PaymentRepo, engine *lifecycle.SubscriptionEngine) *BillingHandler {
	return &BillingHandler{Plans: plans, Subscriptions: subs, Payments: payments, Engine: engine}
}

// CreatePlan handles POST /v1/plans (super admin).
func (h *BillingHandler) CreatePlan(c echo.Context) error {
	var body struct {
		Name         string `json:"name"`
		PriceCents   uint32 `json:"price_cents"`
		DurationDays int    `json:"duration_days"`
		MaxRooms     int    `json:"max_rooms"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" || body.DurationDays <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive duration_days are required"})
	}
	id, err := h.Plans.Create(c.Request().Context(), strings.TrimSpace(body.Name), body.PriceCents, body.DurationDays, body.MaxRooms)
	if err != nil {
		return engineError(c, err)
	}
	plan, err := h.Plans.GetByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, plan)
}

// ListPlans handles GET /v1/plans.
func (h *BillingHandler) ListPlans(c echo.Context) error {
	items, err := h.Plans.ListActive(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// RetirePlan handles PUT /v1/plans/:id/retire (super admin).  Running
// subscriptions on the plan are unaffected.
func (h *BillingHandler) RetirePlan(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Plans.GetByID(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	if err := h.Plans.Retire(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Subscribe handles POST /v1/subscriptions: first subscription and
// renewal are the same operation.
func (h *BillingHandler) Subscribe(c echo.Context) error {
	hostelID := middleware.HostelID(c)
	if hostelID == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "onboard a hostel first"})
	}
	var body struct {
		PlanID          uint64 `json:"plan_id"`
		AmountPaidCents uint32 `json:"amount_paid_cents"`
	}
	if err := c.Bind(&body); err != nil || body.PlanID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plan_id is required"})
	}
	sub, err := h.Engine.Subscribe(c.Request().Context(), hostelID, body.PlanID, body.AmountPaidCents, timeNow())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, sub)
}

// ListSubscriptions handles GET /v1/subscriptions: the hostel's
// billing history, newest first.
func (h *BillingHandler) ListSubscriptions(c echo.Context) error {
	items, err := h.Subscriptions.ListByHostel(c.Request().Context(), middleware.HostelID(c))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// RecordPayment handles POST /v1/payments: a standalone payment not
// tied to a registration, e.g. a mid-term top-up.
func (h *BillingHandler) RecordPayment(c echo.Context) error {
	var body struct {
		UserID      uint64  `json:"user_id"`
		SemesterID  *uint64 `json:"semester_id"`
		AmountCents uint32  `json:"amount_cents"`
		Method      string  `json:"method"`
		Reference   *string `json:"reference"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.UserID == 0 || body.AmountCents == 0 || strings.TrimSpace(body.Method) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id, amount_cents and method are required"})
	}
	p := &model.Payment{
		HostelID:    middleware.HostelID(c),
		UserID:      body.UserID,
		SemesterID:  body.SemesterID,
		AmountCents: body.AmountCents,
		Method:      strings.TrimSpace(body.Method),
		Reference:   body.Reference,
		PaidAt:      timeNow(),
	}
	if err := h.Payments.Insert(c.Request().Context(), p); err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListPayments handles GET /v1/payments.
func (h *BillingHandler) ListPayments(c echo.Context) error {
	items, err := h.Payments.ListByHostel(c.Request().Context(), middleware.HostelID(c))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SemesterRevenue handles GET /v1/reports/semesters/:id/payments.
func (h *BillingHandler) SemesterRevenue(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	total, err := h.Payments.SumBySemester(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"semester_id": id, "total_cents": total})
}

// RecordExpense handles POST /v1/expenses.
func (h *BillingHandler) RecordExpense(c echo.Context) error {
	var body struct {
		Category    string  `json:"category"`
		Title       string  `json:"title"`
		AmountCents uint32  `json:"amount_cents"`
		SpentOn     string  `json:"spent_on"`
		Notes       *string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Title) == "" || body.AmountCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and a non-zero amount_cents are required"})
	}
	spentOn, err := time.ParseInLocation(dateLayout, body.SpentOn, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "spent_on must be YYYY-MM-DD"})
	}
	e := &model.Expense{
		HostelID:    middleware.HostelID(c),
		Category:    strings.TrimSpace(body.Category),
		Title:       strings.TrimSpace(body.Title),
		AmountCents: body.AmountCents,
		SpentOn:     spentOn,
		Notes:       body.Notes,
	}
	if err := h.Payments.InsertExpense(c.Request().Context(), e); err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

// ListExpenses handles GET /v1/expenses?from=&to=.
func (h *BillingHandler) ListExpenses(c echo.Context) error {
	from, to := monthRange(timeNow())
	if v := c.QueryParam("from"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.UTC)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
		}
		from = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.UTC)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
		}
		to = t
	}
	items, err := h.Payments.ListExpenses(c.Request().Context(), middleware.HostelID(c), from, to)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// monthRange returns the first and last day of now's month.
func monthRange(now time.Time) (time.Time, time.Time) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

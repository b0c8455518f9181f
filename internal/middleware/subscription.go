package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// SubscriptionChecker reports whether the hostel currently holds an
// active, unexpired subscription.
type SubscriptionChecker func(ctx context.Context, hostelID uint64) (bool, error)

// subscriptionCacheTTL bounds how stale the gate's answer may be.  A
// renewal becomes visible within this window without hitting the
// database on every admin request.
const subscriptionCacheTTL = 10 * time.Second

type gateEntry struct {
	active  bool
	checked time.Time
}

// RequireActiveSubscription gates hostel admin features behind an
// active subscription.  Requests from hostels without one get 402.
// Answers are cached in-process per hostel for a few seconds.
func RequireActiveSubscription(check SubscriptionChecker) echo.MiddlewareFunc {
	var mu sync.Mutex
	cache := make(map[uint64]gateEntry)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			hostelID := HostelID(c)
			if hostelID == 0 {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "no hostel attached to account"})
			}

			mu.Lock()
			entry, ok := cache[hostelID]
			mu.Unlock()

			if !ok || time.Since(entry.checked) > subscriptionCacheTTL {
				active, err := check(c.Request().Context(), hostelID)
				if err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "subscription check failed"})
				}
				entry = gateEntry{active: active, checked: time.Now()}
				mu.Lock()
				cache[hostelID] = entry
				mu.Unlock()
			}

			if !entry.active {
				return c.JSON(http.StatusPaymentRequired, echo.Map{
					"error": "subscription required",
				})
			}
			return next(c)
		}
	}
}

package queue

import (
	"fmt"
	"strings"

	"github.com/hostelhq/hostel-management/internal/notify"
)

// Render turns an event into an email subject and body.  Unknown
// kinds get a generic rendering rather than an error so a newer
// publisher never wedges an older consumer.
func Render(ev NotificationEvent) (subject, body string) {
	switch ev.Kind {
	case notify.KindSemesterEnding:
		subject = fmt.Sprintf("Semester %v has ended", ev.Data["semester_name"])
		body = fmt.Sprintf(
			"Hello,\n\nThe semester %v (%v) ended on %v. Your enrollment has been marked completed and your room assignment closed.\n",
			ev.Data["semester_name"], ev.Data["academic_year"], ev.Data["end_date"])
	case notify.KindSemesterUpcoming:
		subject = fmt.Sprintf("Semester %v starts in %v day(s)", ev.Data["semester_name"], ev.Data["days_until_start"])
		body = fmt.Sprintf(
			"Hello,\n\nThe semester %v (%v) starts on %v, %v day(s) from now.\n",
			ev.Data["semester_name"], ev.Data["academic_year"], ev.Data["start_date"], ev.Data["days_until_start"])
	case notify.KindSubscriptionExpiring:
		if ev.Data["digest"] == true {
			subject = "Subscriptions expiring within 30 days"
			var b strings.Builder
			b.WriteString("Hello,\n\nThe following hostel subscriptions expire within the next 30 days:\n\n")
			if subs, ok := ev.Data["subscriptions"].([]any); ok {
				for _, raw := range subs {
					if entry, ok := raw.(map[string]any); ok {
						fmt.Fprintf(&b, "  - %v (hostel %v): expires %v, %v day(s) left\n",
							entry["hostel_name"], entry["hostel_id"], entry["end_date"], entry["days_left"])
					}
				}
			} else if subs, ok := ev.Data["subscriptions"].([]map[string]any); ok {
				for _, entry := range subs {
					fmt.Fprintf(&b, "  - %v (hostel %v): expires %v, %v day(s) left\n",
						entry["hostel_name"], entry["hostel_id"], entry["end_date"], entry["days_left"])
				}
			}
			body = b.String()
		} else {
			subject = fmt.Sprintf("Your subscription expires in %v day(s)", ev.Data["days_left"])
			body = fmt.Sprintf(
				"Hello,\n\nYour hostel subscription expires on %v (%v day(s) left). Renew before then to keep admin features available.\n",
				ev.Data["end_date"], ev.Data["days_left"])
		}
	case notify.KindSubscriptionExpired:
		subject = "Your subscription has expired"
		body = fmt.Sprintf(
			"Hello,\n\nYour hostel subscription expired on %v. Admin features are locked until you renew.\n",
			ev.Data["end_date"])
	default:
		subject = fmt.Sprintf("Notification: %s", ev.Kind)
		body = fmt.Sprintf("Hello,\n\nYou have a new %s notification.\n", ev.Kind)
	}
	return subject, body
}

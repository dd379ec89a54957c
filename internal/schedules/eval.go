// Package schedules evaluates attention schedules against a point in time,
// driving the off-hours automatic reply on inbound messages.
package schedules

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rasencioDatabrain/ChatManager/internal/models"
)

// Actions a time range can carry.
const (
	ActionAgent     = "agent"      // transfer to a human agent
	ActionAutoReply = "auto_reply" // answer automatically
	ActionNotify    = "notify"     // send an internal notification
)

var dayNames = map[time.Weekday]string{
	time.Monday:    "mon",
	time.Tuesday:   "tue",
	time.Wednesday: "wed",
	time.Thursday:  "thu",
	time.Friday:    "fri",
	time.Saturday:  "sat",
	time.Sunday:    "sun",
}

// Covers reports whether the range's weekly window contains t. Ranges whose
// end time precedes their start time wrap past midnight.
func Covers(r models.TimeRange, t time.Time) bool {
	if !containsDay(r.Days, dayNames[t.Weekday()]) {
		return false
	}
	now := t.Format("15:04")
	if r.StartTime == "" || r.EndTime == "" {
		return false
	}
	if r.StartTime <= r.EndTime {
		return now >= r.StartTime && now <= r.EndTime
	}
	return now >= r.StartTime || now <= r.EndTime
}

// HasAction reports whether the range carries the given action.
func HasAction(r models.TimeRange, action string) bool {
	for _, a := range strings.Split(r.Actions, ",") {
		if strings.TrimSpace(a) == action {
			return true
		}
	}
	return false
}

func containsDay(days, day string) bool {
	for _, d := range strings.Split(days, ",") {
		if strings.TrimSpace(strings.ToLower(d)) == day {
			return true
		}
	}
	return false
}

// AgentsAvailable reports whether any stored time range covering t routes
// to a human agent. With no schedules configured, agents are assumed
// available and no automatic reply fires.
func AgentsAvailable(db *gorm.DB, t time.Time) (bool, error) {
	var ranges []models.TimeRange
	if err := db.Find(&ranges).Error; err != nil {
		return false, err
	}
	if len(ranges) == 0 {
		return true, nil
	}
	for _, r := range ranges {
		if Covers(r, t) && HasAction(r, ActionAgent) {
			return true, nil
		}
	}
	return false, nil
}

package schedules

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rasencioDatabrain/ChatManager/internal/models"
)

// 2025-10-06 is a Monday.
func monday(hour, min int) time.Time {
	return time.Date(2025, 10, 6, hour, min, 0, 0, time.UTC)
}

func TestCovers(t *testing.T) {
	office := models.TimeRange{StartTime: "09:00", EndTime: "18:00", Days: "mon,tue,wed,thu,fri"}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"inside", monday(10, 30), true},
		{"start boundary", monday(9, 0), true},
		{"end boundary", monday(18, 0), true},
		{"before opening", monday(8, 59), false},
		{"after closing", monday(18, 1), false},
		{"weekend", monday(10, 30).AddDate(0, 0, 5), false}, // Saturday
	}
	for _, tc := range cases {
		if got := Covers(office, tc.at); got != tc.want {
			t.Errorf("%s: Covers = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCoversWrapsMidnight(t *testing.T) {
	night := models.TimeRange{StartTime: "22:00", EndTime: "06:00", Days: "mon"}

	if !Covers(night, monday(23, 0)) {
		t.Error("23:00 should fall in the 22:00-06:00 window")
	}
	if !Covers(night, monday(2, 0)) {
		t.Error("02:00 should fall in the 22:00-06:00 window")
	}
	if Covers(night, monday(12, 0)) {
		t.Error("12:00 should fall outside the 22:00-06:00 window")
	}
}

func TestCoversEmptyTimes(t *testing.T) {
	if Covers(models.TimeRange{Days: "mon"}, monday(10, 0)) {
		t.Error("range without start/end must not cover anything")
	}
}

func TestHasAction(t *testing.T) {
	r := models.TimeRange{Actions: "agent, notify"}
	if !HasAction(r, ActionAgent) {
		t.Error("agent action not detected")
	}
	if !HasAction(r, ActionNotify) {
		t.Error("notify action not detected")
	}
	if HasAction(r, ActionAutoReply) {
		t.Error("auto_reply detected but not present")
	}
}

var testDBSeq int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:schedtest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.Schedule{}, &models.TimeRange{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestAgentsAvailableNoSchedules(t *testing.T) {
	db := openTestDB(t)
	ok, err := AgentsAvailable(db, monday(3, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("with no schedules configured agents must be considered available")
	}
}

func TestAgentsAvailableFollowsRanges(t *testing.T) {
	db := openTestDB(t)
	sched := models.Schedule{
		Name: "Horario de oficina",
		TimeRanges: []models.TimeRange{
			{StartTime: "09:00", EndTime: "18:00", Days: "mon,tue,wed,thu,fri", Actions: "agent"},
			{StartTime: "18:01", EndTime: "08:59", Days: "mon,tue,wed,thu,fri", Actions: "auto_reply"},
		},
	}
	if err := db.Create(&sched).Error; err != nil {
		t.Fatal(err)
	}

	ok, err := AgentsAvailable(db, monday(11, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("agents should be available during office hours")
	}

	ok, err = AgentsAvailable(db, monday(22, 0))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("agents should not be available at night")
	}
}

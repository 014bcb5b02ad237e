package utils

import (
	"log"
	"time"

	"lms/database"
	courseModels "lms/models/course"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[AGGREGATE-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// reconcileCourseAggregates recomputes the denormalized aggregate fields of
// every course from the authoritative enrollment and lecture sets. Catches
// any drift left behind by best-effort inline updates.
func reconcileCourseAggregates() {
	db := database.Database.Db

	var courseIDs []uint
	if err := db.Model(&courseModels.Course{}).
		Where("is_deleted = ?", false).
		Pluck("id", &courseIDs).Error; err != nil {
		logScheduler("Error fetching courses: " + err.Error())
		return
	}

	for _, id := range courseIDs {
		if err := RecomputeCourseAggregates(db, id); err != nil {
			logScheduler("Error recomputing aggregates: " + err.Error())
			continue
		}
		if err := RefreshCourseTotals(db, id); err != nil {
			logScheduler("Error refreshing totals: " + err.Error())
		}
	}

	logScheduler("Reconciliation completed")
}

// StartAggregateScheduler runs the nightly aggregate reconciliation job
func StartAggregateScheduler() *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc("@daily", reconcileCourseAggregates); err != nil {
		log.Fatalf("Failed to schedule aggregate reconciliation: %v", err)
	}

	c.Start()
	logScheduler("Scheduler started")
	return c
}

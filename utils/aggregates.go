package utils

import (
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// CourseStats is the aggregation result over a course's enrollments
type CourseStats struct {
	TotalEnrollments int64   `json:"total_enrollments"`
	AverageProgress  float64 `json:"average_progress"`
	CompletedCount   int64   `json:"completed_count"`
	AverageRating    float64 `json:"average_rating"`
	ReviewCount      int64   `json:"review_count"`
}

// GetCourseStats computes enrollment statistics for a course from the
// authoritative enrollment set.
func GetCourseStats(db *gorm.DB, courseID uint) (CourseStats, error) {
	var stats CourseStats

	enrollments := func() *gorm.DB {
		return db.Model(&courseModels.Enrollment{}).
			Where("course_id = ? AND is_deleted = ?", courseID, false)
	}

	if err := enrollments().Count(&stats.TotalEnrollments).Error; err != nil {
		return stats, err
	}
	if err := enrollments().Select("COALESCE(AVG(progress), 0)").Scan(&stats.AverageProgress).Error; err != nil {
		return stats, err
	}
	if err := enrollments().Where("progress = ?", 100).Count(&stats.CompletedCount).Error; err != nil {
		return stats, err
	}
	if err := enrollments().Where("rating IS NOT NULL").Count(&stats.ReviewCount).Error; err != nil {
		return stats, err
	}
	if err := enrollments().Where("rating IS NOT NULL").
		Select("COALESCE(AVG(rating), 0)").Scan(&stats.AverageRating).Error; err != nil {
		return stats, err
	}

	return stats, nil
}

// RecomputeCourseAggregates recomputes the course's denormalized aggregate
// fields (students count, average rating, review count) from its enrollment
// set. This is the only code path that writes these fields.
func RecomputeCourseAggregates(db *gorm.DB, courseID uint) error {
	stats, err := GetCourseStats(db, courseID)
	if err != nil {
		return err
	}

	return db.Model(&courseModels.Course{}).
		Where("id = ?", courseID).
		Updates(map[string]interface{}{
			"students_count": stats.TotalEnrollments,
			"average_rating": stats.AverageRating,
			"review_count":   stats.ReviewCount,
		}).Error
}

// RefreshCourseTotals recomputes the course's total lecture count and total
// duration (minutes, each lecture rounded up) from its lecture rows. Called
// after every curriculum mutation.
func RefreshCourseTotals(db *gorm.DB, courseID uint) error {
	var totalLectures int64
	if err := db.Model(&courseModels.Lecture{}).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Count(&totalLectures).Error; err != nil {
		return err
	}

	var totalDuration int64
	if err := db.Model(&courseModels.Lecture{}).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Select("COALESCE(SUM((video_duration + 59) / 60), 0)").
		Scan(&totalDuration).Error; err != nil {
		return err
	}

	return db.Model(&courseModels.Course{}).
		Where("id = ?", courseID).
		Updates(map[string]interface{}{
			"total_lectures": totalLectures,
			"total_duration": totalDuration,
		}).Error
}

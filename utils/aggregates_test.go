package utils

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDb(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A private in-memory database exists per connection; pin to one
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&courseModels.Course{},
		&courseModels.Section{},
		&courseModels.Lecture{},
		&courseModels.Enrollment{},
		&courseModels.LectureCompletion{},
	))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return db
}

func intPtr(v int) *int { return &v }

func TestRecomputeCourseAggregates(t *testing.T) {
	db := newTestDb(t)

	course := courseModels.Course{Title: "Go Basics", InstructorID: 1}
	require.NoError(t, db.Create(&course).Error)

	// Three students, two of whom left ratings of 3 and 5
	enrollments := []courseModels.Enrollment{
		{UserID: 10, CourseID: course.ID, Rating: intPtr(3), Review: "ok"},
		{UserID: 11, CourseID: course.ID, Rating: intPtr(5), Review: "great"},
		{UserID: 12, CourseID: course.ID},
	}
	for i := range enrollments {
		require.NoError(t, db.Create(&enrollments[i]).Error)
	}

	require.NoError(t, RecomputeCourseAggregates(db, course.ID))

	var got courseModels.Course
	require.NoError(t, db.First(&got, course.ID).Error)

	assert.Equal(t, 3, got.StudentsCount)
	assert.InDelta(t, 4.0, got.AverageRating, 0.001)
	assert.Equal(t, 2, got.ReviewCount, "review count reflects reviews, not enrollments")
}

func TestRecomputeCourseAggregatesEmptyCourse(t *testing.T) {
	db := newTestDb(t)

	course := courseModels.Course{Title: "Empty", InstructorID: 1, AverageRating: 4.5, ReviewCount: 7}
	require.NoError(t, db.Create(&course).Error)

	require.NoError(t, RecomputeCourseAggregates(db, course.ID))

	var got courseModels.Course
	require.NoError(t, db.First(&got, course.ID).Error)

	assert.Equal(t, 0, got.StudentsCount)
	assert.Equal(t, 0.0, got.AverageRating)
	assert.Equal(t, 0, got.ReviewCount)
}

func TestGetCourseStats(t *testing.T) {
	db := newTestDb(t)

	course := courseModels.Course{Title: "Stats", InstructorID: 1}
	require.NoError(t, db.Create(&course).Error)

	enrollments := []courseModels.Enrollment{
		{UserID: 10, CourseID: course.ID, Progress: 100, Rating: intPtr(4)},
		{UserID: 11, CourseID: course.ID, Progress: 50},
	}
	for i := range enrollments {
		require.NoError(t, db.Create(&enrollments[i]).Error)
	}

	stats, err := GetCourseStats(db, course.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalEnrollments)
	assert.Equal(t, int64(1), stats.CompletedCount)
	assert.InDelta(t, 75.0, stats.AverageProgress, 0.001)
	assert.Equal(t, int64(1), stats.ReviewCount)
	assert.InDelta(t, 4.0, stats.AverageRating, 0.001)
}

func TestRefreshCourseTotals(t *testing.T) {
	db := newTestDb(t)

	course := courseModels.Course{Title: "Totals", InstructorID: 1}
	require.NoError(t, db.Create(&course).Error)

	section := courseModels.Section{CourseID: course.ID, Title: "Intro"}
	require.NoError(t, db.Create(&section).Error)

	// 90s and 60s round up to 2 and 1 minutes respectively
	lectures := []courseModels.Lecture{
		{SectionID: section.ID, CourseID: course.ID, Title: "One", VideoDuration: 90},
		{SectionID: section.ID, CourseID: course.ID, Title: "Two", VideoDuration: 60},
		{SectionID: section.ID, CourseID: course.ID, Title: "Gone", VideoDuration: 600, IsDeleted: true},
	}
	for i := range lectures {
		require.NoError(t, db.Create(&lectures[i]).Error)
	}

	require.NoError(t, RefreshCourseTotals(db, course.ID))

	var got courseModels.Course
	require.NoError(t, db.First(&got, course.ID).Error)

	assert.Equal(t, 2, got.TotalLectures, "soft deleted lectures are excluded")
	assert.Equal(t, 3, got.TotalDuration)
}

package enrollmentController

import (
	"log"
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"
	enrollmentValidator "lms/validators/enrollment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollmentWithCourse enriches an enrollment with its course summary
type EnrollmentWithCourse struct {
	courseModels.Enrollment
	CourseTitle     string  `json:"course_title"`
	CourseThumbnail string  `json:"course_thumbnail"`
	TotalLectures   int     `json:"total_lectures"`
	TotalDuration   int     `json:"total_duration"`
	AverageRating   float64 `json:"average_rating"`
	InstructorName  string  `json:"instructor_name"`
}

// GetEnrollments lists the student's enrollments, most recently accessed first
func GetEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var enrollments []courseModels.Enrollment
	if err := database.Database.Db.
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("last_accessed desc").
		Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	result := make([]EnrollmentWithCourse, len(enrollments))
	for i, e := range enrollments {
		var course courseModels.Course
		database.Database.Db.Where("id = ?", e.CourseID).First(&course)

		var instructor models.User
		database.Database.Db.Where("id = ?", course.InstructorID).First(&instructor)

		result[i] = EnrollmentWithCourse{
			Enrollment:      e,
			CourseTitle:     course.Title,
			CourseThumbnail: course.ThumbnailURL,
			TotalLectures:   course.TotalLectures,
			TotalDuration:   course.TotalDuration,
			AverageRating:   course.AverageRating,
			InstructorName:  instructor.Name,
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": result,
		"count":       len(result),
	})
}

// GetEnrollment returns a single enrollment. Readable by the enrolled
// student and, read-only, by the course's instructor.
func GetEnrollment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID := c.Locals("enrollmentID").(uint)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", enrollmentID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ?", enrollment.CourseID).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if enrollment.UserID != userID && course.InstructorID != userID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Not authorized to access this enrollment!", nil)
	}

	var completions []courseModels.LectureCompletion
	database.Database.Db.Where("enrollment_id = ?", enrollment.ID).Find(&completions)

	completedLectures := make([]uint, len(completions))
	for i, comp := range completions {
		completedLectures[i] = comp.LectureID
	}

	var sections []courseModels.Section
	database.Database.Db.Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("order_index asc").Find(&sections)

	var lectures []courseModels.Lecture
	database.Database.Db.Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("section_id asc, order_index asc").Find(&lectures)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment fetched successfully!", fiber.Map{
		"enrollment":         enrollment,
		"completed_lectures": completedLectures,
		"course":             course,
		"sections":           sections,
		"lectures":           lectures,
	})
}

// loadOwnEnrollment fetches an enrollment and enforces student ownership
func loadOwnEnrollment(c *fiber.Ctx) (*courseModels.Enrollment, error) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID := c.Locals("enrollmentID").(uint)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", enrollmentID, false).First(&enrollment).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	if enrollment.UserID != userID {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "Not authorized to update this enrollment!", nil)
	}

	return &enrollment, nil
}

// recomputeProgress derives progress from the completion count and the
// course's lecture count, applying the one-shot completion rule.
func recomputeProgress(db *gorm.DB, enrollment *courseModels.Enrollment) error {
	var totalLectures int64
	if err := db.Model(&courseModels.Lecture{}).
		Where("course_id = ? AND is_deleted = ?", enrollment.CourseID, false).
		Count(&totalLectures).Error; err != nil {
		return err
	}

	var completed int64
	if err := db.Model(&courseModels.LectureCompletion{}).
		Where("enrollment_id = ?", enrollment.ID).
		Count(&completed).Error; err != nil {
		return err
	}

	enrollment.ApplyProgress(courseModels.ComputeProgress(completed, totalLectures), time.Now())
	return nil
}

// notifyCertificateEarned emails the student their certificate number.
// Best-effort: failures are logged, never surfaced.
func notifyCertificateEarned(enrollment courseModels.Enrollment) {
	var student models.User
	if err := database.Database.Db.Where("id = ?", enrollment.UserID).First(&student).Error; err != nil {
		return
	}
	var course courseModels.Course
	if err := database.Database.Db.Where("id = ?", enrollment.CourseID).First(&course).Error; err != nil {
		return
	}
	if err := utils.SendCertificateEmail(student.Email, student.Name, course.Title, enrollment.CertificateNumber()); err != nil {
		log.Printf("Failed to send certificate email for enrollment %d: %v", enrollment.ID, err)
	}
}

// UpdateProgress applies a progress update. The completed-lecture set is
// unioned atomically and progress is always recomputed from it; any
// caller-supplied progress value is ignored.
func UpdateProgress(c *fiber.Ctx) error {
	enrollment, err := loadOwnEnrollment(c)
	if err != nil {
		return err
	}

	reqData, ok := c.Locals("validatedProgress").(*enrollmentValidator.ProgressUpdate)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	if len(reqData.CompletedLectures) > 0 {
		completions := make([]courseModels.LectureCompletion, 0, len(reqData.CompletedLectures))
		for _, lectureID := range reqData.CompletedLectures {
			var lecture courseModels.Lecture
			if err := db.Where("id = ? AND course_id = ? AND is_deleted = ?", lectureID, enrollment.CourseID, false).First(&lecture).Error; err != nil {
				return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found in this course!", nil)
			}
			completions = append(completions, courseModels.LectureCompletion{
				EnrollmentID: enrollment.ID,
				LectureID:    lectureID,
			})
		}

		// Atomic set union: duplicates are ignored at the storage level
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&completions).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
		}
	}

	if reqData.CurrentLecture != nil {
		enrollment.CurrentLectureID = reqData.CurrentLecture
	}

	wasCompleted := enrollment.CompletedAt != nil

	if err := recomputeProgress(db, enrollment); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}

	if err := db.Save(enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}

	if enrollment.CertificateIssued && !wasCompleted {
		go notifyCertificateEarned(*enrollment)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", enrollment)
}

// MarkLectureCompleted adds a lecture to the enrollment's completed set and
// recomputes progress. Idempotent: re-completing a lecture changes nothing.
func MarkLectureCompleted(c *fiber.Ctx) error {
	enrollment, err := loadOwnEnrollment(c)
	if err != nil {
		return err
	}

	lectureID := c.Locals("validatedLectureID").(uint)

	db := database.Database.Db

	var totalLectures int64
	if err := db.Model(&courseModels.Lecture{}).
		Where("course_id = ? AND is_deleted = ?", enrollment.CourseID, false).
		Count(&totalLectures).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark lecture as completed!", nil)
	}

	if totalLectures == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course has no lectures to complete!", nil)
	}

	var lecture courseModels.Lecture
	if err := db.Where("id = ? AND course_id = ? AND is_deleted = ?", lectureID, enrollment.CourseID, false).First(&lecture).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found in this course!", nil)
	}

	// Atomic set add: a duplicate completion is a no-op, not an error
	completion := courseModels.LectureCompletion{
		EnrollmentID: enrollment.ID,
		LectureID:    lectureID,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&completion).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark lecture as completed!", nil)
	}

	enrollment.CurrentLectureID = &lectureID

	wasCompleted := enrollment.CompletedAt != nil

	if err := recomputeProgress(db, enrollment); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark lecture as completed!", nil)
	}

	if err := db.Save(enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark lecture as completed!", nil)
	}

	if enrollment.CertificateIssued && !wasCompleted {
		go notifyCertificateEarned(*enrollment)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lecture marked as completed!", enrollment)
}

// AddReview attaches a one-time rating and review to the enrollment, then
// triggers the course rating aggregation.
func AddReview(c *fiber.Ctx) error {
	enrollment, err := loadOwnEnrollment(c)
	if err != nil {
		return err
	}

	reqData, ok := c.Locals("validatedReview").(*struct {
		Rating int    `json:"rating"`
		Review string `json:"review"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if enrollment.Rating != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "You have already reviewed this course!", nil)
	}

	now := time.Now()
	enrollment.Rating = &reqData.Rating
	enrollment.Review = reqData.Review
	enrollment.ReviewedAt = &now

	if err := database.Database.Db.Save(enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit review!", nil)
	}

	// Best-effort: an aggregation failure never rolls back the review
	if err := utils.RecomputeCourseAggregates(database.Database.Db, enrollment.CourseID); err != nil {
		log.Printf("Failed to recompute aggregates for course %d: %v", enrollment.CourseID, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Review added successfully!", enrollment)
}

// GetCertificate returns the deterministic certificate descriptor for a
// completed enrollment.
func GetCertificate(c *fiber.Ctx) error {
	enrollment, err := loadOwnEnrollment(c)
	if err != nil {
		return err
	}

	if !enrollment.CertificateIssued {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Complete the course to get your certificate.", nil)
	}

	var student models.User
	if err := database.Database.Db.Where("id = ?", enrollment.UserID).First(&student).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificate!", nil)
	}

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ?", enrollment.CourseID).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificate!", nil)
	}

	var instructor models.User
	database.Database.Db.Where("id = ?", course.InstructorID).First(&instructor)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate fetched successfully!", fiber.Map{
		"certificate": fiber.Map{
			"certificateId":  enrollment.CertificateNumber(),
			"studentName":    student.Name,
			"courseTitle":    course.Title,
			"instructorName": instructor.Name,
			"completedAt":    enrollment.CompletedAt,
			"issuedAt":       enrollment.CertificateIssuedAt,
		},
	})
}

package courseController

import (
	"log"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// CourseWithInstructor enriches a course with its instructor's name
type CourseWithInstructor struct {
	courseModels.Course
	InstructorName string `json:"instructor_name"`
}

func withInstructors(courses []courseModels.Course) []CourseWithInstructor {
	result := make([]CourseWithInstructor, len(courses))
	for i, co := range courses {
		var instructor models.User
		database.Database.Db.Where("id = ?", co.InstructorID).First(&instructor)
		result[i] = CourseWithInstructor{Course: co, InstructorName: instructor.Name}
	}
	return result
}

// GetCourses lists published courses
func GetCourses(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	var courses []courseModels.Course
	if err := database.Database.Db.
		Where("status = ? AND is_deleted = ?", courseModels.StatusPublished, false).
		Order("created_at desc").
		Limit(limit).
		Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	result := withInstructors(courses)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": result,
		"count":   len(result),
	})
}

// GetFeaturedCourses lists featured published courses
func GetFeaturedCourses(c *fiber.Ctx) error {
	var courses []courseModels.Course
	if err := database.Database.Db.
		Where("status = ? AND featured = ? AND is_deleted = ?", courseModels.StatusPublished, true, false).
		Limit(8).
		Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch featured courses!", nil)
	}

	result := withInstructors(courses)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Featured courses fetched successfully!", fiber.Map{
		"courses": result,
		"count":   len(result),
	})
}

// GetCourseDetail returns a course with its curriculum and the caller's
// enrollment state
func GetCourseDetail(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var instructor models.User
	database.Database.Db.Where("id = ?", course.InstructorID).First(&instructor)

	var sections []courseModels.Section
	database.Database.Db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("order_index asc").Find(&sections)

	var lectures []courseModels.Lecture
	database.Database.Db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("section_id asc, order_index asc").Find(&lectures)

	isEnrolled := false
	var enrollment courseModels.Enrollment
	if userID, ok := c.Locals("userId").(uint); ok {
		isEnrolled = database.Database.Db.
			Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
			First(&enrollment).Error == nil
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", fiber.Map{
		"course":          course,
		"instructor_name": instructor.Name,
		"sections":        sections,
		"lectures":        lectures,
		"is_enrolled":     isEnrolled,
		"enrollment":      enrollment,
	})
}

// EnrollInCourse creates an enrollment for the authenticated student. The
// unique (user, course) index rejects a racing duplicate create.
func EnrollInCourse(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	var course courseModels.Course
	if err := database.Database.Db.
		Where("id = ? AND is_deleted = ? AND status = ?", courseID, false, courseModels.StatusPublished).
		First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
	}

	var existingEnrollment courseModels.Enrollment
	if err := database.Database.Db.
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		First(&existingEnrollment).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this course!", nil)
	}

	enrollment := courseModels.Enrollment{
		UserID:   userID,
		CourseID: courseID,
	}

	if err := database.Database.Db.Create(&enrollment).Error; err != nil {
		// Unique index violation from a concurrent duplicate enroll
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this course!", nil)
	}

	if err := utils.RecomputeCourseAggregates(database.Database.Db, courseID); err != nil {
		log.Printf("Failed to recompute aggregates for course %d: %v", courseID, err)
	}

	go func(email, name, title string) {
		if err := utils.SendEnrollmentEmail(email, name, title); err != nil {
			log.Printf("Failed to send enrollment email to %s: %v", email, err)
		}
	}(user.Email, user.Name, course.Title)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", enrollment)
}

// GetMyCourses lists the student's enrolled courses with progress
func GetMyCourses(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var enrollments []courseModels.Enrollment
	if err := database.Database.Db.
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("last_accessed desc").
		Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch your courses!", nil)
	}

	type CourseWithProgress struct {
		CourseWithInstructor
		Progress     int  `json:"progress"`
		EnrollmentID uint `json:"enrollment_id"`
	}

	result := make([]CourseWithProgress, 0, len(enrollments))
	for _, e := range enrollments {
		var course courseModels.Course
		if err := database.Database.Db.Where("id = ?", e.CourseID).First(&course).Error; err != nil {
			continue
		}
		var instructor models.User
		database.Database.Db.Where("id = ?", course.InstructorID).First(&instructor)

		result = append(result, CourseWithProgress{
			CourseWithInstructor: CourseWithInstructor{Course: course, InstructorName: instructor.Name},
			Progress:             e.Progress,
			EnrollmentID:         e.ID,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Your courses fetched successfully!", fiber.Map{
		"courses": result,
		"count":   len(result),
	})
}

// GetWishlist lists the user's wishlisted courses
func GetWishlist(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var entries []models.Wishlist
	if err := database.Database.Db.
		Where("user_id = ?", userID).
		Find(&entries).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch wishlist!", nil)
	}

	courses := make([]CourseWithInstructor, 0, len(entries))
	for _, entry := range entries {
		var course courseModels.Course
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", entry.CourseID, false).First(&course).Error; err != nil {
			continue
		}
		var instructor models.User
		database.Database.Db.Where("id = ?", course.InstructorID).First(&instructor)
		courses = append(courses, CourseWithInstructor{Course: course, InstructorName: instructor.Name})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Wishlist fetched successfully!", fiber.Map{
		"wishlist": courses,
		"count":    len(courses),
	})
}

// AddToWishlist saves a course to the user's wishlist
func AddToWishlist(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedWishlist").(*struct {
		CourseID uint `json:"courseId"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", reqData.CourseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var existing models.Wishlist
	if err := database.Database.Db.
		Where("user_id = ? AND course_id = ?", userID, reqData.CourseID).
		First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Course already in wishlist!", nil)
	}

	entry := models.Wishlist{UserID: userID, CourseID: reqData.CourseID}
	if err := database.Database.Db.Create(&entry).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Course already in wishlist!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course added to wishlist!", nil)
}

// RemoveFromWishlist deletes a course from the user's wishlist
func RemoveFromWishlist(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	// Hard delete: a soft-deleted row would keep occupying the unique
	// (user, course) index and block re-adding the course later
	if err := database.Database.Db.Unscoped().
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&models.Wishlist{}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to remove from wishlist!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course removed from wishlist!", nil)
}

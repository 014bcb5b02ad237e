package instructorController

import (
	"encoding/json"
	"log"
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"
	instructorValidator "lms/validators/instructor"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

func toJSONColumn(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}

// loadOwnCourse fetches the course from c.Locals("courseID") and checks the
// authenticated instructor owns it. Writes the error response itself, the
// caller just returns on err != nil.
func loadOwnCourse(c *fiber.Ctx) (*courseModels.Course, error) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if course.InstructorID != userID {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this course!", nil)
	}

	return &course, nil
}

// GetDashboard returns the instructor's summary stats across their courses
func GetDashboard(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var totalCourses int64
	db.Model(&courseModels.Course{}).
		Where("instructor_id = ? AND is_deleted = ?", userID, false).
		Count(&totalCourses)

	var publishedCourses int64
	db.Model(&courseModels.Course{}).
		Where("instructor_id = ? AND is_deleted = ? AND status = ?", userID, false, courseModels.StatusPublished).
		Count(&publishedCourses)

	var totalStudents int64
	db.Model(&courseModels.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("courses.instructor_id = ? AND enrollments.is_deleted = ?", userID, false).
		Count(&totalStudents)

	var averageRating float64
	db.Model(&courseModels.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("courses.instructor_id = ? AND enrollments.is_deleted = ? AND enrollments.rating IS NOT NULL", userID, false).
		Select("COALESCE(AVG(enrollments.rating), 0)").
		Scan(&averageRating)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", fiber.Map{
		"total_courses":     totalCourses,
		"published_courses": publishedCourses,
		"total_students":    totalStudents,
		"average_rating":    averageRating,
	})
}

// GetMyCourses lists the instructor's own courses, optionally filtered
func GetMyCourses(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	query := database.Database.Db.
		Where("instructor_id = ? AND is_deleted = ?", userID, false)

	if search := c.Query("search"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var courses []courseModels.Course
	if err := query.Order("updated_at desc").Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
		"count":   len(courses),
	})
}

// GetCourse returns one of the instructor's courses with its curriculum
func GetCourse(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	var sections []courseModels.Section
	database.Database.Db.Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("order_index asc").Find(&sections)

	var lectures []courseModels.Lecture
	database.Database.Db.Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("section_id asc, order_index asc").Find(&lectures)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", fiber.Map{
		"course":   course,
		"sections": sections,
		"lectures": lectures,
	})
}

// CreateCourse creates a new draft course
func CreateCourse(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedCourse").(*instructorValidator.CoursePayload)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if err := utils.VerifyAssetURL(reqData.ThumbnailURL); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Thumbnail URL is not reachable!", nil)
	}

	course := courseModels.Course{
		Title:        reqData.Title,
		Subtitle:     reqData.Subtitle,
		Description:  reqData.Description,
		InstructorID: userID,
		Category:     reqData.Category,
		Level:        reqData.Level,
		Price:        reqData.Price,

		ThumbnailURL:      reqData.ThumbnailURL,
		ThumbnailPublicID: reqData.ThumbnailPublicID,

		PromoVideoURL:      reqData.PromoVideoURL,
		PromoVideoPublicID: reqData.PromoVideoPublicID,
		PromoVideoDuration: reqData.PromoVideoDuration,
		PromoVideoFormat:   reqData.PromoVideoFormat,
		PromoVideoSize:     reqData.PromoVideoSize,

		Requirements:     toJSONColumn(reqData.Requirements),
		LearningOutcomes: toJSONColumn(reqData.LearningOutcomes),

		Status: courseModels.StatusDraft,
	}

	if reqData.OriginalPrice != nil {
		course.OriginalPrice = *reqData.OriginalPrice
	}
	course.ApplyDiscount()

	if err := database.Database.Db.Create(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// UpdateCourse applies a partial update to an owned course
func UpdateCourse(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	reqData, ok := c.Locals("validatedCourseUpdate").(*instructorValidator.UpdateCoursePayload)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Title != nil {
		course.Title = *reqData.Title
	}
	if reqData.Subtitle != nil {
		course.Subtitle = *reqData.Subtitle
	}
	if reqData.Description != nil {
		course.Description = *reqData.Description
	}
	if reqData.Category != nil {
		course.Category = *reqData.Category
	}
	if reqData.Level != nil {
		course.Level = *reqData.Level
	}
	if reqData.Price != nil {
		course.Price = *reqData.Price
	}
	if reqData.OriginalPrice != nil {
		course.OriginalPrice = *reqData.OriginalPrice
	}
	if reqData.ThumbnailURL != nil {
		if err := utils.VerifyAssetURL(*reqData.ThumbnailURL); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Thumbnail URL is not reachable!", nil)
		}
		course.ThumbnailURL = *reqData.ThumbnailURL
	}
	if reqData.ThumbnailPublicID != nil {
		course.ThumbnailPublicID = *reqData.ThumbnailPublicID
	}
	if reqData.PromoVideoURL != nil {
		course.PromoVideoURL = *reqData.PromoVideoURL
	}
	if reqData.PromoVideoPublicID != nil {
		course.PromoVideoPublicID = *reqData.PromoVideoPublicID
	}
	if reqData.PromoVideoDuration != nil {
		course.PromoVideoDuration = *reqData.PromoVideoDuration
	}
	if reqData.PromoVideoFormat != nil {
		course.PromoVideoFormat = *reqData.PromoVideoFormat
	}
	if reqData.PromoVideoSize != nil {
		course.PromoVideoSize = *reqData.PromoVideoSize
	}
	if reqData.Requirements != nil {
		course.Requirements = toJSONColumn(reqData.Requirements)
	}
	if reqData.LearningOutcomes != nil {
		course.LearningOutcomes = toJSONColumn(reqData.LearningOutcomes)
	}

	course.ApplyDiscount()

	if err := database.Database.Db.Save(course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

// PublishCourse makes an owned course visible in the catalog. A course
// without lectures cannot be published.
func PublishCourse(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	var lectureCount int64
	database.Database.Db.Model(&courseModels.Lecture{}).
		Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Count(&lectureCount)

	if lectureCount == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Cannot publish a course without lectures!", nil)
	}

	course.Status = courseModels.StatusPublished
	if err := database.Database.Db.Save(course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to publish course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course published successfully!", course)
}

// UnpublishCourse hides an owned course from the catalog
func UnpublishCourse(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	course.Status = courseModels.StatusUnpublished
	if err := database.Database.Db.Save(course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to unpublish course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course unpublished successfully!", course)
}

// DeleteCourse soft deletes an owned course. Courses with enrollments are
// unpublished instead so student records stay intact.
func DeleteCourse(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	var enrollmentCount int64
	database.Database.Db.Model(&courseModels.Enrollment{}).
		Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Count(&enrollmentCount)

	if enrollmentCount > 0 {
		course.Status = courseModels.StatusUnpublished
		if err := database.Database.Db.Save(course).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Course has enrollments, unpublished instead of deleted.", nil)
	}

	course.IsDeleted = true
	if err := database.Database.Db.Save(course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

// CreateSection adds a section to an owned course
func CreateSection(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	reqData, ok := c.Locals("validatedSection").(*instructorValidator.SectionPayload)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	section := courseModels.Section{
		CourseID:   course.ID,
		Title:      reqData.Title,
		OrderIndex: reqData.OrderIndex,
	}

	if err := database.Database.Db.Create(&section).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create section!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Section created successfully!", section)
}

// loadOwnSection fetches the section from c.Locals("sectionID") belonging to
// the already ownership-checked course.
func loadOwnSection(c *fiber.Ctx, courseID uint) (*courseModels.Section, error) {
	sectionID := c.Locals("sectionID").(uint)

	var section courseModels.Section
	if err := database.Database.Db.
		Where("id = ? AND course_id = ? AND is_deleted = ?", sectionID, courseID, false).
		First(&section).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Section not found!", nil)
	}

	return &section, nil
}

// UpdateSection renames or reorders a section
func UpdateSection(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	section, err := loadOwnSection(c, course.ID)
	if err != nil {
		return err
	}

	reqData, ok := c.Locals("validatedSection").(*instructorValidator.SectionPayload)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	section.Title = reqData.Title
	section.OrderIndex = reqData.OrderIndex

	if err := database.Database.Db.Save(section).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update section!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Section updated successfully!", section)
}

// DeleteSection soft deletes a section and its lectures
func DeleteSection(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	section, err := loadOwnSection(c, course.ID)
	if err != nil {
		return err
	}

	if err := database.Database.Db.Model(&courseModels.Lecture{}).
		Where("section_id = ?", section.ID).
		Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete section!", nil)
	}

	section.IsDeleted = true
	if err := database.Database.Db.Save(section).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete section!", nil)
	}

	if err := utils.RefreshCourseTotals(database.Database.Db, course.ID); err != nil {
		log.Printf("Failed to refresh totals for course %d: %v", course.ID, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Section deleted successfully!", nil)
}

// CreateLecture adds a lecture to a section of an owned course
func CreateLecture(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	section, err := loadOwnSection(c, course.ID)
	if err != nil {
		return err
	}

	reqData, ok := c.Locals("validatedLecture").(*instructorValidator.LecturePayload)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if err := utils.VerifyAssetURL(reqData.VideoURL); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Video URL is not reachable!", nil)
	}

	resources, _ := json.Marshal(reqData.Resources)

	lecture := courseModels.Lecture{
		SectionID:   section.ID,
		CourseID:    course.ID,
		Title:       reqData.Title,
		Description: reqData.Description,
		OrderIndex:  reqData.OrderIndex,

		VideoURL:      reqData.VideoURL,
		VideoPublicID: reqData.VideoPublicID,
		VideoDuration: reqData.VideoDuration,
		VideoFormat:   reqData.VideoFormat,
		VideoSize:     reqData.VideoSize,

		Resources: datatypes.JSON(resources),
	}

	if err := database.Database.Db.Create(&lecture).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lecture!", nil)
	}

	if err := utils.RefreshCourseTotals(database.Database.Db, course.ID); err != nil {
		log.Printf("Failed to refresh totals for course %d: %v", course.ID, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lecture created successfully!", lecture)
}

// UpdateLecture replaces a lecture's content
func UpdateLecture(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	lectureID := c.Locals("lectureID").(uint)

	var lecture courseModels.Lecture
	if err := database.Database.Db.
		Where("id = ? AND course_id = ? AND is_deleted = ?", lectureID, course.ID, false).
		First(&lecture).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found!", nil)
	}

	reqData, ok := c.Locals("validatedLecture").(*instructorValidator.LecturePayload)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	resources, _ := json.Marshal(reqData.Resources)

	lecture.Title = reqData.Title
	lecture.Description = reqData.Description
	lecture.OrderIndex = reqData.OrderIndex
	lecture.VideoURL = reqData.VideoURL
	lecture.VideoPublicID = reqData.VideoPublicID
	lecture.VideoDuration = reqData.VideoDuration
	lecture.VideoFormat = reqData.VideoFormat
	lecture.VideoSize = reqData.VideoSize
	lecture.Resources = datatypes.JSON(resources)

	if err := database.Database.Db.Save(&lecture).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lecture!", nil)
	}

	if err := utils.RefreshCourseTotals(database.Database.Db, course.ID); err != nil {
		log.Printf("Failed to refresh totals for course %d: %v", course.ID, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lecture updated successfully!", lecture)
}

// DeleteLecture soft deletes a lecture and refreshes the course totals
func DeleteLecture(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	lectureID := c.Locals("lectureID").(uint)

	var lecture courseModels.Lecture
	if err := database.Database.Db.
		Where("id = ? AND course_id = ? AND is_deleted = ?", lectureID, course.ID, false).
		First(&lecture).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found!", nil)
	}

	lecture.IsDeleted = true
	if err := database.Database.Db.Save(&lecture).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete lecture!", nil)
	}

	if err := utils.RefreshCourseTotals(database.Database.Db, course.ID); err != nil {
		log.Printf("Failed to refresh totals for course %d: %v", course.ID, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lecture deleted successfully!", nil)
}

// GetCourseAnalytics returns enrollment statistics for an owned course
func GetCourseAnalytics(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	stats, err := utils.GetCourseStats(database.Database.Db, course.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute analytics!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Analytics fetched successfully!", fiber.Map{
		"course_id": course.ID,
		"title":     course.Title,
		"stats":     stats,
	})
}

// GetCourseStudents returns the enrolled student roster for an owned course
func GetCourseStudents(c *fiber.Ctx) error {
	course, err := loadOwnCourse(c)
	if err != nil {
		return err
	}

	var enrollments []courseModels.Enrollment
	if err := database.Database.Db.
		Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("enrolled_at desc").
		Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch students!", nil)
	}

	type StudentRow struct {
		Name       string    `json:"name"`
		Email      string    `json:"email"`
		Progress   int       `json:"progress"`
		EnrolledAt time.Time `json:"enrolled_at"`
		Completed  bool      `json:"completed"`
		Rating     *int      `json:"rating"`
	}

	students := make([]StudentRow, 0, len(enrollments))
	for _, e := range enrollments {
		var user models.User
		if err := database.Database.Db.Where("id = ?", e.UserID).First(&user).Error; err != nil {
			continue
		}
		students = append(students, StudentRow{
			Name:       user.Name,
			Email:      user.Email,
			Progress:   e.Progress,
			EnrolledAt: e.EnrolledAt,
			Completed:  e.IsCompleted(),
			Rating:     e.Rating,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Students fetched successfully!", fiber.Map{
		"students": students,
		"count":    len(students),
	})
}

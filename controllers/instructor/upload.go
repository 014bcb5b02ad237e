package instructorController

import (
	"log"
	"strings"

	"lms/config"
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UploadVideo accepts a multipart video file and stores it on Cloudinary.
// The returned url and public id are then attached to a lecture or promo
// video through the course endpoints.
func UploadVideo(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("video")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Video file is required!", nil)
	}

	maxBytes := int64(config.AppConfig.MaxVideoSizeMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Video file is too large!", nil)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "File must be a video!", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read uploaded file!", nil)
	}
	defer file.Close()

	asset, err := utils.UploadVideo(file, "lms/videos")
	if err != nil {
		log.Printf("Video upload failed: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to upload video!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Video uploaded successfully!", asset)
}

// UploadThumbnail accepts a multipart image file for a course thumbnail
func UploadThumbnail(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("thumbnail")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Thumbnail file is required!", nil)
	}

	maxBytes := int64(config.AppConfig.MaxThumbnailSizeMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Thumbnail file is too large!", nil)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "File must be an image!", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read uploaded file!", nil)
	}
	defer file.Close()

	asset, err := utils.UploadImage(file, "lms/thumbnails")
	if err != nil {
		log.Printf("Thumbnail upload failed: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to upload thumbnail!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Thumbnail uploaded successfully!", asset)
}

// DeleteVideo removes an uploaded video from Cloudinary. Videos still
// referenced by a lecture or course promo cannot be deleted.
func DeleteVideo(c *fiber.Ctx) error {
	publicID := c.Query("publicId")
	if publicID == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "publicId is required!", nil)
	}

	var lectureRefs int64
	database.Database.Db.Model(&courseModels.Lecture{}).
		Where("video_public_id = ? AND is_deleted = ?", publicID, false).
		Count(&lectureRefs)

	var promoRefs int64
	database.Database.Db.Model(&courseModels.Course{}).
		Where("promo_video_public_id = ? AND is_deleted = ?", publicID, false).
		Count(&promoRefs)

	if lectureRefs > 0 || promoRefs > 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Video is still in use by a lecture or course!", nil)
	}

	if err := utils.DeleteAsset(publicID, "video"); err != nil {
		log.Printf("Video delete failed for %s: %v", publicID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete video!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video deleted successfully!", nil)
}

// GetUploadStats summarizes the instructor's stored media: lecture video
// count and bytes, promo videos, and the configured upload caps.
func GetUploadStats(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	lectureScope := db.Model(&courseModels.Lecture{}).
		Joins("JOIN courses ON courses.id = lectures.course_id").
		Where("courses.instructor_id = ? AND lectures.is_deleted = ?", userID, false)

	var totalVideos int64
	if err := lectureScope.Session(&gorm.Session{}).Count(&totalVideos).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch upload stats!", nil)
	}

	var totalVideoSize int64
	if err := lectureScope.Session(&gorm.Session{}).
		Select("COALESCE(SUM(lectures.video_size), 0)").
		Scan(&totalVideoSize).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch upload stats!", nil)
	}

	promoScope := db.Model(&courseModels.Course{}).
		Where("instructor_id = ? AND is_deleted = ? AND promo_video_public_id <> ''", userID, false)

	var promoVideos int64
	if err := promoScope.Session(&gorm.Session{}).Count(&promoVideos).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch upload stats!", nil)
	}

	var promoVideoSize int64
	if err := promoScope.Session(&gorm.Session{}).
		Select("COALESCE(SUM(promo_video_size), 0)").
		Scan(&promoVideoSize).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch upload stats!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Upload stats fetched successfully!", fiber.Map{
		"total_videos":          totalVideos,
		"total_video_size":      totalVideoSize,
		"promo_videos":          promoVideos,
		"promo_video_size":      promoVideoSize,
		"total_storage_used":    totalVideoSize + promoVideoSize,
		"max_video_size_mb":     config.AppConfig.MaxVideoSizeMB,
		"max_thumbnail_size_mb": config.AppConfig.MaxThumbnailSizeMB,
	})
}

// StreamVideo redirects to the Cloudinary delivery URL for a lecture video.
// Only enrolled students and the course owner may stream.
func StreamVideo(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lectureID := c.Locals("lectureID").(uint)

	var lecture courseModels.Lecture
	if err := database.Database.Db.
		Where("id = ? AND is_deleted = ?", lectureID, false).
		First(&lecture).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found!", nil)
	}

	var course courseModels.Course
	if err := database.Database.Db.
		Where("id = ? AND is_deleted = ?", lecture.CourseID, false).
		First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if course.InstructorID != userID {
		var enrollment courseModels.Enrollment
		if err := database.Database.Db.
			Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, lecture.CourseID, false).
			First(&enrollment).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Enroll in the course to watch this lecture!", nil)
		}
	}

	return c.Redirect(utils.StreamURL(lecture.VideoPublicID), fiber.StatusFound)
}

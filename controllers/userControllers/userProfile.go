package userControllers

import (
	"strings"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

// GetProfile returns the authenticated user's profile
func GetProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	var enrolledCount int64
	database.Database.Db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Count(&enrolledCount)

	var completedCount int64
	database.Database.Db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND is_deleted = ? AND progress = ?", userID, false, 100).
		Count(&completedCount)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", fiber.Map{
		"user":              user,
		"enrolled_courses":  enrolledCount,
		"completed_courses": completedCount,
	})
}

// UpdateProfile updates the authenticated user's profile fields
func UpdateProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData := new(struct {
		Name         *string `json:"name"`
		Bio          *string `json:"bio"`
		ProfileImage *string `json:"profileImage"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	if reqData.Name != nil {
		name := strings.TrimSpace(*reqData.Name)
		if len(name) < 2 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"name": "Name must be at least 2 characters long!",
			})
		}
		user.Name = name
	}
	if reqData.Bio != nil {
		if len(*reqData.Bio) > 500 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"bio": "Bio must be at most 500 characters!",
			})
		}
		user.Bio = *reqData.Bio
	}
	if reqData.ProfileImage != nil {
		user.ProfileImage = *reqData.ProfileImage
	}

	if err := database.Database.Db.Save(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update profile!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully!", user)
}

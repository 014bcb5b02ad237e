package authController

import (
	"log"
	"strings"
	"time"

	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// Signup registers a new user account
func Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	email := strings.ToLower(strings.TrimSpace(reqData.Email))

	var existingUser models.User
	if err := database.Database.Db.Where("email = ? AND is_deleted = ?", email, false).First(&existingUser).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email already registered!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create account!", nil)
	}

	user := models.User{
		Name:     strings.TrimSpace(reqData.Name),
		Email:    email,
		Password: string(hashedPassword),
		Role:     reqData.Role,
	}

	if err := database.Database.Db.Create(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email already registered!", nil)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Account created successfully!", fiber.Map{
		"user":  user,
		"token": token,
	})
}

// Login authenticates a user and returns a JWT
func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	email := strings.ToLower(strings.TrimSpace(reqData.Email))

	var user models.User
	if err := database.Database.Db.Where("email = ? AND is_deleted = ?", email, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid email or password!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid email or password!", nil)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Logged in successfully!", fiber.Map{
		"user":  user,
		"token": token,
	})
}

// ForgotPasswordSendOTP emails a one time code for password reset
func ForgotPasswordSendOTP(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedSendOTP").(*struct {
		Email string `json:"email"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	email := strings.ToLower(strings.TrimSpace(reqData.Email))

	var user models.User
	if err := database.Database.Db.Where("email = ? AND is_deleted = ?", email, false).First(&user).Error; err != nil {
		// Do not reveal whether the email exists
		return middleware.JsonResponse(c, fiber.StatusOK, true, "If the email is registered, an OTP has been sent.", nil)
	}

	code := utils.GenerateOTP()

	hashedCode, err := bcrypt.GenerateFromPassword([]byte(code), config.AppConfig.SaltRound)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate OTP!", nil)
	}

	// Invalidate any previous pending codes for this user
	database.Database.Db.Model(&models.OTP{}).
		Where("user_id = ? AND is_used = ?", user.ID, false).
		Update("is_used", true)

	otp := models.OTP{
		UserID:    user.ID,
		Email:     user.Email,
		Code:      string(hashedCode),
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}

	if err := database.Database.Db.Create(&otp).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate OTP!", nil)
	}

	go func(email, name, code string) {
		if err := utils.SendOTPEmail(email, name, code); err != nil {
			log.Printf("Failed to send OTP email to %s: %v", email, err)
		}
	}(user.Email, user.Name, code)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "If the email is registered, an OTP has been sent.", nil)
}

func findValidOTP(email, code string) (*models.OTP, *models.User, error) {
	var user models.User
	if err := database.Database.Db.Where("email = ? AND is_deleted = ?", email, false).First(&user).Error; err != nil {
		return nil, nil, err
	}

	var otp models.OTP
	if err := database.Database.Db.
		Where("user_id = ? AND is_used = ? AND expires_at > ?", user.ID, false, time.Now()).
		Order("created_at desc").
		First(&otp).Error; err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(otp.Code), []byte(code)); err != nil {
		return nil, nil, err
	}

	return &otp, &user, nil
}

// VerifyOTP checks a pending reset code without consuming it
func VerifyOTP(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedVerifyOTP").(*struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	email := strings.ToLower(strings.TrimSpace(reqData.Email))

	if _, _, err := findValidOTP(email, reqData.OTP); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid or expired OTP!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP verified successfully!", nil)
}

// ResetPassword sets a new password after OTP verification and consumes the code
func ResetPassword(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedResetPassword").(*struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	email := strings.ToLower(strings.TrimSpace(reqData.Email))

	otp, user, err := findValidOTP(email, reqData.OTP)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid or expired OTP!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.NewPassword), config.AppConfig.SaltRound)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reset password!", nil)
	}

	if err := database.Database.Db.Model(user).Update("password", string(hashedPassword)).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reset password!", nil)
	}

	database.Database.Db.Model(otp).Update("is_used", true)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password reset successfully!", nil)
}

// ChangePassword updates the authenticated user's password
func ChangePassword(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedChangePassword").(*struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.CurrentPassword)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Current password is incorrect!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.NewPassword), config.AppConfig.SaltRound)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to change password!", nil)
	}

	if err := database.Database.Db.Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to change password!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password changed successfully!", nil)
}

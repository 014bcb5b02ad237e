package authRoutes

import (
	authController "lms/controllers/auth"
	"lms/middleware"
	authValidator "lms/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", authValidator.Signup(), authController.Signup)
	authGroup.Post("/login", authValidator.Login(), authController.Login)
	authGroup.Post("/forgot/password/send/otp", authValidator.SendOTP(), authController.ForgotPasswordSendOTP)
	authGroup.Patch("/forgot/password/verify/otp", authValidator.VerifyOTP(), authController.VerifyOTP)
	authGroup.Patch("/reset/password", authValidator.ResetPassword(), authController.ResetPassword)
	authGroup.Put("/change/password", authValidator.ChangePassword(), middleware.JWTMiddleware, authController.ChangePassword)
}

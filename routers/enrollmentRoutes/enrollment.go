package enrollmentRoutes

import (
	enrollmentController "lms/controllers/enrollment"
	"lms/middleware"
	enrollmentValidator "lms/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

func SetupEnrollmentRoutes(app *fiber.App) {
	enrollmentGroup := app.Group("/enrollments", middleware.JWTMiddleware)

	enrollmentGroup.Get("/", enrollmentController.GetEnrollments)
	enrollmentGroup.Get("/:id", enrollmentValidator.EnrollmentID(), enrollmentController.GetEnrollment)

	enrollmentGroup.Put("/:id/progress",
		enrollmentValidator.EnrollmentID(),
		enrollmentValidator.UpdateProgress(),
		middleware.RequireStudent(),
		enrollmentController.UpdateProgress)

	enrollmentGroup.Post("/:id/complete-lecture",
		enrollmentValidator.EnrollmentID(),
		enrollmentValidator.CompleteLecture(),
		middleware.RequireStudent(),
		enrollmentController.MarkLectureCompleted)

	enrollmentGroup.Post("/:id/review",
		enrollmentValidator.EnrollmentID(),
		enrollmentValidator.AddReview(),
		middleware.RequireStudent(),
		enrollmentController.AddReview)

	enrollmentGroup.Get("/:id/certificate",
		enrollmentValidator.EnrollmentID(),
		middleware.RequireStudent(),
		enrollmentController.GetCertificate)
}

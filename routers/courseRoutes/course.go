package courseRoutes

import (
	courseController "lms/controllers/course"
	"lms/middleware"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/courses")

	// Public catalog, with optional auth to personalize enrollment state
	courseGroup.Get("/", courseController.GetCourses)
	courseGroup.Get("/featured", courseController.GetFeaturedCourses)
	courseGroup.Get("/:id", courseValidator.CourseID(), middleware.OptionalJWTMiddleware, courseController.GetCourseDetail)

	// Student actions
	courseGroup.Post("/:id/enroll", courseValidator.CourseID(), middleware.JWTMiddleware, middleware.RequireStudent(), courseController.EnrollInCourse)
	courseGroup.Get("/my/enrolled", middleware.JWTMiddleware, middleware.RequireStudent(), courseController.GetMyCourses)

	// Wishlist
	wishlistGroup := app.Group("/wishlist", middleware.JWTMiddleware)
	wishlistGroup.Get("/", courseController.GetWishlist)
	wishlistGroup.Post("/", courseValidator.AddToWishlist(), courseController.AddToWishlist)
	wishlistGroup.Delete("/:id", courseValidator.CourseID(), courseController.RemoveFromWishlist)
}

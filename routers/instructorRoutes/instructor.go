package instructorRoutes

import (
	instructorController "lms/controllers/instructor"
	"lms/middleware"
	courseValidator "lms/validators/course"
	instructorValidator "lms/validators/instructor"

	"github.com/gofiber/fiber/v2"
)

func SetupInstructorRoutes(app *fiber.App) {
	instructorGroup := app.Group("/instructor", middleware.JWTMiddleware, middleware.RequireInstructor())

	instructorGroup.Get("/dashboard", instructorController.GetDashboard)

	// Courses
	instructorGroup.Get("/courses", instructorController.GetMyCourses)
	instructorGroup.Post("/courses", instructorValidator.CreateCourse(), instructorController.CreateCourse)
	instructorGroup.Get("/courses/:id", courseValidator.CourseID(), instructorController.GetCourse)
	instructorGroup.Put("/courses/:id", courseValidator.CourseID(), instructorValidator.UpdateCourse(), instructorController.UpdateCourse)
	instructorGroup.Patch("/courses/:id/publish", courseValidator.CourseID(), instructorController.PublishCourse)
	instructorGroup.Patch("/courses/:id/unpublish", courseValidator.CourseID(), instructorController.UnpublishCourse)
	instructorGroup.Delete("/courses/:id", courseValidator.CourseID(), instructorController.DeleteCourse)

	instructorGroup.Get("/courses/:id/analytics", courseValidator.CourseID(), instructorController.GetCourseAnalytics)
	instructorGroup.Get("/courses/:id/students", courseValidator.CourseID(), instructorController.GetCourseStudents)

	// Curriculum
	instructorGroup.Post("/courses/:id/sections",
		courseValidator.CourseID(),
		instructorValidator.CreateSection(),
		instructorController.CreateSection)
	instructorGroup.Put("/courses/:id/sections/:sectionId",
		courseValidator.CourseID(),
		instructorValidator.IDParam("sectionId", "sectionID"),
		instructorValidator.CreateSection(),
		instructorController.UpdateSection)
	instructorGroup.Delete("/courses/:id/sections/:sectionId",
		courseValidator.CourseID(),
		instructorValidator.IDParam("sectionId", "sectionID"),
		instructorController.DeleteSection)

	instructorGroup.Post("/courses/:id/sections/:sectionId/lectures",
		courseValidator.CourseID(),
		instructorValidator.IDParam("sectionId", "sectionID"),
		instructorValidator.CreateLecture(),
		instructorController.CreateLecture)
	instructorGroup.Put("/courses/:id/lectures/:lectureId",
		courseValidator.CourseID(),
		instructorValidator.IDParam("lectureId", "lectureID"),
		instructorValidator.CreateLecture(),
		instructorController.UpdateLecture)
	instructorGroup.Delete("/courses/:id/lectures/:lectureId",
		courseValidator.CourseID(),
		instructorValidator.IDParam("lectureId", "lectureID"),
		instructorController.DeleteLecture)

	// Media
	instructorGroup.Get("/upload/stats", instructorController.GetUploadStats)
	instructorGroup.Post("/upload/video", instructorController.UploadVideo)
	instructorGroup.Post("/upload/thumbnail", instructorController.UploadThumbnail)
	instructorGroup.Delete("/upload/video", instructorController.DeleteVideo)

	// Streaming is open to enrolled students as well
	app.Get("/lectures/:lectureId/stream",
		middleware.JWTMiddleware,
		instructorValidator.IDParam("lectureId", "lectureID"),
		instructorController.StreamVideo)
}

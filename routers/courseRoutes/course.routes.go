package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	userGroup := app.Group("/course")

	// Course listing and details
	userGroup.Get("/list", middleware.JWTMiddleware, controllers.GetAllCourses)
	userGroup.Get("/:id", middleware.JWTMiddleware, validators.CourseID(), controllers.GetCourseDetails)

	// Content completion
	userGroup.Post("/:course_id/content/:content_id/complete", middleware.JWTMiddleware, validators.MarkContentComplete(), controllers.MarkContentComplete)
}

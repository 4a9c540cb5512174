package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up all admin course management routes
func SetupAdminCourseRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/course")

	// Course CRUD
	adminGroup.Post("/create", middleware.JWTMiddleware, validators.CreateCourse(), controllers.AdminCreateCourse)
	adminGroup.Put("/:id", middleware.JWTMiddleware, validators.UpdateCourse(), controllers.AdminUpdateCourse)
	adminGroup.Delete("/:id", middleware.JWTMiddleware, validators.CourseID(), controllers.AdminDeleteCourse)
	adminGroup.Post("/:id/image", middleware.JWTMiddleware, validators.CourseID(), controllers.AdminUploadCourseImage)

	// Content ingestion
	adminGroup.Post("/:id/video", middleware.JWTMiddleware, validators.AddVideo(), controllers.AdminAddVideo)
	adminGroup.Post("/:id/import-playlist", middleware.JWTMiddleware, validators.ImportPlaylist(), controllers.AdminImportPlaylist)
	adminGroup.Post("/:id/content", middleware.JWTMiddleware, validators.CreateContent(), controllers.AdminCreateContent)

	// Content endpoints (separate from course group for easier access)
	contentGroup := app.Group("/admin/content")
	contentGroup.Delete("/:content_id", middleware.JWTMiddleware, validators.DeleteContent(), controllers.AdminDeleteContent)
}

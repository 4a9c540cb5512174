package controllers

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"math"

	"github.com/gofiber/fiber/v2"
)

// CourseSummary is one row of the course catalog listing
type CourseSummary struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	ContentCount int    `json:"content_count"`
	Progress     int    `json:"progress"` // completion percentage for the caller
}

// ContentWithCompletion is a content row enriched with the caller's completion flag
type ContentWithCompletion struct {
	models.Content
	IsCompleted bool `json:"is_completed"`
}

// progressPercent computes a rounded completion percentage
func progressPercent(total, completed int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// GetAllCourses lists all courses, newest first, with the caller's progress
func GetAllCourses(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	var courses []models.Course
	if err := database.Database.Db.Where("is_deleted = ?", false).
		Order("created_at desc").Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	summaries := make([]CourseSummary, len(courses))
	for i, course := range courses {
		var total int64
		database.Database.Db.Model(&models.Content{}).
			Where("course_id = ? AND is_deleted = ?", course.ID, false).Count(&total)

		var completed int64
		database.Database.Db.Model(&models.Progress{}).
			Where("user_id = ? AND course_id = ? AND completed = ? AND is_deleted = ?", userId, course.ID, true, false).
			Count(&completed)

		summaries[i] = CourseSummary{
			ID:           course.ID,
			Title:        course.Title,
			Description:  course.Description,
			ImageURL:     course.ImageURL,
			ContentCount: int(total),
			Progress:     progressPercent(total, completed),
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", summaries)
}

// GetCourseDetails returns one course with its ordered contents and the
// caller's per-content completion flags
func GetCourseDetails(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var contents []models.Content
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("order_index asc").Find(&contents).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course content!", nil)
	}

	completed := int64(0)
	result := make([]ContentWithCompletion, len(contents))
	for i, content := range contents {
		result[i] = ContentWithCompletion{Content: content}

		var progress models.Progress
		if err := database.Database.Db.Where("user_id = ? AND content_id = ? AND completed = ? AND is_deleted = ?",
			userId, content.ID, true, false).First(&progress).Error; err == nil {
			result[i].IsCompleted = true
			completed++
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", fiber.Map{
		"course":        course,
		"contents":      result,
		"content_count": len(contents),
		"progress":      progressPercent(int64(len(contents)), completed),
	})
}

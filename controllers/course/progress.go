package controllers

import (
	"lms/database"
	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
)

// MarkContentComplete upserts the caller's completion flag for one content item
func MarkContentComplete(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)
	contentID := c.Locals("contentID").(int)

	reqData, ok := c.Locals("validatedProgress").(*struct {
		Completed bool `json:"completed"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var content models.Content
	if err := database.Database.Db.Where("id = ? AND course_id = ? AND is_deleted = ?", contentID, courseID, false).
		First(&content).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found!", nil)
	}

	var progress models.Progress
	err := database.Database.Db.Where("user_id = ? AND content_id = ? AND is_deleted = ?", userId, contentID, false).
		First(&progress).Error
	if err != nil {
		progress = models.Progress{
			UserID:    userId,
			CourseID:  uint(courseID),
			ContentID: uint(contentID),
			Completed: reqData.Completed,
		}
		if err := database.Database.Db.Create(&progress).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save progress!", nil)
		}
	} else {
		progress.Completed = reqData.Completed
		if err := database.Database.Db.Save(&progress).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save progress!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", progress)
}

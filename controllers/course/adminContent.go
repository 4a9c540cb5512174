package controllers

import (
	"errors"
	"fmt"
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// nextOrderIndex computes the display order for the next content appended to
// a course: 0 for an empty course, max + 1 otherwise. Read once per request
// and incremented locally, so two concurrent imports into the same course can
// observe the same starting value.
func nextOrderIndex(db *gorm.DB, courseID uint) int {
	maxOrder := -1
	db.Model(&models.Content{}).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Select("COALESCE(MAX(order_index), -1)").Scan(&maxOrder)
	return maxOrder + 1
}

// AdminAddVideo adds a single YouTube video to a course as its last content
func AdminAddVideo(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if user.Role != "ADMIN" {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}

	courseID := c.Locals("courseID").(int)

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedAddVideo").(*struct {
		YoutubeURL string `json:"youtube_url"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	videoID, err := utils.ExtractVideoID(reqData.YoutubeURL)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid YouTube URL!", nil)
	}

	client, err := utils.NewYoutubeClient()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "YouTube API key not configured. Please add YOUTUBE_API_KEY to your environment.", nil)
	}

	title, err := client.GetVideoTitle(videoID)
	if err != nil {
		if errors.Is(err, utils.ErrVideoNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Video not found!", nil)
		}
		if errors.Is(err, utils.ErrQuotaExceeded) {
			return middleware.JsonResponse(c, fiber.StatusTooManyRequests, false, "YouTube API quota exceeded. Please try again later.", nil)
		}
		log.Printf("Error fetching video details: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add video!", nil)
	}

	content := models.Content{
		CourseID:    uint(courseID),
		Title:       title,
		ContentType: models.ContentTypeVideo,
		YoutubeURL:  reqData.YoutubeURL,
		OrderIndex:  nextOrderIndex(database.Database.Db, uint(courseID)),
	}

	if err := database.Database.Db.Create(&content).Error; err != nil {
		log.Printf("Error saving content: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add video!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Video added successfully!", content)
}

// AdminImportPlaylist imports every video of a YouTube playlist into a course,
// preserving the playlist order. Items without a video ID or title (deleted or
// private videos) are skipped and do not consume an order slot. Rows created
// before a mid-import failure are kept.
func AdminImportPlaylist(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if user.Role != "ADMIN" {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}

	courseID := c.Locals("courseID").(int)

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedImportPlaylist").(*struct {
		PlaylistURL string `json:"playlist_url"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	playlistID, err := utils.ExtractPlaylistID(reqData.PlaylistURL)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid playlist URL!", nil)
	}

	client, err := utils.NewYoutubeClient()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "YouTube API key not configured. Please add YOUTUBE_API_KEY to your environment.", nil)
	}

	videos, err := client.FetchPlaylistItems(playlistID)
	if err != nil {
		if errors.Is(err, utils.ErrQuotaExceeded) {
			return middleware.JsonResponse(c, fiber.StatusTooManyRequests, false, "YouTube API quota exceeded. Please try again later.", nil)
		}
		log.Printf("Error fetching playlist %s: %v", playlistID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch playlist!", nil)
	}

	if len(videos) == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No videos found in playlist!", nil)
	}

	orderIndex := nextOrderIndex(database.Database.Db, uint(courseID))

	var created []models.Content
	for _, video := range videos {
		// Deleted and private playlist members come back without an ID or title
		if video.VideoID == "" || video.Title == "" {
			continue
		}

		content := models.Content{
			CourseID:    uint(courseID),
			Title:       video.Title,
			ContentType: models.ContentTypeVideo,
			YoutubeURL:  utils.WatchURL(video.VideoID),
			PlaylistID:  playlistID,
			OrderIndex:  orderIndex,
		}

		if err := database.Database.Db.Create(&content).Error; err != nil {
			// No rollback of rows created so far
			log.Printf("Error saving playlist content: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false,
				fmt.Sprintf("Playlist import failed after adding %d videos!", len(created)), fiber.Map{
					"count":    len(created),
					"contents": created,
				})
		}

		created = append(created, content)
		orderIndex++
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true,
		fmt.Sprintf("Successfully added %d videos from playlist", len(created)), fiber.Map{
			"count":    len(created),
			"contents": created,
		})
}

// AdminCreateContent creates a content row directly, without touching the
// YouTube API. Used by the admin UI when the title is already known.
func AdminCreateContent(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if user.Role != "ADMIN" {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}

	courseID := c.Locals("courseID").(int)

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedContent").(*struct {
		Title      string `json:"title"`
		YoutubeURL string `json:"youtube_url"`
		PlaylistID string `json:"playlist_id"`
		OrderIndex *int   `json:"order_index"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	orderIndex := nextOrderIndex(database.Database.Db, uint(courseID))
	if reqData.OrderIndex != nil {
		orderIndex = *reqData.OrderIndex
	}

	content := models.Content{
		CourseID:    uint(courseID),
		Title:       reqData.Title,
		ContentType: models.ContentTypeVideo,
		YoutubeURL:  reqData.YoutubeURL,
		PlaylistID:  reqData.PlaylistID,
		OrderIndex:  orderIndex,
	}

	if err := database.Database.Db.Create(&content).Error; err != nil {
		log.Printf("Error saving content: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create content!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Content created successfully!", content)
}

// AdminDeleteContent soft deletes one content item. Remaining siblings keep
// their order values, so deletion may leave gaps in the sequence.
func AdminDeleteContent(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if user.Role != "ADMIN" {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}

	contentID := c.Locals("contentID").(int)

	var content models.Content
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", contentID, false).First(&content).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found!", nil)
	}

	content.IsDeleted = true
	if err := database.Database.Db.Save(&content).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete content!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content deleted successfully!", nil)
}

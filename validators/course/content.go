package courseValidator

import (
	"lms/middleware"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func AddVideo() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, err := courseIDFromParams(c, "id")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}

		reqData := new(struct {
			YoutubeURL string `json:"youtube_url"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.YoutubeURL = strings.TrimSpace(reqData.YoutubeURL)
		if reqData.YoutubeURL == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "YouTube URL is required!", nil)
		}

		c.Locals("courseID", courseID)
		c.Locals("validatedAddVideo", reqData)

		return c.Next()
	}
}

func ImportPlaylist() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, err := courseIDFromParams(c, "id")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}

		reqData := new(struct {
			PlaylistURL string `json:"playlist_url"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.PlaylistURL = strings.TrimSpace(reqData.PlaylistURL)
		if reqData.PlaylistURL == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Playlist URL is required!", nil)
		}

		c.Locals("courseID", courseID)
		c.Locals("validatedImportPlaylist", reqData)

		return c.Next()
	}
}

func CreateContent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, err := courseIDFromParams(c, "id")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}

		reqData := new(struct {
			Title      string `json:"title"`
			YoutubeURL string `json:"youtube_url"`
			PlaylistID string `json:"playlist_id"`
			OrderIndex *int   `json:"order_index"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.YoutubeURL = strings.TrimSpace(reqData.YoutubeURL)

		if reqData.Title == "" {
			errors["title"] = "Title is required!"
		}
		if reqData.YoutubeURL == "" {
			errors["youtube_url"] = "YouTube URL is required!"
		}
		if reqData.OrderIndex != nil && *reqData.OrderIndex < 0 {
			errors["order_index"] = "Order must not be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("courseID", courseID)
		c.Locals("validatedContent", reqData)

		return c.Next()
	}
}

func DeleteContent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		contentIDStr := strings.TrimSpace(c.Params("content_id"))
		if contentIDStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Content ID is required!", nil)
		}

		contentID, err := strconv.Atoi(contentIDStr)
		if err != nil || contentID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Content ID!", nil)
		}

		c.Locals("contentID", contentID)
		return c.Next()
	}
}

func MarkContentComplete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, err := courseIDFromParams(c, "course_id")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}

		contentIDStr := strings.TrimSpace(c.Params("content_id"))
		if contentIDStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Content ID is required!", nil)
		}
		contentID, convErr := strconv.Atoi(contentIDStr)
		if convErr != nil || contentID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Content ID!", nil)
		}

		reqData := new(struct {
			Completed bool `json:"completed"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		c.Locals("courseID", courseID)
		c.Locals("contentID", contentID)
		c.Locals("validatedProgress", reqData)

		return c.Next()
	}
}

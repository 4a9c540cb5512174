package courseValidator

import (
	"lms/middleware"
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// courseIDFromParams parses and validates the :id route parameter
func courseIDFromParams(c *fiber.Ctx, param string) (int, error) {
	courseIDStr := strings.TrimSpace(c.Params(param))
	if courseIDStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Course ID is required in the URL!")
	}

	courseID, err := strconv.Atoi(courseIDStr)
	if err != nil || courseID <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid Course ID!")
	}

	return courseID, nil
}

func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			ImageURL    string `json:"image_url"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		// Normalize and sanitize inputs
		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.Description = strings.TrimSpace(reqData.Description)
		reqData.ImageURL = strings.TrimSpace(reqData.ImageURL)

		// Validate Title
		if reqData.Title == "" {
			errors["title"] = "Title is required!"
		} else {
			if len(reqData.Title) < 3 {
				errors["title"] = "Title must be at least 3 characters long!"
			}
			if len(reqData.Title) > 100 {
				errors["title"] = "Title must not exceed 100 characters!"
			}
			// Check for invalid characters (e.g., HTML tags)
			if matched, _ := regexp.MatchString(`[<>{}]`, reqData.Title); matched {
				errors["title"] = "Title contains invalid characters (e.g., <, >, {, })!"
			}
		}

		// Validate Description
		if reqData.Description == "" {
			errors["description"] = "Description is required!"
		} else if len(reqData.Description) > 2000 {
			errors["description"] = "Description must not exceed 2000 characters!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourse", reqData)

		return c.Next()
	}
}

func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, err := courseIDFromParams(c, "id")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}

		reqData := new(struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			ImageURL    string `json:"image_url"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.Description = strings.TrimSpace(reqData.Description)
		reqData.ImageURL = strings.TrimSpace(reqData.ImageURL)

		if reqData.Title != "" && len(reqData.Title) > 100 {
			errors["title"] = "Title must not exceed 100 characters!"
		}
		if reqData.Description != "" && len(reqData.Description) > 2000 {
			errors["description"] = "Description must not exceed 2000 characters!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("courseID", courseID)
		c.Locals("validatedCourseUpdate", reqData)

		return c.Next()
	}
}

// CourseID validates routes that only carry a course ID parameter
func CourseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, err := courseIDFromParams(c, "id")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}

		c.Locals("courseID", courseID)
		return c.Next()
	}
}

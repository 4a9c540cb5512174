package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	validators "lms/validators/course"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestApp wires an in-memory database and the course routes
func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	config.AppConfig = &config.Config{
		JWTKey:        "test-secret",
		SaltRound:     4,
		YoutubeApiKey: "test-key",
		YoutubeApiUrl: "https://example.invalid",
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	app := fiber.New()
	app.Post("/admin/course/:id/video", middleware.JWTMiddleware, validators.AddVideo(), AdminAddVideo)
	app.Post("/admin/course/:id/import-playlist", middleware.JWTMiddleware, validators.ImportPlaylist(), AdminImportPlaylist)
	app.Post("/admin/course/:id/content", middleware.JWTMiddleware, validators.CreateContent(), AdminCreateContent)
	app.Delete("/admin/content/:content_id", middleware.JWTMiddleware, validators.DeleteContent(), AdminDeleteContent)
	app.Get("/course/list", middleware.JWTMiddleware, GetAllCourses)
	app.Get("/course/:id", middleware.JWTMiddleware, validators.CourseID(), GetCourseDetails)
	app.Post("/course/:course_id/content/:content_id/complete", middleware.JWTMiddleware, validators.MarkContentComplete(), MarkContentComplete)

	return app
}

func createTestUser(t *testing.T, role string) (models.User, string) {
	t.Helper()

	user := models.User{
		Name:     "Test " + role,
		Email:    strings.ToLower(role) + "-" + strings.ReplaceAll(t.Name(), "/", "-") + "@example.com",
		Role:     role,
		Password: "not-used",
	}
	if err := database.Database.Db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	return user, token
}

func createTestCourse(t *testing.T, title string) models.Course {
	t.Helper()

	course := models.Course{Title: title, Description: "test course"}
	if err := database.Database.Db.Create(&course).Error; err != nil {
		t.Fatalf("failed to create course: %v", err)
	}
	return course
}

func createTestContent(t *testing.T, courseID uint, title string, order int) models.Content {
	t.Helper()

	content := models.Content{
		CourseID:    courseID,
		Title:       title,
		ContentType: models.ContentTypeVideo,
		YoutubeURL:  testWatchURL(title),
		OrderIndex:  order,
	}
	if err := database.Database.Db.Create(&content).Error; err != nil {
		t.Fatalf("failed to create content: %v", err)
	}
	return content
}

// testWatchURL builds a deterministic video URL for fixtures
func testWatchURL(seed string) string {
	return "https://www.youtube.com/watch?v=" + strings.ReplaceAll(seed, " ", "-")
}

func doRequest(t *testing.T, app *fiber.App, method, target, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var payload map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("failed to parse response %q: %v", string(raw), err)
		}
	}

	return resp, payload
}

func liveContents(t *testing.T, courseID uint) []models.Content {
	t.Helper()

	var contents []models.Content
	if err := database.Database.Db.
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("order_index asc").Find(&contents).Error; err != nil {
		t.Fatalf("failed to fetch contents: %v", err)
	}
	return contents
}

func TestNextOrderIndex(t *testing.T) {
	setupTestApp(t)
	course := createTestCourse(t, "Ordering")
	db := database.Database.Db

	t.Run("returns 0 for an empty course", func(t *testing.T) {
		if got := nextOrderIndex(db, course.ID); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("returns max+1 with existing content", func(t *testing.T) {
		createTestContent(t, course.ID, "a", 0)
		createTestContent(t, course.ID, "b", 1)
		createTestContent(t, course.ID, "c", 5)

		if got := nextOrderIndex(db, course.ID); got != 6 {
			t.Errorf("expected 6, got %d", got)
		}
	})

	t.Run("ignores deleted rows", func(t *testing.T) {
		db.Model(&models.Content{}).
			Where("course_id = ? AND order_index = ?", course.ID, 5).
			Update("is_deleted", true)

		if got := nextOrderIndex(db, course.ID); got != 2 {
			t.Errorf("expected 2, got %d", got)
		}
	})

	t.Run("is scoped per course", func(t *testing.T) {
		other := createTestCourse(t, "Other")
		if got := nextOrderIndex(db, other.ID); got != 0 {
			t.Errorf("expected 0 for a fresh course, got %d", got)
		}
	})
}

// fakeCatalog spins up a stub YouTube API and points the client config at it
func fakeCatalog(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	config.AppConfig.YoutubeApiUrl = server.URL
	return server
}

func TestAdminAddVideo(t *testing.T) {
	t.Run("creates one content row with the resolved title", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Go Course")
		createTestContent(t, course.ID, "existing", 0)

		fakeCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"items":[{"snippet":{"title":"Concurrency Patterns"}}]}`)
		})

		submitted := "https://youtu.be/dQw4w9WgXcQ"
		resp, payload := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/video", course.ID), token,
			fiber.Map{"youtube_url": submitted})

		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, payload)
		}

		contents := liveContents(t, course.ID)
		if len(contents) != 2 {
			t.Fatalf("expected 2 contents, got %d", len(contents))
		}

		added := contents[1]
		if added.Title != "Concurrency Patterns" {
			t.Errorf("expected resolved title, got %q", added.Title)
		}
		if added.YoutubeURL != submitted {
			t.Errorf("expected submitted URL to be stored, got %q", added.YoutubeURL)
		}
		if added.OrderIndex != 1 {
			t.Errorf("expected order 1, got %d", added.OrderIndex)
		}
		if added.PlaylistID != "" {
			t.Errorf("expected no playlist id, got %q", added.PlaylistID)
		}
	})

	t.Run("rejects a malformed URL without calling the catalog", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Go Course")

		requests := 0
		fakeCatalog(t, func(w http.ResponseWriter, r *http.Request) { requests++ })

		resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/video", course.ID), token,
			fiber.Map{"youtube_url": "https://vimeo.com/12345"})

		if resp.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		if requests != 0 {
			t.Errorf("expected no catalog calls, got %d", requests)
		}
		if got := liveContents(t, course.ID); len(got) != 0 {
			t.Errorf("expected no rows, got %d", len(got))
		}
	})

	t.Run("returns 404 when the video does not exist", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Go Course")

		fakeCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"items":[]}`)
		})

		resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/video", course.ID), token,
			fiber.Map{"youtube_url": "https://youtu.be/gonevideo"})

		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
		if got := liveContents(t, course.ID); len(got) != 0 {
			t.Errorf("expected no rows, got %d", len(got))
		}
	})

	t.Run("surfaces quota exhaustion as 429 with zero rows", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Go Course")

		fakeCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":{"code":403,"errors":[{"reason":"quotaExceeded"}]}}`)
		})

		resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/video", course.ID), token,
			fiber.Map{"youtube_url": "https://youtu.be/dQw4w9WgXcQ"})

		if resp.StatusCode != fiber.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", resp.StatusCode)
		}
		if got := liveContents(t, course.ID); len(got) != 0 {
			t.Errorf("expected no rows after quota failure, got %d", len(got))
		}
	})

	t.Run("rejects non-admin users", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "USER")
		course := createTestCourse(t, "Go Course")

		requests := 0
		fakeCatalog(t, func(w http.ResponseWriter, r *http.Request) { requests++ })

		resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/video", course.ID), token,
			fiber.Map{"youtube_url": "https://youtu.be/dQw4w9WgXcQ"})

		if resp.StatusCode != fiber.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
		if requests != 0 {
			t.Errorf("expected no catalog calls, got %d", requests)
		}
	})

	t.Run("fails before any network call when the API key is missing", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Go Course")

		requests := 0
		fakeCatalog(t, func(w http.ResponseWriter, r *http.Request) { requests++ })
		config.AppConfig.YoutubeApiKey = ""

		resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/video", course.ID), token,
			fiber.Map{"youtube_url": "https://youtu.be/dQw4w9WgXcQ"})

		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", resp.StatusCode)
		}
		if requests != 0 {
			t.Errorf("expected no catalog calls, got %d", requests)
		}
	})

	t.Run("returns 404 for an unknown course", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")

		resp, _ := doRequest(t, app, "POST", "/admin/course/999/video", token,
			fiber.Map{"youtube_url": "https://youtu.be/dQw4w9WgXcQ"})

		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func playlistItemJSON(videoID, title string) string {
	return fmt.Sprintf(`{"snippet":{"title":%q,"resourceId":{"videoId":%q}}}`, title, videoID)
}

func TestAdminImportPlaylist(t *testing.T) {
	t.Run("imports a multi-page playlist in order", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Big Course")

		fakeCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			var items []string
			next := ""
			if r.URL.Query().Get("pageToken") == "" {
				for i := 0; i < 50; i++ {
					items = append(items, playlistItemJSON(fmt.Sprintf("p1-%d", i), fmt.Sprintf("Part %d", i)))
				}
				next = `,"nextPageToken":"PAGE2"`
			} else {
				for i := 0; i < 7; i++ {
					items = append(items, playlistItemJSON(fmt.Sprintf("p2-%d", i), fmt.Sprintf("Part %d", 50+i)))
				}
			}
			fmt.Fprintf(w, `{"items":[%s]%s}`, strings.Join(items, ","), next)
		})

		resp, payload := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/import-playlist", course.ID), token,
			fiber.Map{"playlist_url": "https://www.youtube.com/playlist?list=PLbig"})

		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, payload)
		}

		data := payload["data"].(map[string]interface{})
		if count := int(data["count"].(float64)); count != 57 {
			t.Errorf("expected count 57, got %d", count)
		}

		contents := liveContents(t, course.ID)
		if len(contents) != 57 {
			t.Fatalf("expected 57 rows, got %d", len(contents))
		}
		for i, content := range contents {
			if content.OrderIndex != i {
				t.Fatalf("expected contiguous orders, got %d at position %d", content.OrderIndex, i)
			}
			if content.PlaylistID != "PLbig" {
				t.Fatalf("expected playlist id PLbig, got %q", content.PlaylistID)
			}
		}
		if contents[0].YoutubeURL != "https://www.youtube.com/watch?v=p1-0" {
			t.Errorf("expected canonical URL, got %q", contents[0].YoutubeURL)
		}
		if contents[50].Title != "Part 50" {
			t.Errorf("expected page order preserved, got %q at index 50", contents[50].Title)
		}
	})

	t.Run("skips items missing an id or title without burning order slots", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Course C")
		createTestContent(t, course.ID, "first", 0)
		createTestContent(t, course.ID, "second", 1)

		fakeCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"items":[%s,%s,%s]}`,
				playlistItemJSON("a", "A"),
				playlistItemJSON("b", ""),
				playlistItemJSON("c", "C"))
		})

		resp, payload := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/import-playlist", course.ID), token,
			fiber.Map{"playlist_url": "https://www.youtube.com/playlist?list=PLmixed"})

		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, payload)
		}

		data := payload["data"].(map[string]interface{})
		if count := int(data["count"].(float64)); count != 2 {
			t.Errorf("expected count 2, got %d", count)
		}

		contents := liveContents(t, course.ID)
		if len(contents) != 4 {
			t.Fatalf("expected 4 rows, got %d", len(contents))
		}
		if contents[2].OrderIndex != 2 || contents[2].YoutubeURL != "https://www.youtube.com/watch?v=a" {
			t.Errorf("expected order 2 -> video a, got order %d url %q", contents[2].OrderIndex, contents[2].YoutubeURL)
		}
		if contents[3].OrderIndex != 3 || contents[3].YoutubeURL != "https://www.youtube.com/watch?v=c" {
			t.Errorf("expected order 3 -> video c, got order %d url %q", contents[3].OrderIndex, contents[3].YoutubeURL)
		}
	})

	t.Run("returns 404 for an empty playlist", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Empty Course")

		fakeCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"items":[]}`)
		})

		resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/import-playlist", course.ID), token,
			fiber.Map{"playlist_url": "https://www.youtube.com/playlist?list=PLempty"})

		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
		if got := liveContents(t, course.ID); len(got) != 0 {
			t.Errorf("expected no rows, got %d", len(got))
		}
	})

	t.Run("rejects a URL without a list parameter", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Course")

		resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/import-playlist", course.ID), token,
			fiber.Map{"playlist_url": "https://www.youtube.com/watch?v=abc"})

		if resp.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("surfaces quota exhaustion during pagination before any insert", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Quota Course")

		fakeCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("pageToken") == "" {
				fmt.Fprintf(w, `{"items":[%s],"nextPageToken":"PAGE2"}`, playlistItemJSON("a", "A"))
				return
			}
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":{"code":403,"errors":[{"reason":"quotaExceeded"}]}}`)
		})

		resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/import-playlist", course.ID), token,
			fiber.Map{"playlist_url": "https://www.youtube.com/playlist?list=PLq"})

		if resp.StatusCode != fiber.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", resp.StatusCode)
		}
		// All pages are fetched before the insert loop starts, so a quota
		// failure mid-pagination commits nothing.
		if got := liveContents(t, course.ID); len(got) != 0 {
			t.Errorf("expected no rows, got %d", len(got))
		}
	})

	t.Run("rejects non-admin users", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "USER")
		course := createTestCourse(t, "Course")

		resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/import-playlist", course.ID), token,
			fiber.Map{"playlist_url": "https://www.youtube.com/playlist?list=PLx"})

		if resp.StatusCode != fiber.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	})
}

func TestAdminDeleteContent(t *testing.T) {
	t.Run("removes the row and keeps sibling orders", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Course")
		createTestContent(t, course.ID, "a", 0)
		middle := createTestContent(t, course.ID, "b", 1)
		createTestContent(t, course.ID, "c", 2)

		resp, _ := doRequest(t, app, "DELETE", fmt.Sprintf("/admin/content/%d", middle.ID), token, nil)
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		contents := liveContents(t, course.ID)
		if len(contents) != 2 {
			t.Fatalf("expected 2 live rows, got %d", len(contents))
		}
		if contents[0].OrderIndex != 0 || contents[1].OrderIndex != 2 {
			t.Errorf("expected orders [0 2] with a gap, got [%d %d]", contents[0].OrderIndex, contents[1].OrderIndex)
		}

		// The next append continues past the gap
		if got := nextOrderIndex(database.Database.Db, course.ID); got != 3 {
			t.Errorf("expected next order 3, got %d", got)
		}
	})

	t.Run("returns 404 for an unknown or already deleted row", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Course")
		content := createTestContent(t, course.ID, "a", 0)

		resp, _ := doRequest(t, app, "DELETE", "/admin/content/999", token, nil)
		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}

		doRequest(t, app, "DELETE", fmt.Sprintf("/admin/content/%d", content.ID), token, nil)
		resp, _ = doRequest(t, app, "DELETE", fmt.Sprintf("/admin/content/%d", content.ID), token, nil)
		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("expected 404 on second delete, got %d", resp.StatusCode)
		}
	})

	t.Run("rejects non-admin users", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "USER")
		course := createTestCourse(t, "Course")
		content := createTestContent(t, course.ID, "a", 0)

		resp, _ := doRequest(t, app, "DELETE", fmt.Sprintf("/admin/content/%d", content.ID), token, nil)
		if resp.StatusCode != fiber.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
		if got := liveContents(t, course.ID); len(got) != 1 {
			t.Errorf("expected the row to survive, got %d rows", len(got))
		}
	})
}

func TestAdminCreateContent(t *testing.T) {
	t.Run("defaults the order to the next free slot", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Course")
		createTestContent(t, course.ID, "a", 0)

		resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/content", course.ID), token,
			fiber.Map{"title": "Manual Lesson", "youtube_url": "https://www.youtube.com/watch?v=man1"})

		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		contents := liveContents(t, course.ID)
		if len(contents) != 2 || contents[1].OrderIndex != 1 {
			t.Fatalf("expected new row at order 1, got %+v", contents)
		}
	})

	t.Run("requires title and URL", func(t *testing.T) {
		app := setupTestApp(t)
		_, token := createTestUser(t, "ADMIN")
		course := createTestCourse(t, "Course")

		resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/admin/course/%d/content", course.ID), token,
			fiber.Map{"title": ""})

		if resp.StatusCode != fiber.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", resp.StatusCode)
		}
	})
}

package utils

import (
	"errors"
	"lms/config"
	"lms/database"
	"lms/models"
	"log"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// logTitleSync logs scheduler events with timestamp
func logTitleSync(message string) {
	log.Printf("[TITLE-SYNC %s] %s", time.Now().Format(time.RFC3339), message)
}

// syncContentTitles re-fetches the YouTube title for every live video content
// and updates rows whose title drifted upstream. Runs sequentially and stops
// early when the daily API quota runs out.
func syncContentTitles() {
	client, err := NewYoutubeClient()
	if err != nil {
		logTitleSync("Skipping run: " + err.Error())
		return
	}

	db := database.Database.Db

	var contents []models.Content
	if err := db.Where("content_type = ? AND is_deleted = ?", models.ContentTypeVideo, false).
		Order("course_id asc, order_index asc").
		Find(&contents).Error; err != nil {
		logTitleSync("Error fetching contents: " + err.Error())
		return
	}

	updated := 0
	for _, content := range contents {
		videoID, err := ExtractVideoID(content.YoutubeURL)
		if err != nil {
			continue
		}

		title, err := client.GetVideoTitle(videoID)
		if errors.Is(err, ErrQuotaExceeded) {
			logTitleSync("Quota exceeded, stopping run early")
			break
		}
		if err != nil {
			// Deleted or private upstream videos are left as they are
			continue
		}

		if title != content.Title {
			content.Title = title
			if err := db.Save(&content).Error; err != nil {
				logTitleSync("Error saving content: " + err.Error())
				continue
			}
			updated++
		}
	}

	logTitleSync("Run finished, updated titles: " + strconv.Itoa(updated))
}

// StartTitleSyncScheduler registers the nightly title re-sync job
func StartTitleSyncScheduler() {
	if config.AppConfig.TitleSyncCron == "" || config.AppConfig.YoutubeApiKey == "" {
		log.Println("Title sync scheduler disabled")
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(config.AppConfig.TitleSyncCron, syncContentTitles); err != nil {
		log.Printf("Failed to register title sync job: %v", err)
		return
	}
	c.Start()

	log.Printf("Title sync scheduler started (%s)", config.AppConfig.TitleSyncCron)
}

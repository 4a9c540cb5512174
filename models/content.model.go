package models

import "gorm.io/gorm"

// Content type values
const (
	ContentTypeVideo = "VIDEO"
)

// Content represents one lesson inside a course, backed by a YouTube video.
// OrderIndex defines the display sequence within the course: unique among
// live rows, assigned append-only (max + 1), gaps after deletion are kept.
type Content struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title" gorm:"not null"`
	ContentType string `json:"content_type" gorm:"default:'VIDEO'"` // VIDEO
	YoutubeURL  string `json:"youtube_url"`
	PlaylistID  string `json:"playlist_id"` // set when imported from a playlist
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	IsDeleted   bool   `gorm:"default:false"`
}

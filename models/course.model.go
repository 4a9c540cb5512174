package models

import "gorm.io/gorm"

// Course represents a learning course made up of ordered video contents
type Course struct {
	gorm.Model
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	IsDeleted   bool   `gorm:"default:false"`
}

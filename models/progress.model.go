package models

import "gorm.io/gorm"

// Progress tracks a user's completion of a single content item
type Progress struct {
	gorm.Model
	UserID    uint `json:"user_id" gorm:"index;not null"`
	CourseID  uint `json:"course_id" gorm:"index;not null"`
	ContentID uint `json:"content_id" gorm:"index;not null"`
	Completed bool `json:"completed" gorm:"default:false"`
	IsDeleted bool `gorm:"default:false"`
}

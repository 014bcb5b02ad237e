package models

import "gorm.io/gorm"

// Wishlist links a user to a course they saved for later.
// The composite unique index rejects duplicate adds at the storage level.
// Rows are removed outright on unsave; a soft-deleted row would still occupy
// the unique index and block re-adding the course.
type Wishlist struct {
	gorm.Model
	UserID   uint `gorm:"not null;uniqueIndex:idx_wishlist_user_course" json:"user_id"`
	CourseID uint `gorm:"not null;uniqueIndex:idx_wishlist_user_course" json:"course_id"`
}

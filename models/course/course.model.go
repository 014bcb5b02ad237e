package course

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course status values
const (
	StatusDraft       = "DRAFT"
	StatusPublished   = "PUBLISHED"
	StatusUnpublished = "UNPUBLISHED"
)

// Course categories
var Categories = []string{"development", "business", "design", "marketing", "it", "music"}

// Course levels
var Levels = []string{"all", "beginner", "intermediate", "advanced"}

// Course represents a learning course authored by an instructor
type Course struct {
	gorm.Model
	Title        string `gorm:"size:100;not null" json:"title"`
	Subtitle     string `gorm:"size:200" json:"subtitle"`
	Description  string `gorm:"type:text" json:"description"`
	InstructorID uint   `gorm:"index;not null" json:"instructor_id"`
	Category     string `gorm:"size:50;index" json:"category"`
	Level        string `gorm:"size:20;default:'all'" json:"level"`

	Price         float64 `gorm:"default:0" json:"price"`
	OriginalPrice float64 `gorm:"default:0" json:"original_price"`
	Discount      int     `gorm:"default:0" json:"discount"` // derived percentage

	ThumbnailURL      string `json:"thumbnail_url"`
	ThumbnailPublicID string `json:"thumbnail_public_id"`

	PromoVideoURL      string `json:"promo_video_url"`
	PromoVideoPublicID string `json:"promo_video_public_id"`
	PromoVideoDuration int    `json:"promo_video_duration"` // seconds
	PromoVideoFormat   string `json:"promo_video_format"`
	PromoVideoSize     int64  `json:"promo_video_size"` // bytes

	Requirements     datatypes.JSON `json:"requirements"`
	LearningOutcomes datatypes.JSON `json:"learning_outcomes"`

	Status     string `gorm:"size:20;default:'DRAFT';index" json:"status"` // DRAFT, PUBLISHED, UNPUBLISHED
	Featured   bool   `gorm:"default:false" json:"featured"`
	Bestseller bool   `gorm:"default:false" json:"bestseller"`

	// Derived aggregates, owned by the aggregation job and totals refresh
	StudentsCount int     `gorm:"default:0" json:"students_count"`
	AverageRating float64 `gorm:"default:0" json:"average_rating"`
	ReviewCount   int     `gorm:"default:0" json:"review_count"`
	TotalLectures int     `gorm:"default:0" json:"total_lectures"`
	TotalDuration int     `gorm:"default:0" json:"total_duration"` // minutes

	IsDeleted bool `gorm:"default:false" json:"-"`
}

// Section represents an ordered group of lectures within a course
type Section struct {
	gorm.Model
	CourseID   uint   `gorm:"index;not null" json:"course_id"`
	Title      string `gorm:"size:200;not null" json:"title"`
	OrderIndex int    `gorm:"default:0" json:"order_index"`
	IsDeleted  bool   `gorm:"default:false" json:"-"`
}

// Lecture represents a single video lecture inside a section
type Lecture struct {
	gorm.Model
	SectionID   uint   `gorm:"index;not null" json:"section_id"`
	CourseID    uint   `gorm:"index;not null" json:"course_id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	OrderIndex  int    `gorm:"default:0" json:"order_index"`

	VideoURL      string `json:"video_url"`
	VideoPublicID string `json:"video_public_id"`
	VideoDuration int    `gorm:"not null;default:0" json:"video_duration"` // seconds
	VideoFormat   string `json:"video_format"`
	VideoSize     int64  `json:"video_size"` // bytes

	Resources datatypes.JSON `json:"resources"` // [{name, url}]

	IsDeleted bool `gorm:"default:false" json:"-"`
}

// ApplyDiscount recomputes the derived discount percentage from pricing.
func (co *Course) ApplyDiscount() {
	if co.OriginalPrice > co.Price && co.OriginalPrice > 0 {
		co.Discount = int(((co.OriginalPrice - co.Price) / co.OriginalPrice * 100) + 0.5)
	} else {
		co.Discount = 0
	}
}

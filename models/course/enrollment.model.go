package course

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Enrollment tracks a student's enrollment in a course with progress,
// review and certificate state. One row per (student, course) pair; the
// composite unique index closes the duplicate-enroll race at the storage
// level.
type Enrollment struct {
	gorm.Model
	PublicID string `gorm:"size:36;uniqueIndex" json:"public_id"`
	UserID   uint   `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID uint   `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`

	EnrolledAt       time.Time  `json:"enrolled_at"`
	Progress         int        `gorm:"default:0" json:"progress"` // 0-100
	CurrentLectureID *uint      `gorm:"index" json:"current_lecture_id"`
	LastAccessed     time.Time  `json:"last_accessed"`
	CompletedAt      *time.Time `json:"completed_at"`

	Rating     *int       `gorm:"check:rating >= 1 AND rating <= 5" json:"rating"`
	Review     string     `gorm:"size:500" json:"review"`
	ReviewedAt *time.Time `json:"reviewed_at"`

	CertificateIssued   bool       `gorm:"default:false" json:"certificate_issued"`
	CertificateIssuedAt *time.Time `json:"certificate_issued_at"`

	IsDeleted bool `gorm:"default:false" json:"-"`
}

// LectureCompletion records a single lecture completed by an enrollment.
// The composite unique index gives set semantics: inserting the same
// (enrollment, lecture) pair twice is a no-op under ON CONFLICT DO NOTHING,
// which keeps concurrent writers from producing duplicates or lost updates.
type LectureCompletion struct {
	gorm.Model
	EnrollmentID uint `gorm:"not null;uniqueIndex:idx_completion_enrollment_lecture" json:"enrollment_id"`
	LectureID    uint `gorm:"not null;uniqueIndex:idx_completion_enrollment_lecture" json:"lecture_id"`
}

// ComputeProgress derives the completion percentage from the completed
// lecture count and the course's total lecture count, rounded to the
// nearest integer and clamped to [0, 100]. A course with no lectures
// resolves to 0.
func ComputeProgress(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(completed) / float64(total) * 100))
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p
}

// ApplyProgress sets the enrollment's progress and touches last-accessed.
// The first time progress reaches 100 the completion timestamp and the
// certificate flags are set; they are never reset or re-timestamped.
func (e *Enrollment) ApplyProgress(progress int, now time.Time) {
	e.Progress = progress
	e.LastAccessed = now

	if progress == 100 && e.CompletedAt == nil {
		completed := now
		e.CompletedAt = &completed
		e.CertificateIssued = true
		issued := now
		e.CertificateIssuedAt = &issued
	}
}

// CertificateNumber derives the deterministic certificate id from the
// enrollment's public id: CERT- plus the last 8 characters, upper-cased.
func (e *Enrollment) CertificateNumber() string {
	id := strings.ReplaceAll(e.PublicID, "-", "")
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "CERT-" + strings.ToUpper(id)
}

// IsCompleted reports whether the enrollment has reached full progress.
func (e *Enrollment) IsCompleted() bool {
	return e.Progress == 100
}

// BeforeCreate stamps defaults that SQL column defaults cannot express.
func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.PublicID == "" {
		e.PublicID = uuid.NewString()
	}
	now := time.Now()
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = now
	}
	if e.LastAccessed.IsZero() {
		e.LastAccessed = now
	}
	return nil
}

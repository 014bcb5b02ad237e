package enrollmentValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// EnrollmentID validates the :id route parameter and stores it as uint
func EnrollmentID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := strings.TrimSpace(c.Params("id"))
		if idStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Enrollment ID is required!", nil)
		}

		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Enrollment ID!", nil)
		}

		c.Locals("enrollmentID", uint(id))
		return c.Next()
	}
}

// ProgressUpdate is the progress update request body. Progress itself is
// always recomputed server-side from the completed lecture set; a supplied
// progress value is accepted for compatibility but never trusted.
type ProgressUpdate struct {
	Progress          *int   `json:"progress"`
	CompletedLectures []uint `json:"completedLectures"`
	CurrentLecture    *uint  `json:"currentLecture"`
}

// UpdateProgress validates the progress update body
func UpdateProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ProgressUpdate)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Progress != nil && (*reqData.Progress < 0 || *reqData.Progress > 100) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Progress must be between 0 and 100!", nil)
		}

		for _, id := range reqData.CompletedLectures {
			if id == 0 {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Lecture ids must be positive!", nil)
			}
		}

		c.Locals("validatedProgress", reqData)
		return c.Next()
	}
}

// CompleteLecture validates the complete-lecture body
func CompleteLecture() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			LectureID uint `json:"lectureId"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.LectureID == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Lecture ID is required!", nil)
		}

		c.Locals("validatedLectureID", reqData.LectureID)
		return c.Next()
	}
}

// AddReview validates the review body
func AddReview() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Rating int    `json:"rating"`
			Review string `json:"review"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Rating < 1 || reqData.Rating > 5 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Rating must be between 1 and 5!", nil)
		}

		if len(reqData.Review) > 500 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Review cannot exceed 500 characters!", nil)
		}

		c.Locals("validatedReview", reqData)
		return c.Next()
	}
}

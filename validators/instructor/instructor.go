package instructorValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// CoursePayload is the instructor course create/update request body
type CoursePayload struct {
	Title         string   `json:"title" validate:"required,max=100"`
	Subtitle      string   `json:"subtitle" validate:"required,max=200"`
	Description   string   `json:"description" validate:"required,max=1000"`
	Category      string   `json:"category" validate:"required,oneof=development business design marketing it music"`
	Level         string   `json:"level" validate:"required,oneof=all beginner intermediate advanced"`
	Price         float64  `json:"price" validate:"gte=0,lte=1000"`
	OriginalPrice *float64 `json:"originalPrice" validate:"omitempty,gte=0,lte=1000"`

	ThumbnailURL      string `json:"thumbnailUrl" validate:"required,url"`
	ThumbnailPublicID string `json:"thumbnailPublicId" validate:"required"`

	PromoVideoURL      string `json:"promoVideoUrl" validate:"omitempty,url"`
	PromoVideoPublicID string `json:"promoVideoPublicId"`
	PromoVideoDuration int    `json:"promoVideoDuration" validate:"gte=0"`
	PromoVideoFormat   string `json:"promoVideoFormat"`
	PromoVideoSize     int64  `json:"promoVideoSize" validate:"gte=0"`

	Requirements     []string `json:"requirements"`
	LearningOutcomes []string `json:"learningOutcomes"`
}

// UpdateCoursePayload allows partial updates; present fields are validated
type UpdateCoursePayload struct {
	Title         *string  `json:"title" validate:"omitempty,max=100"`
	Subtitle      *string  `json:"subtitle" validate:"omitempty,max=200"`
	Description   *string  `json:"description" validate:"omitempty,max=1000"`
	Category      *string  `json:"category" validate:"omitempty,oneof=development business design marketing it music"`
	Level         *string  `json:"level" validate:"omitempty,oneof=all beginner intermediate advanced"`
	Price         *float64 `json:"price" validate:"omitempty,gte=0,lte=1000"`
	OriginalPrice *float64 `json:"originalPrice" validate:"omitempty,gte=0,lte=1000"`

	ThumbnailURL      *string `json:"thumbnailUrl" validate:"omitempty,url"`
	ThumbnailPublicID *string `json:"thumbnailPublicId"`

	PromoVideoURL      *string `json:"promoVideoUrl" validate:"omitempty,url"`
	PromoVideoPublicID *string `json:"promoVideoPublicId"`
	PromoVideoDuration *int    `json:"promoVideoDuration" validate:"omitempty,gte=0"`
	PromoVideoFormat   *string `json:"promoVideoFormat"`
	PromoVideoSize     *int64  `json:"promoVideoSize" validate:"omitempty,gte=0"`

	Requirements     []string `json:"requirements"`
	LearningOutcomes []string `json:"learningOutcomes"`
}

// SectionPayload is the section create/update request body
type SectionPayload struct {
	Title      string `json:"title" validate:"required,max=200"`
	OrderIndex int    `json:"orderIndex" validate:"gte=0"`
}

// LecturePayload is the lecture create/update request body
type LecturePayload struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	OrderIndex  int    `json:"orderIndex" validate:"gte=0"`

	VideoURL      string `json:"videoUrl" validate:"required,url"`
	VideoPublicID string `json:"videoPublicId" validate:"required"`
	VideoDuration int    `json:"videoDuration" validate:"required,gte=1"`
	VideoFormat   string `json:"videoFormat"`
	VideoSize     int64  `json:"videoSize" validate:"gte=0"`

	Resources []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"resources"`
}

func validationErrors(err error) map[string]string {
	errors := make(map[string]string)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			errors[strings.ToLower(fe.Field())] = "Failed on '" + fe.Tag() + "' validation!"
		}
	} else {
		errors["body"] = err.Error()
	}
	return errors
}

// CreateCourse validates the course creation body
func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CoursePayload)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// UpdateCourse validates the course update body
func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateCoursePayload)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedCourseUpdate", reqData)
		return c.Next()
	}
}

// CreateSection validates the section body
func CreateSection() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SectionPayload)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedSection", reqData)
		return c.Next()
	}
}

// CreateLecture validates the lecture body
func CreateLecture() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LecturePayload)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedLecture", reqData)
		return c.Next()
	}
}

// IDParam validates a positive integer route parameter and stores it under key
func IDParam(param, key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := strings.TrimSpace(c.Params(param))
		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+param+"!", nil)
		}

		c.Locals(key, uint(id))
		return c.Next()
	}
}

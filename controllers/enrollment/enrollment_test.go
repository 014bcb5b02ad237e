package enrollmentController

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	enrollmentValidator "lms/validators/enrollment"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	config.LoadConfig()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	app := fiber.New()

	enrollmentGroup := app.Group("/enrollments", middleware.JWTMiddleware)
	enrollmentGroup.Get("/", GetEnrollments)
	enrollmentGroup.Get("/:id", enrollmentValidator.EnrollmentID(), GetEnrollment)
	enrollmentGroup.Put("/:id/progress",
		enrollmentValidator.EnrollmentID(),
		enrollmentValidator.UpdateProgress(),
		middleware.RequireStudent(),
		UpdateProgress)
	enrollmentGroup.Post("/:id/complete-lecture",
		enrollmentValidator.EnrollmentID(),
		enrollmentValidator.CompleteLecture(),
		middleware.RequireStudent(),
		MarkLectureCompleted)
	enrollmentGroup.Post("/:id/review",
		enrollmentValidator.EnrollmentID(),
		enrollmentValidator.AddReview(),
		middleware.RequireStudent(),
		AddReview)
	enrollmentGroup.Get("/:id/certificate",
		enrollmentValidator.EnrollmentID(),
		middleware.RequireStudent(),
		GetCertificate)

	return app
}

type fixture struct {
	student    models.User
	instructor models.User
	course     courseModels.Course
	lectures   []courseModels.Lecture
	enrollment courseModels.Enrollment
	token      string
}

// seedCourse creates a published course with the given number of lectures
// and an enrollment for a fresh student.
func seedCourse(t *testing.T, lectureCount int) fixture {
	t.Helper()
	db := database.Database.Db

	instructor := models.User{Name: "Ida Teach", Email: "ida@example.com", Role: models.RoleInstructor}
	require.NoError(t, db.Create(&instructor).Error)

	student := models.User{Name: "Sam Learn", Email: "sam@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&student).Error)

	course := courseModels.Course{
		Title:        "Test Course",
		InstructorID: instructor.ID,
		Status:       courseModels.StatusPublished,
	}
	require.NoError(t, db.Create(&course).Error)

	section := courseModels.Section{CourseID: course.ID, Title: "Part 1"}
	require.NoError(t, db.Create(&section).Error)

	lectures := make([]courseModels.Lecture, lectureCount)
	for i := 0; i < lectureCount; i++ {
		lectures[i] = courseModels.Lecture{
			SectionID:     section.ID,
			CourseID:      course.ID,
			Title:         fmt.Sprintf("Lecture %d", i+1),
			OrderIndex:    i,
			VideoDuration: 60,
		}
		require.NoError(t, db.Create(&lectures[i]).Error)
	}

	enrollment := courseModels.Enrollment{UserID: student.ID, CourseID: course.ID}
	require.NoError(t, db.Create(&enrollment).Error)

	token, err := middleware.GenerateJWT(student.ID, student.Name, student.Role, student.Email)
	require.NoError(t, err)

	return fixture{
		student:    student,
		instructor: instructor,
		course:     course,
		lectures:   lectures,
		enrollment: enrollment,
		token:      token,
	}
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func reloadEnrollment(t *testing.T, id uint) courseModels.Enrollment {
	t.Helper()
	var e courseModels.Enrollment
	require.NoError(t, database.Database.Db.First(&e, id).Error)
	return e
}

func TestCompleteLecturesToCertificate(t *testing.T) {
	app := setupTestApp(t)
	fx := seedCourse(t, 4)

	base := fmt.Sprintf("/enrollments/%d", fx.enrollment.ID)

	// Certificate is gated until the course is complete
	resp, env := doRequest(t, app, "GET", base+"/certificate", fx.token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)

	// Complete two of four lectures
	for i := 0; i < 2; i++ {
		resp, _ = doRequest(t, app, "POST", base+"/complete-lecture", fx.token,
			fiber.Map{"lectureId": fx.lectures[i].ID})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	e := reloadEnrollment(t, fx.enrollment.ID)
	assert.Equal(t, 50, e.Progress)
	assert.Nil(t, e.CompletedAt)
	assert.False(t, e.CertificateIssued)

	// Re-completing an already completed lecture changes nothing
	resp, _ = doRequest(t, app, "POST", base+"/complete-lecture", fx.token,
		fiber.Map{"lectureId": fx.lectures[1].ID})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	e = reloadEnrollment(t, fx.enrollment.ID)
	assert.Equal(t, 50, e.Progress)

	// Complete the rest
	for i := 2; i < 4; i++ {
		resp, _ = doRequest(t, app, "POST", base+"/complete-lecture", fx.token,
			fiber.Map{"lectureId": fx.lectures[i].ID})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	e = reloadEnrollment(t, fx.enrollment.ID)
	assert.Equal(t, 100, e.Progress)
	require.NotNil(t, e.CompletedAt)
	assert.True(t, e.CertificateIssued)
	require.NotNil(t, e.CertificateIssuedAt)

	firstIssued := *e.CertificateIssuedAt

	// Completing again must not re-issue or re-timestamp
	resp, _ = doRequest(t, app, "POST", base+"/complete-lecture", fx.token,
		fiber.Map{"lectureId": fx.lectures[0].ID})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	e = reloadEnrollment(t, fx.enrollment.ID)
	assert.Equal(t, 100, e.Progress)
	assert.True(t, firstIssued.Equal(*e.CertificateIssuedAt))

	// Certificate descriptor is now available and deterministic
	resp, env = doRequest(t, app, "GET", base+"/certificate", fx.token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var data struct {
		Certificate struct {
			CertificateID  string `json:"certificateId"`
			StudentName    string `json:"studentName"`
			CourseTitle    string `json:"courseTitle"`
			InstructorName string `json:"instructorName"`
		} `json:"certificate"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, e.CertificateNumber(), data.Certificate.CertificateID)
	assert.Equal(t, "Sam Learn", data.Certificate.StudentName)
	assert.Equal(t, "Test Course", data.Certificate.CourseTitle)
	assert.Equal(t, "Ida Teach", data.Certificate.InstructorName)

	// The payload is the certificate descriptor alone; no links to
	// endpoints that do not exist
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &raw))
	assert.Equal(t, []string{"certificate"}, mapKeys(raw))
}

func mapKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestUpdateProgressIgnoresCallerProgress(t *testing.T) {
	app := setupTestApp(t)
	fx := seedCourse(t, 4)

	base := fmt.Sprintf("/enrollments/%d", fx.enrollment.ID)

	lectureIDs := make([]uint, len(fx.lectures))
	for i, l := range fx.lectures {
		lectureIDs[i] = l.ID
	}

	resp, _ := doRequest(t, app, "PUT", base+"/progress", fx.token, fiber.Map{
		"progress":          10,
		"completedLectures": lectureIDs,
		"currentLecture":    lectureIDs[3],
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	e := reloadEnrollment(t, fx.enrollment.ID)
	assert.Equal(t, 100, e.Progress, "progress is derived from completions, not the request")
	require.NotNil(t, e.CurrentLectureID)
	assert.Equal(t, lectureIDs[3], *e.CurrentLectureID)
	assert.True(t, e.CertificateIssued)
}

func TestUpdateProgressRejectsForeignLecture(t *testing.T) {
	app := setupTestApp(t)
	fx := seedCourse(t, 2)

	otherCourse := courseModels.Course{Title: "Other", InstructorID: fx.instructor.ID}
	require.NoError(t, database.Database.Db.Create(&otherCourse).Error)
	otherSection := courseModels.Section{CourseID: otherCourse.ID, Title: "S"}
	require.NoError(t, database.Database.Db.Create(&otherSection).Error)
	foreign := courseModels.Lecture{SectionID: otherSection.ID, CourseID: otherCourse.ID, Title: "Foreign", VideoDuration: 60}
	require.NoError(t, database.Database.Db.Create(&foreign).Error)

	base := fmt.Sprintf("/enrollments/%d", fx.enrollment.ID)

	resp, _ := doRequest(t, app, "PUT", base+"/progress", fx.token, fiber.Map{
		"completedLectures": []uint{foreign.ID},
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	e := reloadEnrollment(t, fx.enrollment.ID)
	assert.Equal(t, 0, e.Progress)
}

func TestCompleteLectureOnEmptyCourse(t *testing.T) {
	app := setupTestApp(t)
	fx := seedCourse(t, 0)

	base := fmt.Sprintf("/enrollments/%d", fx.enrollment.ID)

	resp, env := doRequest(t, app, "POST", base+"/complete-lecture", fx.token,
		fiber.Map{"lectureId": 12345})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)

	e := reloadEnrollment(t, fx.enrollment.ID)
	assert.Equal(t, 0, e.Progress)
	assert.Nil(t, e.CompletedAt)
}

func TestAddReviewOnlyOnce(t *testing.T) {
	app := setupTestApp(t)
	fx := seedCourse(t, 1)

	base := fmt.Sprintf("/enrollments/%d", fx.enrollment.ID)

	resp, _ := doRequest(t, app, "POST", base+"/review", fx.token,
		fiber.Map{"rating": 5, "review": "Loved it"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	e := reloadEnrollment(t, fx.enrollment.ID)
	require.NotNil(t, e.Rating)
	assert.Equal(t, 5, *e.Rating)
	assert.Equal(t, "Loved it", e.Review)
	require.NotNil(t, e.ReviewedAt)

	// Second attempt conflicts, first review stands
	resp, env := doRequest(t, app, "POST", base+"/review", fx.token,
		fiber.Map{"rating": 1, "review": "Changed my mind"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.False(t, env.Success)

	e = reloadEnrollment(t, fx.enrollment.ID)
	assert.Equal(t, 5, *e.Rating)
	assert.Equal(t, "Loved it", e.Review)

	// The review lands in the course aggregates
	var course courseModels.Course
	require.NoError(t, database.Database.Db.First(&course, fx.course.ID).Error)
	assert.Equal(t, 1, course.ReviewCount)
	assert.InDelta(t, 5.0, course.AverageRating, 0.001)
}

func TestAddReviewRejectsBadRating(t *testing.T) {
	app := setupTestApp(t)
	fx := seedCourse(t, 1)

	base := fmt.Sprintf("/enrollments/%d", fx.enrollment.ID)

	for _, rating := range []int{0, 6, -1} {
		resp, _ := doRequest(t, app, "POST", base+"/review", fx.token,
			fiber.Map{"rating": rating})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	}

	e := reloadEnrollment(t, fx.enrollment.ID)
	assert.Nil(t, e.Rating)
}

func TestEnrollmentOwnership(t *testing.T) {
	app := setupTestApp(t)
	fx := seedCourse(t, 1)

	intruder := models.User{Name: "Eve", Email: "eve@example.com", Role: models.RoleStudent}
	require.NoError(t, database.Database.Db.Create(&intruder).Error)

	intruderToken, err := middleware.GenerateJWT(intruder.ID, intruder.Name, intruder.Role, intruder.Email)
	require.NoError(t, err)

	base := fmt.Sprintf("/enrollments/%d", fx.enrollment.ID)

	resp, _ := doRequest(t, app, "POST", base+"/complete-lecture", intruderToken,
		fiber.Map{"lectureId": fx.lectures[0].ID})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = doRequest(t, app, "GET", base+"/certificate", intruderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// The course instructor may read, but not through another student's token
	instructorToken, err := middleware.GenerateJWT(fx.instructor.ID, fx.instructor.Name, fx.instructor.Role, fx.instructor.Email)
	require.NoError(t, err)

	resp, _ = doRequest(t, app, "GET", base, instructorToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, "GET", base, intruderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Missing enrollment id yields not found
	resp, _ = doRequest(t, app, "GET", "/enrollments/99999", fx.token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// No token at all
	resp, _ = doRequest(t, app, "GET", base, "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

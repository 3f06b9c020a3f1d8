package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/academy-dev/academy/internal/curriculum"
)

// CourseDetail is a fetched course plus the caller's enrollment, nil when
// the caller is not enrolled.
type CourseDetail struct {
	Course   curriculum.Course        `json:"course"`
	Enrolled *curriculum.UserProgress `json:"enrolled,omitempty"`
}

// ListCourses returns up to limit published courses. A limit of zero lets
// the backend choose.
func (c *Client) ListCourses(ctx context.Context, limit int) ([]curriculum.Course, error) {
	var out []curriculum.Course
	err := c.do(ctx, http.MethodGet, "/api/course", func(r *resty.Request) {
		if limit > 0 {
			r.SetQueryParam("limit", strconv.Itoa(limit))
		}
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetCourse fetches a course with its curriculum.
func (c *Client) GetCourse(ctx context.Context, id int64) (CourseDetail, error) {
	var out CourseDetail
	if err := c.do(ctx, http.MethodGet, "/api/course/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return CourseDetail{}, err
	}
	return out, nil
}

// GetCourseJSON fetches a course as the backend sent it, for exports that
// must keep fields the client does not model.
func (c *Client) GetCourseJSON(ctx context.Context, id int64) (json.RawMessage, error) {
	var out struct {
		Course json.RawMessage `json:"course"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/course/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Course) == 0 || string(out.Course) == "null" {
		return nil, fmt.Errorf("course %d: response has no course", id)
	}
	return out.Course, nil
}

// Upload is a file attached to a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CourseUpload is a whole-course save. ID zero creates a new course.
type CourseUpload struct {
	ID          int64
	Title       string
	Description string
	Difficulty  curriculum.Difficulty
	CategoryID  int64
	Modules     []curriculum.Module
	Cover       *Upload
}

// SaveCourse creates or replaces a course together with its full curriculum
// tree. The tree travels as one JSON-encoded multipart field.
func (c *Client) SaveCourse(ctx context.Context, in CourseUpload) error {
	modules := in.Modules
	if modules == nil {
		modules = []curriculum.Module{}
	}
	tree, err := json.Marshal(modules)
	if err != nil {
		return fmt.Errorf("encode modules: %w", err)
	}

	method, path := http.MethodPost, "/api/course"
	if in.ID != 0 {
		method, path = http.MethodPatch, "/api/course/"+strconv.FormatInt(in.ID, 10)
	}
	return c.do(ctx, method, path, func(r *resty.Request) {
		r.SetMultipartFormData(map[string]string{
			"title":       in.Title,
			"description": in.Description,
			"difficulty":  string(in.Difficulty),
			"categoryId":  strconv.FormatInt(in.CategoryID, 10),
			"modules":     string(tree),
		})
		attach(r, "cover", in.Cover)
	}, nil)
}

// DeleteCourse removes a course.
func (c *Client) DeleteCourse(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/course/"+strconv.FormatInt(id, 10), nil, nil)
}

// Enroll enrolls the signed-in user and returns the lesson to start from.
// A zero lesson id means the backend did not create an enrollment.
func (c *Client) Enroll(ctx context.Context, courseID int64) (int64, error) {
	var out struct {
		Enrollment *struct {
			LessonID int64 `json:"lessonId"`
		} `json:"enrollment"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/enroll/"+strconv.FormatInt(courseID, 10), nil, &out); err != nil {
		return 0, err
	}
	if out.Enrollment == nil {
		return 0, nil
	}
	return out.Enrollment.LessonID, nil
}

// Progress lists the signed-in user's enrollments.
func (c *Client) Progress(ctx context.Context) ([]curriculum.UserProgress, error) {
	var out struct {
		Progresses []curriculum.UserProgress `json:"progresses"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/progress", nil, &out); err != nil {
		return nil, err
	}
	return out.Progresses, nil
}

// GetLesson fetches a lesson with its tasks.
func (c *Client) GetLesson(ctx context.Context, id int64) (curriculum.Lesson, error) {
	var out struct {
		Lesson *curriculum.Lesson `json:"lesson"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/lesson/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return curriculum.Lesson{}, err
	}
	if out.Lesson == nil {
		return curriculum.Lesson{}, fmt.Errorf("lesson %d: response has no lesson", id)
	}
	return *out.Lesson, nil
}

// Submission is an answer to a task. Exactly one field is set.
type Submission struct {
	SelectedOptionID *int64  `json:"selectedOptionId,omitempty"`
	Code             *string `json:"code,omitempty"`
}

// CheckResult is the backend's grading verdict.
type CheckResult struct {
	Correct      bool   `json:"correct"`
	Console      string `json:"console"`
	Error        string `json:"error"`
	NextLessonID int64  `json:"nextLessonId"`
}

// Sentinel values of CheckResult.NextLessonID.
const (
	NoNextLesson   int64 = -1
	CourseFinished int64 = -2
)

// CheckTask submits an answer for grading. The verdict is decoded even from
// a non-2xx response, in which case the *APIError is returned alongside it.
func (c *Client) CheckTask(ctx context.Context, taskID int64, sub Submission) (CheckResult, error) {
	path := "/api/task/" + strconv.FormatInt(taskID, 10) + "/check"
	resp, err := c.send(ctx, http.MethodPost, path, jsonBody(sub))
	if err != nil {
		return CheckResult{}, err
	}
	var out CheckResult
	decodeErr := decodeBody(http.MethodPost, path, resp.Body(), &out)
	if !resp.IsSuccess() {
		return out, decodeError(resp.StatusCode(), resp.Body())
	}
	if decodeErr != nil {
		return CheckResult{}, decodeErr
	}
	return out, nil
}

func attach(r *resty.Request, field string, up *Upload) {
	if up == nil || len(up.Data) == 0 {
		return
	}
	ct := up.ContentType
	if ct == "" {
		ct = http.DetectContentType(up.Data)
	}
	r.SetMultipartField(field, up.Filename, ct, bytes.NewReader(up.Data))
}

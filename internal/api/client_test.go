package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/academy-dev/academy/internal/api"
	"github.com/academy-dev/academy/internal/curriculum"
)

func newClient(t *testing.T, h http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := api.New(srv.URL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := api.New("ftp://example.com"); err == nil {
		t.Error("New(ftp://) should fail")
	}
}

func TestLoginStoresCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var cred api.Credentials
		if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if cred.Email != "ann@example.com" || cred.Password != "secret" {
			t.Errorf("credentials = %+v", cred)
		}
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "abc", Path: "/", HttpOnly: true})
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user":{"id":7,"fullName":"Ann","email":"ann@example.com","role":"admin","lives_reset_at":5}}`))
	})
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("token")
		if err != nil || ck.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"user":{"id":7,"fullName":"Ann"}}`))
	})
	c := newClient(t, mux)

	u, err := c.Login(t.Context(), api.Credentials{Email: "ann@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if u.ID != 7 || u.Role != curriculum.RoleAdmin || u.LivesResetAt != 5 {
		t.Errorf("user = %+v", u)
	}
	if len(c.Cookies()) != 1 {
		t.Fatalf("Cookies() = %v, want 1 cookie", c.Cookies())
	}

	me, err := c.Me(t.Context())
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if me.FullName != "Ann" {
		t.Errorf("Me().FullName = %q", me.FullName)
	}

	c.ClearCookies()
	if _, err := c.Me(t.Context()); err == nil {
		t.Error("Me() after ClearCookies should fail")
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
		notFound bool
	}{
		{name: "code and message", status: 401, body: `{"code":"USER_NOT_FOUND","message":"No such user"}`, wantCode: "USER_NOT_FOUND", wantMsg: "No such user"},
		{name: "message list", status: 400, body: `{"code":"INVALID_FILE","message":["too big","bad type"]}`, wantCode: "INVALID_FILE", wantMsg: "too big, bad type"},
		{name: "not found", status: 404, body: `{"message":"Course not found"}`, wantMsg: "Course not found", notFound: true},
		{name: "empty body", status: 500, body: ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			_, err := c.GetCourse(t.Context(), 1)
			apiErr, ok := api.AsAPIError(err)
			if !ok {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Code != tt.wantCode || apiErr.Message != tt.wantMsg {
				t.Errorf("APIError = %+v", apiErr)
			}
			if got := errors.Is(err, api.ErrNotFound); got != tt.notFound {
				t.Errorf("errors.Is(ErrNotFound) = %v, want %v", got, tt.notFound)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := api.New(url)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = c.Me(t.Context())
	if !errors.Is(err, api.ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
}

func TestListCoursesLimit(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/course" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "9" {
			t.Errorf("limit = %q, want 9", got)
		}
		w.Write([]byte(`[{"id":1,"title":"Go","difficulty":"beginner","modules":[]},{"id":2,"title":"Rust","modules":[]}]`))
	}))

	courses, err := c.ListCourses(t.Context(), 9)
	if err != nil {
		t.Fatalf("ListCourses() error = %v", err)
	}
	if len(courses) != 2 || courses[0].ID != curriculum.Saved(1) || courses[1].Title != "Rust" {
		t.Errorf("courses = %+v", courses)
	}
}

func TestEnroll(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/enroll/3" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"enrollment":{"lessonId":31}}`))
	}))
	lessonID, err := c.Enroll(t.Context(), 3)
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if lessonID != 31 {
		t.Errorf("lessonID = %d, want 31", lessonID)
	}
}

func TestGetCourse(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		enrolled bool
	}{
		{
			name:     "enrolled",
			body:     `{"course":{"id":5,"title":"Go","modules":[]},"enrolled":{"id":1,"userId":7,"courseId":5,"lessonId":11,"progressPercent":40}}`,
			enrolled: true,
		},
		{name: "not enrolled", body: `{"course":{"id":5,"title":"Go","modules":[]}}`},
		{name: "null enrollment", body: `{"course":{"id":5,"title":"Go","modules":[]},"enrolled":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/course/5" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.Write([]byte(tt.body))
			}))
			detail, err := c.GetCourse(t.Context(), 5)
			if err != nil {
				t.Fatalf("GetCourse() error = %v", err)
			}
			if detail.Course.Title != "Go" || detail.Course.ID != curriculum.Saved(5) {
				t.Errorf("course = %+v", detail.Course)
			}
			if got := detail.Enrolled != nil; got != tt.enrolled {
				t.Fatalf("enrolled = %v, want %v", got, tt.enrolled)
			}
			if tt.enrolled && (detail.Enrolled.LessonID != 11 || detail.Enrolled.ProgressPercent != 40) {
				t.Errorf("enrollment = %+v", detail.Enrolled)
			}
		})
	}
}

func TestGetCourseJSONKeepsUnmodelledFields(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"course":{"id":5,"title":"Go","isVisible":false,"totalLessons":3,"category":{"id":2,"title":"Lang"},"modules":[]},"enrolled":null}`))
	}))
	raw, err := c.GetCourseJSON(t.Context(), 5)
	if err != nil {
		t.Fatalf("GetCourseJSON() error = %v", err)
	}
	for _, key := range []string{`"isVisible":false`, `"totalLessons":3`, `"category":{`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("raw course lost %s: %s", key, raw)
		}
	}

	empty := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	if _, err := empty.GetCourseJSON(t.Context(), 5); err == nil {
		t.Error("GetCourseJSON() without a course should fail")
	}
}

func TestSaveCourseMultipart(t *testing.T) {
	tests := []struct {
		name       string
		id         int64
		wantMethod string
		wantPath   string
	}{
		{name: "create", id: 0, wantMethod: http.MethodPost, wantPath: "/api/course"},
		{name: "update", id: 12, wantMethod: http.MethodPatch, wantPath: "/api/course/12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.wantMethod || r.URL.Path != tt.wantPath {
					t.Errorf("request = %s %s", r.Method, r.URL.Path)
				}
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					t.Fatalf("ParseMultipartForm() error = %v", err)
				}
				if got := r.FormValue("title"); got != "Go" {
					t.Errorf("title = %q", got)
				}
				if got := r.FormValue("categoryId"); got != "4" {
					t.Errorf("categoryId = %q", got)
				}
				var modules []curriculum.Module
				if err := json.Unmarshal([]byte(r.FormValue("modules")), &modules); err != nil {
					t.Fatalf("modules field: %v", err)
				}
				if len(modules) != 1 || modules[0].Title != "Intro" {
					t.Errorf("modules = %+v", modules)
				}
				f, hdr, err := r.FormFile("cover")
				if err != nil {
					t.Fatalf("cover: %v", err)
				}
				defer f.Close()
				if hdr.Filename != "cover.png" {
					t.Errorf("cover filename = %q", hdr.Filename)
				}
				w.WriteHeader(http.StatusCreated)
			}))

			err := c.SaveCourse(t.Context(), api.CourseUpload{
				ID:         tt.id,
				Title:      "Go",
				Difficulty: curriculum.Beginner,
				CategoryID: 4,
				Modules:    []curriculum.Module{{ID: curriculum.NewDraftID(), Title: "Intro"}},
				Cover:      &api.Upload{Filename: "cover.png", ContentType: "image/png", Data: []byte("\x89PNG")},
			})
			if err != nil {
				t.Fatalf("SaveCourse() error = %v", err)
			}
		})
	}
}

func TestCheckTask(t *testing.T) {
	t.Run("quiz body", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if strings.TrimSpace(string(body)) != `{"selectedOptionId":5}` {
				t.Errorf("body = %s", body)
			}
			w.Write([]byte(`{"correct":true,"nextLessonId":-2}`))
		}))
		opt := int64(5)
		res, err := c.CheckTask(t.Context(), 9, api.Submission{SelectedOptionID: &opt})
		if err != nil {
			t.Fatalf("CheckTask() error = %v", err)
		}
		if !res.Correct || res.NextLessonID != api.CourseFinished {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("verdict on error status", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"correct":false,"console":"1\n","error":"SyntaxError"}`))
		}))
		code := "print(1"
		res, err := c.CheckTask(t.Context(), 9, api.Submission{Code: &code})
		if _, ok := api.AsAPIError(err); !ok {
			t.Fatalf("error = %v, want *APIError", err)
		}
		if res.Console != "1\n" || res.Error != "SyntaxError" {
			t.Errorf("result = %+v", res)
		}
	})
}

func TestGetArticle(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/articles/1":
			w.Write([]byte(`{"code":"SUCCESS","article":{"id":1,"title":"Hello"}}`))
		default:
			w.Write([]byte(`{"code":"NOT_FOUND","message":"Article missing"}`))
		}
	}))

	a, err := c.GetArticle(t.Context(), 1)
	if err != nil {
		t.Fatalf("GetArticle(1) error = %v", err)
	}
	if !strings.HasSuffix(a.Photo, "/assets/articles/1.png") {
		t.Errorf("Photo = %q", a.Photo)
	}
	if _, err := c.GetArticle(t.Context(), 2); err == nil {
		t.Error("GetArticle(2) should fail when code is not SUCCESS")
	}
}

func TestUsersAndCategories(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"fullName":"A","role":"user"},{"id":2,"fullName":"B","role":"tester"}]`))
	})
	mux.HandleFunc("PUT /api/users/2", func(w http.ResponseWriter, r *http.Request) {
		var u curriculum.User
		json.NewDecoder(r.Body).Decode(&u)
		if u.Role != curriculum.RoleAdmin {
			t.Errorf("role = %q", u.Role)
		}
	})
	mux.HandleFunc("GET /api/courses/category/list", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"categories":[{"id":3,"title":"Web"}]}`))
	})
	mux.HandleFunc("POST /api/courses/category", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":4,"title":"Data","description":"Pipelines"}`))
	})
	c := newClient(t, mux)

	users, err := c.Users(t.Context())
	if err != nil || len(users) != 2 {
		t.Fatalf("Users() = %v, %v", users, err)
	}
	users[1].Role = curriculum.RoleAdmin
	if err := c.UpdateUser(t.Context(), users[1]); err != nil {
		t.Errorf("UpdateUser() error = %v", err)
	}

	cats, err := c.Categories(t.Context())
	if err != nil || len(cats) != 1 || cats[0].Title != "Web" {
		t.Errorf("Categories() = %v, %v", cats, err)
	}
	cat, err := c.CreateCategory(t.Context(), "Data", "Pipelines")
	if err != nil || cat.ID != 4 {
		t.Errorf("CreateCategory() = %+v, %v", cat, err)
	}
}

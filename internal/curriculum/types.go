// Package curriculum models courses and their Module → Lesson → Task → Option
// tree as held by the client between a fetch and a whole-tree save.
package curriculum

import (
	"fmt"
	"time"
)

// Difficulty is the course difficulty level.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// Difficulties lists the accepted levels in their canonical order.
var Difficulties = []Difficulty{Beginner, Intermediate, Advanced}

// ParseDifficulty accepts exactly one of the three known levels.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// TaskType is the gradable kind of a task.
type TaskType string

const (
	TaskQuiz TaskType = "quiz"
	TaskCode TaskType = "code"
	TaskText TaskType = "text"
)

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	return t == TaskQuiz || t == TaskCode || t == TaskText
}

// Role is the platform role of a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RolePro    Role = "pro"
	RoleTester Role = "tester"
	RoleGuest  Role = "guest"
)

// Course is a course with its ordered curriculum.
type Course struct {
	ID          ID         `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Lead        string     `json:"lead,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	CategoryID  int64      `json:"categoryId,omitempty"`
	CreatedBy   int64      `json:"createdBy,omitempty"`
	Rating      *float64   `json:"rating,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Modules     []Module   `json:"modules"`
	IsVisible   bool       `json:"isVisible,omitempty"`
}

// Tree returns the course curriculum as an editable tree.
func (c Course) Tree() Tree {
	return Tree{Modules: cloneModules(c.Modules)}
}

// WithTree returns a copy of the course carrying the given curriculum.
func (c Course) WithTree(t Tree) Course {
	c.Modules = cloneModules(t.Modules)
	return c
}

// Module groups lessons within a course.
type Module struct {
	ID          ID       `json:"id"`
	CourseID    int64    `json:"courseId,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Order       int      `json:"order"`
	Lessons     []Lesson `json:"lessons"`
}

// ModuleRef is the module summary embedded in a fetched lesson.
type ModuleRef struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
}

// Lesson is an ordered sequence of tasks.
type Lesson struct {
	ID              ID         `json:"id"`
	ModuleID        int64      `json:"moduleId,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DifficultyLevel Difficulty `json:"difficultyLevel,omitempty"`
	Order           int        `json:"order"`
	Tasks           []Task     `json:"tasks"`
	Module          *ModuleRef `json:"module,omitempty"`
}

// Task is a gradable unit within a lesson.
type Task struct {
	ID            ID       `json:"id"`
	LessonID      int64    `json:"lessonId,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Type          TaskType `json:"type"`
	Order         int      `json:"order"`
	Language      int      `json:"language,omitempty"`
	CorrectOutput string   `json:"correctOutput,omitempty"`
	StartCode     string   `json:"startCode,omitempty"`
	Options       []Option `json:"options,omitempty"`
}

// CorrectOption returns the index of the first option flagged correct, or -1.
func (t Task) CorrectOption() int {
	for i, o := range t.Options {
		if o.IsCorrect {
			return i
		}
	}
	return -1
}

// Option is one choice of a quiz task.
type Option struct {
	ID        ID     `json:"id"`
	TaskID    int64  `json:"taskId,omitempty"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
	Order     int    `json:"order"`
}

// User is a platform account.
type User struct {
	ID           int64  `json:"id"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Lives        int    `json:"lives"`
	LivesResetAt int64  `json:"lives_reset_at"`
	Role         Role   `json:"role"`
}

// UserProgress is a per-user, per-course enrollment record.
type UserProgress struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"userId"`
	CourseID        int64      `json:"courseId"`
	LessonID        int64      `json:"lessonId"`
	ProgressPercent float64    `json:"progressPercent"`
	IsCompleted     bool       `json:"isCompleted"`
	LastViewedAt    *time.Time `json:"lastViewedAt,omitempty"`
	Course          *Course    `json:"course,omitempty"`
}

// Category is a course category.
type Category struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Article is a blog article.
type Article struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Content  string `json:"content"`
	Photo    string `json:"photo,omitempty"`
}

// Language is a code-task language known to the grading sandbox.
type Language struct {
	Name string
	ID   int
}

// Languages is the fixed catalogue of sandbox languages.
var Languages = []Language{
	{Name: "JavaScript", ID: 63},
	{Name: "TypeScript", ID: 74},
	{Name: "C#", ID: 51},
	{Name: "C++", ID: 54},
	{Name: "Python", ID: 70},
	{Name: "Java", ID: 62},
}

// LanguageID maps a language name to its sandbox id; unknown names map to 0.
func LanguageID(name string) int {
	for _, l := range Languages {
		if l.Name == name {
			return l.ID
		}
	}
	return 0
}

// LanguageName maps a sandbox id back to its name.
func LanguageName(id int) (string, bool) {
	for _, l := range Languages {
		if l.ID == id {
			return l.Name, true
		}
	}
	return "", false
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/academy-dev/academy/internal/curriculum"
)

// Categories lists course categories.
func (c *Client) Categories(ctx context.Context) ([]curriculum.Category, error) {
	var out struct {
		Categories []curriculum.Category `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/courses/category/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// CreateCategory adds a category and returns it with its id.
func (c *Client) CreateCategory(ctx context.Context, title, description string) (curriculum.Category, error) {
	body := map[string]string{"title": title, "description": description}
	var out curriculum.Category
	if err := c.do(ctx, http.MethodPost, "/api/courses/category", jsonBody(body), &out); err != nil {
		return curriculum.Category{}, err
	}
	if out.ID == 0 {
		return curriculum.Category{}, fmt.Errorf("create category: response has no id")
	}
	return out, nil
}

// Articles lists blog articles.
func (c *Client) Articles(ctx context.Context) ([]curriculum.Article, error) {
	var out struct {
		Articles []curriculum.Article `json:"articles"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/articles", nil, &out); err != nil {
		return nil, err
	}
	return out.Articles, nil
}

// GetArticle fetches one article. The backend flags success in the body.
func (c *Client) GetArticle(ctx context.Context, id int64) (curriculum.Article, error) {
	var out struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Article *curriculum.Article `json:"article"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/articles/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return curriculum.Article{}, err
	}
	if out.Code != "SUCCESS" || out.Article == nil {
		return curriculum.Article{}, &APIError{Status: http.StatusOK, Code: out.Code, Message: out.Message}
	}
	a := *out.Article
	if a.Photo == "" {
		a.Photo = c.BaseURL() + "/assets/articles/" + strconv.FormatInt(a.ID, 10) + ".png"
	}
	return a, nil
}

// ArticleUpload is a new article.
type ArticleUpload struct {
	Title    string
	Subtitle string
	Content  string
	Cover    *Upload
}

// CreateArticle publishes an article.
func (c *Client) CreateArticle(ctx context.Context, in ArticleUpload) error {
	return c.do(ctx, http.MethodPost, "/api/articles", func(r *resty.Request) {
		r.SetMultipartFormData(map[string]string{
			"title":    in.Title,
			"subtitle": in.Subtitle,
			"content":  in.Content,
		})
		attach(r, "cover", in.Cover)
	}, nil)
}

// DeleteArticle removes an article.
func (c *Client) DeleteArticle(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/articles/"+strconv.FormatInt(id, 10), nil, nil)
}

// Users lists every account.
func (c *Client) Users(ctx context.Context) ([]curriculum.User, error) {
	var out []curriculum.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// User fetches one account.
func (c *Client) User(ctx context.Context, id int64) (curriculum.User, error) {
	var out curriculum.User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return curriculum.User{}, err
	}
	return out, nil
}

// UpdateUser replaces an account with u.
func (c *Client) UpdateUser(ctx context.Context, u curriculum.User) error {
	return c.do(ctx, http.MethodPut, "/api/users/"+strconv.FormatInt(u.ID, 10), jsonBody(u), nil)
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+strconv.FormatInt(id, 10), nil, nil)
}

package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/query"
	"github.com/iliyamo/taskboard/internal/reorder"
)

type authResult struct {
	User         model.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// CategoryList is the GET /api/categories body.
type CategoryList struct {
	Categories []model.CategoryWithCount `json:"categories"`
	AllCount   int                       `json:"allCount"`
}

// NewTask is the POST /api/tasks body.
type NewTask struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	IsCompleted bool    `json:"isCompleted,omitempty"`
}

// Register creates an account and stores its session.
func (c *Client) Register(ctx context.Context, email, password, name string) (model.User, error) {
	body := map[string]string{"email": email, "password": password}
	if name != "" {
		body["name"] = name
	}
	return c.authenticate(ctx, "/api/auth/register", body)
}

// Login signs in and stores the session.
func (c *Client) Login(ctx context.Context, email, password string) (model.User, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (model.User, error) {
	var res authResult
	if err := c.do(ctx, http.MethodPost, path, body, &res); err != nil {
		return model.User{}, err
	}
	err := c.store.Save(Session{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken, User: profileOf(res.User)})
	return res.User, err
}

// Logout revokes the stored refresh token and clears the store. The
// server's answer is ignored; the local session is gone either way.
func (c *Client) Logout(ctx context.Context) error {
	sess, err := c.store.Load()
	if err != nil {
		return err
	}
	if sess.RefreshToken != "" {
		_ = c.do(ctx, http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": sess.RefreshToken}, nil)
	}
	return c.store.Clear()
}

func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &u)
	return u, err
}

func (c *Client) Rename(ctx context.Context, name string) (model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodPatch, "/api/users/me", map[string]string{"name": name}, &u); err != nil {
		return model.User{}, err
	}
	if sess, err := c.store.Load(); err == nil && sess.AccessToken != "" {
		sess.User = profileOf(u)
		_ = c.store.Save(sess)
	}
	return u, nil
}

// ChangePassword swaps the password. Every other session is signed out;
// this one continues with the pair the server returns.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	var res struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	body := map[string]string{"currentPassword": current, "newPassword": next}
	if err := c.do(ctx, http.MethodPut, "/api/users/me/password", body, &res); err != nil {
		return err
	}
	sess, err := c.store.Load()
	if err != nil {
		return err
	}
	sess.AccessToken, sess.RefreshToken = res.AccessToken, res.RefreshToken
	return c.store.Save(sess)
}

func (c *Client) Categories(ctx context.Context) (CategoryList, error) {
	var out CategoryList
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, name, color string) (model.Category, error) {
	body := map[string]string{"name": name}
	if color != "" {
		body["color"] = color
	}
	var out model.Category
	err := c.do(ctx, http.MethodPost, "/api/categories", body, &out)
	return out, err
}

// UpdateCategory changes the non-nil fields.
func (c *Client) UpdateCategory(ctx context.Context, id string, name, color *string) (model.Category, error) {
	body := map[string]string{}
	if name != nil {
		body["name"] = *name
	}
	if color != nil {
		body["color"] = *color
	}
	var out model.Category
	err := c.do(ctx, http.MethodPatch, "/api/categories/"+url.PathEscape(id), body, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil)
}

// Tasks lists the tasks matching f in f's order.
func (c *Client) Tasks(ctx context.Context, f query.Filter) ([]model.Task, error) {
	path := "/api/tasks"
	if q := f.Values().Encode(); q != "" {
		path += "?" + q
	}
	var out struct {
		Tasks []model.Task `json:"tasks"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Tasks, err
}

func (c *Client) Task(ctx context.Context, id string) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, in NewTask) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", in, &out)
	return out, err
}

// UpdateTask sends a partial update. A nil value in fields clears that
// field on the server (description, categoryId, dueDate).
func (c *Client) UpdateTask(ctx context.Context, id string, fields map[string]any) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), fields, &out)
	return out, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

// Reorder writes a batch of manual positions.
func (c *Client) Reorder(ctx context.Context, batch []reorder.Position) error {
	return c.do(ctx, http.MethodPut, "/api/tasks/reorder", map[string]any{"tasks": batch}, nil)
}

func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	var out model.Stats
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, &out)
	return out, err
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api is the HTTP client for the blog backend. It exposes one
// method per backend endpoint over a shared request core: requests are
// made once with no retries, and any non-2xx status surfaces as *Error
// carrying the status code and response body.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kiorffen/blogfront/internal/model"
)

// defaultTimeout bounds a single backend round trip.
const defaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response body is retained.
const maxErrorBody = 4 << 10

// Error is the uniform failure for any non-2xx backend response.
type Error struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

// Client talks to the blog backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the backend at baseURL. The base URL
// carries any path prefix the deployment uses (for example /api).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// do performs a single request against the backend. body is marshalled as
// JSON when non-nil; token adds a bearer Authorization header; out, when
// non-nil, receives the decoded 2xx response body.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Status: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// LoginResponse is the payload the backend returns on successful login.
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login authenticates a user and returns the issued token and account.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, password, email string) error {
	body := map[string]string{"username": username, "password": password, "email": email}
	return c.do(ctx, http.MethodPost, "/auth/register", "", body, nil)
}

// ListArticles fetches one page of articles.
func (c *Client) ListArticles(ctx context.Context, page, pageSize int) (*model.ArticlePage, error) {
	path := fmt.Sprintf("/articles?page=%d&pageSize=%d", page, pageSize)
	var resp model.ArticlePage
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetArticle fetches a single article by ID.
func (c *Client) GetArticle(ctx context.Context, id int64) (*model.Article, error) {
	var resp model.Article
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/articles/%d", id), "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListComments fetches all comments for an article, oldest first.
func (c *Client) ListComments(ctx context.Context, articleID int64) ([]model.Comment, error) {
	var resp []model.Comment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/articles/%d/comments", articleID), "", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateComment posts an anonymous comment on an article. The backend
// fills in the Anonymous name and the client IP.
func (c *Client) CreateComment(ctx context.Context, articleID int64, userName, content string) error {
	body := model.Comment{ArticleID: articleID, UserName: userName, Content: content}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/articles/%d/comments", articleID), "", body, nil)
}

// ListCategories fetches all categories.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var resp []model.Category
	if err := c.do(ctx, http.MethodGet, "/categories", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateArticle creates an article. Requires an admin token.
func (c *Client) CreateArticle(ctx context.Context, token string, input model.ArticleInput) error {
	return c.do(ctx, http.MethodPost, "/admin/articles", token, input, nil)
}

// UpdateArticle replaces an article's content. Requires an admin token.
func (c *Client) UpdateArticle(ctx context.Context, token string, id int64, input model.ArticleInput) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/admin/articles/%d", id), token, input, nil)
}

// DeleteArticle removes an article. Requires an admin token.
func (c *Client) DeleteArticle(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/articles/%d", id), token, nil, nil)
}

// CreateCategory creates a category. Requires an admin token.
func (c *Client) CreateCategory(ctx context.Context, token, name string) error {
	return c.do(ctx, http.MethodPost, "/admin/categories", token, model.Category{Name: name}, nil)
}

// DeleteCategory removes a category. Requires an admin token.
func (c *Client) DeleteCategory(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/categories/%d", id), token, nil, nil)
}

// DeleteComment removes a comment. Requires an admin token.
func (c *Client) DeleteComment(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/comments/%d", id), token, nil, nil)
}

// ChangePassword updates the authenticated user's password. The backend
// validates the old password; its error text is returned verbatim inside
// *Error for display.
func (c *Client) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) error {
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	return c.do(ctx, http.MethodPut, "/admin/change-password", token, body, nil)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler contains the HTTP handlers for the public site and the
// admin area. Handlers fetch from the backend API, shape the records into
// view structs and render server-side templates; mutations always answer
// with a 303 redirect so refreshing a page never resubmits a form.
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kiorffen/blogfront/internal/api"
	"github.com/kiorffen/blogfront/internal/middleware"
	"github.com/kiorffen/blogfront/internal/model"
	"github.com/kiorffen/blogfront/internal/render"
	"github.com/kiorffen/blogfront/internal/session"
	"github.com/kiorffen/blogfront/internal/view"
)

// PublicHandler serves the visitor-facing pages: the article list, article
// detail with comments, and the login/register/logout flow.
type PublicHandler struct {
	client          *api.Client
	renderer        *render.Renderer
	sessions        *session.Store
	loginProtection *middleware.LoginProtection
	formGuard       *middleware.FormGuard
	pageSize        int
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(client *api.Client, renderer *render.Renderer, sessions *session.Store, lp *middleware.LoginProtection, fg *middleware.FormGuard, pageSize int) *PublicHandler {
	return &PublicHandler{
		client:          client,
		renderer:        renderer,
		sessions:        sessions,
		loginProtection: lp,
		formGuard:       fg,
		pageSize:        pageSize,
	}
}

// homeData is the template payload for the article list page.
type homeData struct {
	Articles   []view.ArticleSummary
	Pagination []view.PageLink
	Page       int
	Error      string
}

// Home renders the paginated article list.
// GET /?page=N
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	// Old deep links carry the article ID as a query parameter.
	if id := view.ParseQueryInt64(r, "id"); id > 0 {
		http.Redirect(w, r, fmt.Sprintf(redirectArticleID, id), http.StatusSeeOther)
		return
	}

	page := view.ParsePageParam(r)
	data := homeData{Page: page}

	articles, err := h.client.ListArticles(r.Context(), page, h.pageSize)
	if err != nil {
		slog.Error("failed to list articles", "error", err, "page", page)
		data.Error = "Articles are temporarily unavailable. Please try again later."
	} else {
		totalPages := view.CalculateTotalPages(articles.Total, h.pageSize)
		data.Articles = view.NewArticleSummaries(articles.Data)
		data.Pagination = view.BuildPagination(page, totalPages)
	}

	if err := h.renderer.Render(w, r, "public/home", render.TemplateData{
		Title:   "Blog",
		Data:    data,
		Session: middleware.GetSession(r),
	}); err != nil {
		logAndInternalError(w, "failed to render home", "error", err)
	}
}

// articleData is the template payload for the article detail page.
type articleData struct {
	Article  view.ArticleDetail
	Comments []view.CommentView
	Error    string
}

// Article renders one article with its comments.
// GET /articles/{id}
func (h *PublicHandler) Article(w http.ResponseWriter, r *http.Request) {
	id := parseIDParam(r)
	if id == 0 {
		http.NotFound(w, r)
		return
	}

	sess := middleware.GetSession(r)

	article, err := h.client.GetArticle(r.Context(), id)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		slog.Error("failed to get article", "error", err, "article_id", id)
		h.renderArticleError(w, r, sess)
		return
	}

	data := articleData{Article: view.NewArticleDetail(*article)}

	// A failed comment fetch does not take the article down with it.
	comments, err := h.client.ListComments(r.Context(), id)
	if err != nil {
		slog.Warn("failed to list comments", "error", err, "article_id", id)
	} else {
		data.Comments = view.NewCommentViews(comments, sess.IsAdmin())
	}

	if err := h.renderer.Render(w, r, "public/article", render.TemplateData{
		Title:     article.Title,
		Data:      data,
		Session:   sess,
		FormToken: h.formGuard.Issue(r.Context()),
	}); err != nil {
		logAndInternalError(w, "failed to render article", "error", err)
	}
}

// renderArticleError renders the detail page in its error state. Public
// pages degrade in place instead of forcing navigation.
func (h *PublicHandler) renderArticleError(w http.ResponseWriter, r *http.Request, sess *model.Session) {
	if err := h.renderer.Render(w, r, "public/article", render.TemplateData{
		Title:   "Article",
		Data:    articleData{Error: "This article could not be loaded. Please try again later."},
		Session: sess,
	}); err != nil {
		logAndInternalError(w, "failed to render article error page", "error", err)
	}
}

// CreateComment submits a comment and redirects back to the article.
// POST /articles/{id}/comments
func (h *PublicHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id := parseIDParam(r)
	if id == 0 {
		http.NotFound(w, r)
		return
	}
	articleURL := fmt.Sprintf(redirectArticleID, id)

	if !parseFormOrRedirect(w, r, h.renderer, articleURL) {
		return
	}

	// The token burns before anything reaches the backend, so a double
	// submit posts at most one comment.
	if !h.formGuard.Consume(r.Context(), r.FormValue("form_token")) {
		flashError(w, r, h.renderer, articleURL, "This form was already submitted")
		return
	}

	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		flashError(w, r, h.renderer, articleURL, "Comment cannot be empty")
		return
	}

	// Logged-in visitors comment under their account name; everyone else
	// under whatever name they typed, which the backend may default.
	userName := strings.TrimSpace(r.FormValue("name"))
	if sess := middleware.GetSession(r); sess != nil {
		userName = sess.User.Username
	}

	if err := h.client.CreateComment(r.Context(), id, userName, content); err != nil {
		slog.Error("failed to create comment", "error", err, "article_id", id)
		flashError(w, r, h.renderer, articleURL, "Could not post your comment. Please try again.")
		return
	}

	flashSuccess(w, r, h.renderer, articleURL, "Comment posted")
}

// LoginForm renders the login page.
// Redirects already-authenticated users: admin → dashboard, others → homepage.
func (h *PublicHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.GetSession(r); sess != nil {
		if sess.IsAdmin() {
			http.Redirect(w, r, redirectAdminArticles, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "public/login", render.TemplateData{
		Title: "Login",
	}); err != nil {
		logAndInternalError(w, "failed to render login", "error", err)
	}
}

// Login handles the login form submission.
// POST /login
func (h *PublicHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Username and password are required")
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(username); locked {
			slog.Warn("login attempt on locked account", "username", username)
			flashError(w, r, h.renderer, redirectLogin,
				"Account temporarily locked. Try again in "+formatDuration(remaining))
			return
		}
	}

	resp, err := h.client.Login(r.Context(), username, password)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			slog.Warn("login rejected", "username", username, "status", apiErr.Status)
			if h.loginProtection != nil {
				if locked, lockDuration := h.loginProtection.RecordFailedAttempt(username); locked {
					flashError(w, r, h.renderer, redirectLogin,
						"Too many failed attempts. Account locked for "+formatDuration(lockDuration))
					return
				}
				remaining := h.loginProtection.GetRemainingAttempts(username)
				if remaining > 0 && remaining <= 3 {
					flashError(w, r, h.renderer, redirectLogin,
						fmt.Sprintf("Invalid username or password. %d attempts remaining", remaining))
					return
				}
			}
			flashError(w, r, h.renderer, redirectLogin, "Invalid username or password")
			return
		}
		slog.Error("login backend error", "error", err)
		flashError(w, r, h.renderer, redirectLogin, "Login is temporarily unavailable. Please try again later.")
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(username)
	}

	// Save renews the session token, preventing fixation.
	if err := h.sessions.Save(r.Context(), resp.Token, resp.User); err != nil {
		logAndInternalError(w, "failed to save session", "error", err)
		return
	}

	slog.Info("user logged in", "user_id", resp.User.ID, "username", resp.User.Username)

	h.renderer.SetFlash(r, "Welcome back, "+resp.User.Username, "success")
	sess := &model.Session{Token: resp.Token, User: resp.User}
	if sess.IsAdmin() {
		http.Redirect(w, r, redirectAdminArticles, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
}

// RegisterForm renders the registration page.
func (h *PublicHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetSession(r) != nil {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "public/register", render.TemplateData{
		Title: "Register",
	}); err != nil {
		logAndInternalError(w, "failed to render register", "error", err)
	}
}

// Register handles the registration form submission.
// POST /register
func (h *PublicHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectRegister) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		flashError(w, r, h.renderer, redirectRegister, "Username and password are required")
		return
	}
	if len(password) < MinPasswordLength {
		flashError(w, r, h.renderer, redirectRegister,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
		return
	}

	if err := h.client.Register(r.Context(), username, password, email); err != nil {
		slog.Warn("registration failed", "error", err, "username", username)
		flashError(w, r, h.renderer, redirectRegister,
			backendErrorMessage(err, "Registration is temporarily unavailable. Please try again later."))
		return
	}

	slog.Info("user registered", "username", username)
	flashSuccess(w, r, h.renderer, redirectLogin, "Account created. You can log in now.")
}

// Logout clears the authenticated state and returns to the homepage.
// POST /logout
func (h *PublicHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.GetSession(r); sess != nil {
		slog.Info("user logged out", "user_id", sess.User.ID)
	}
	h.sessions.Clear(r.Context())
	flashAndRedirect(w, r, h.renderer, RouteRoot, "You have been logged out", "info")
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/kiorffen/blogfront/internal/api"
	"github.com/kiorffen/blogfront/internal/middleware"
	"github.com/kiorffen/blogfront/internal/model"
	"github.com/kiorffen/blogfront/internal/render"
	"github.com/kiorffen/blogfront/internal/service"
	"github.com/kiorffen/blogfront/internal/store"
	"github.com/kiorffen/blogfront/internal/view"
)

// recentEventsLimit caps the dashboard's event feed.
const recentEventsLimit = 20

// AdminHandler serves the admin area: article management, categories,
// comment moderation and password changes. Every route is registered
// behind the admin session gate.
type AdminHandler struct {
	client     *api.Client
	renderer   *render.Renderer
	categories *service.CategoryService
	queries    *store.Queries
	formGuard  *middleware.FormGuard
	pageSize   int
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(client *api.Client, renderer *render.Renderer, categories *service.CategoryService, queries *store.Queries, fg *middleware.FormGuard, pageSize int) *AdminHandler {
	return &AdminHandler{
		client:     client,
		renderer:   renderer,
		categories: categories,
		queries:    queries,
		formGuard:  fg,
		pageSize:   pageSize,
	}
}

// token returns the backend bearer token of the authenticated admin. The
// gate middleware guarantees a session on every admin route.
func (h *AdminHandler) token(r *http.Request) string {
	if sess := middleware.GetSession(r); sess != nil {
		return sess.Token
	}
	return ""
}

// adminArticlesData is the template payload for the article dashboard.
type adminArticlesData struct {
	Articles   []view.ArticleSummary
	Pagination []view.PageLink
	Events     []model.Event
	Error      string
}

// Articles renders the article dashboard with the recent event feed.
// GET /admin/articles?page=N
func (h *AdminHandler) Articles(w http.ResponseWriter, r *http.Request) {
	page := view.ParsePageParam(r)
	data := adminArticlesData{}

	articles, err := h.client.ListArticles(r.Context(), page, h.pageSize)
	if err != nil {
		slog.Error("failed to list articles for dashboard", "error", err, "page", page)
		data.Error = "Articles are temporarily unavailable."
	} else {
		totalPages := view.CalculateTotalPages(articles.Total, h.pageSize)
		data.Articles = view.NewArticleSummaries(articles.Data)
		data.Pagination = view.BuildPagination(page, totalPages)
	}

	// The event feed is best-effort; the dashboard works without it.
	events, err := h.queries.ListRecentEvents(r.Context(), recentEventsLimit)
	if err != nil {
		slog.Error("failed to list recent events", "error", err)
	} else {
		data.Events = events
	}

	if err := h.renderer.Render(w, r, "admin/articles", render.TemplateData{
		Title:   "Articles",
		Data:    data,
		Session: middleware.GetSession(r),
	}); err != nil {
		logAndInternalError(w, "failed to render admin articles", "error", err)
	}
}

// articleFormData is the template payload for the create/edit form.
type articleFormData struct {
	Article    *model.Article
	Categories []model.Category
	Selected   map[int64]bool
}

// ArticleNewForm renders an empty article form.
// GET /admin/articles/new
func (h *AdminHandler) ArticleNewForm(w http.ResponseWriter, r *http.Request) {
	h.renderArticleForm(w, r, nil)
}

// ArticleEditForm renders the form pre-filled with a freshly fetched
// article, never a cached copy.
// GET /admin/articles/{id}/edit
func (h *AdminHandler) ArticleEditForm(w http.ResponseWriter, r *http.Request) {
	id := parseIDParam(r)
	if id == 0 {
		http.NotFound(w, r)
		return
	}

	article, err := h.client.GetArticle(r.Context(), id)
	if err != nil {
		slog.Error("failed to get article for editing", "error", err, "article_id", id)
		flashError(w, r, h.renderer, redirectAdminArticles, "Error loading article")
		return
	}

	h.renderArticleForm(w, r, article)
}

func (h *AdminHandler) renderArticleForm(w http.ResponseWriter, r *http.Request, article *model.Article) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		flashError(w, r, h.renderer, redirectAdminArticles, "Error loading categories")
		return
	}

	selected := make(map[int64]bool)
	title := "New Article"
	if article != nil {
		title = "Edit Article"
		for _, c := range article.Categories {
			selected[c.ID] = true
		}
	}

	if err := h.renderer.Render(w, r, "admin/article_form", render.TemplateData{
		Title:     title,
		Data:      articleFormData{Article: article, Categories: categories, Selected: selected},
		Session:   middleware.GetSession(r),
		FormToken: h.formGuard.Issue(r.Context()),
	}); err != nil {
		logAndInternalError(w, "failed to render article form", "error", err)
	}
}

// ArticleSave creates or updates an article depending on whether the form
// carries an ID. The one-time form token is burned before anything reaches
// the backend, so a double submit mutates at most once.
// POST /admin/articles
func (h *AdminHandler) ArticleSave(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminArticles) {
		return
	}

	if !h.formGuard.Consume(r.Context(), r.FormValue("form_token")) {
		flashError(w, r, h.renderer, redirectAdminArticles, "This form was already submitted")
		return
	}

	id := parseFormInt64(r, "id")
	formURL := redirectAdminArticles + RouteSuffixNew
	if id > 0 {
		formURL = fmt.Sprintf(redirectAdminArticleEdit, id)
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		flashError(w, r, h.renderer, formURL, "Title is required")
		return
	}

	input := model.ArticleInput{
		Title:      title,
		Content:    r.FormValue("content"),
		IsMarkdown: r.FormValue("is_markdown") != "",
		Categories: parseCategoryIDs(r.Form["categories"]),
	}

	var err error
	if id > 0 {
		err = h.client.UpdateArticle(r.Context(), h.token(r), id, input)
	} else {
		err = h.client.CreateArticle(r.Context(), h.token(r), input)
	}
	if err != nil {
		slog.Error("failed to save article", "error", err, "article_id", id)
		flashError(w, r, h.renderer, formURL, backendErrorMessage(err, "Could not save the article"))
		return
	}

	if id > 0 {
		slog.Info("article updated", "article_id", id)
		flashSuccess(w, r, h.renderer, redirectAdminArticles, "Article updated")
		return
	}
	slog.Info("article created", "title", title)
	flashSuccess(w, r, h.renderer, redirectAdminArticles, "Article created")
}

// ArticleDelete removes an article.
// POST /admin/articles/{id}/delete
func (h *AdminHandler) ArticleDelete(w http.ResponseWriter, r *http.Request) {
	id := parseIDParam(r)
	if id == 0 {
		http.NotFound(w, r)
		return
	}

	if err := h.client.DeleteArticle(r.Context(), h.token(r), id); err != nil {
		slog.Error("failed to delete article", "error", err, "article_id", id)
		flashError(w, r, h.renderer, redirectAdminArticles, backendErrorMessage(err, "Could not delete the article"))
		return
	}

	slog.Info("article deleted", "article_id", id)
	flashSuccess(w, r, h.renderer, redirectAdminArticles, "Article deleted")
}

// adminCategoriesData is the template payload for the category manager.
type adminCategoriesData struct {
	Categories []model.Category
	Error      string
}

// Categories renders the category manager.
// GET /admin/categories
func (h *AdminHandler) Categories(w http.ResponseWriter, r *http.Request) {
	data := adminCategoriesData{}

	categories, err := h.categories.List(r.Context())
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		data.Error = "Categories are temporarily unavailable."
	} else {
		data.Categories = categories
	}

	if err := h.renderer.Render(w, r, "admin/categories", render.TemplateData{
		Title:     "Categories",
		Data:      data,
		Session:   middleware.GetSession(r),
		FormToken: h.formGuard.Issue(r.Context()),
	}); err != nil {
		logAndInternalError(w, "failed to render categories", "error", err)
	}
}

// CategoryCreate adds a category and invalidates the cached list.
// POST /admin/categories
func (h *AdminHandler) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminCategories) {
		return
	}

	if !h.formGuard.Consume(r.Context(), r.FormValue("form_token")) {
		flashError(w, r, h.renderer, redirectAdminCategories, "This form was already submitted")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		flashError(w, r, h.renderer, redirectAdminCategories, "Category name is required")
		return
	}

	if err := h.client.CreateCategory(r.Context(), h.token(r), name); err != nil {
		slog.Error("failed to create category", "error", err, "name", name)
		flashError(w, r, h.renderer, redirectAdminCategories, backendErrorMessage(err, "Could not create the category"))
		return
	}

	h.categories.Invalidate()
	slog.Info("category created", "name", name)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category created")
}

// CategoryDelete removes a category and invalidates the cached list.
// POST /admin/categories/{id}/delete
func (h *AdminHandler) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id := parseIDParam(r)
	if id == 0 {
		http.NotFound(w, r)
		return
	}

	if err := h.client.DeleteCategory(r.Context(), h.token(r), id); err != nil {
		slog.Error("failed to delete category", "error", err, "category_id", id)
		flashError(w, r, h.renderer, redirectAdminCategories, backendErrorMessage(err, "Could not delete the category"))
		return
	}

	h.categories.Invalidate()
	slog.Info("category deleted", "category_id", id)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category deleted")
}

// CommentDelete removes a comment and returns to the article it was on.
// POST /admin/comments/{id}/delete
func (h *AdminHandler) CommentDelete(w http.ResponseWriter, r *http.Request) {
	id := parseIDParam(r)
	if id == 0 {
		http.NotFound(w, r)
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminArticles) {
		return
	}

	backURL := redirectAdminArticles
	if articleID := parseFormInt64(r, "article_id"); articleID > 0 {
		backURL = fmt.Sprintf(redirectArticleID, articleID)
	}

	if err := h.client.DeleteComment(r.Context(), h.token(r), id); err != nil {
		slog.Error("failed to delete comment", "error", err, "comment_id", id)
		flashError(w, r, h.renderer, backURL, backendErrorMessage(err, "Could not delete the comment"))
		return
	}

	slog.Info("comment deleted", "comment_id", id)
	flashSuccess(w, r, h.renderer, backURL, "Comment deleted")
}

// PasswordForm renders the password change page.
// GET /admin/password
func (h *AdminHandler) PasswordForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "admin/password", render.TemplateData{
		Title:     "Change Password",
		Data:      nil,
		Session:   middleware.GetSession(r),
		FormToken: h.formGuard.Issue(r.Context()),
	}); err != nil {
		logAndInternalError(w, "failed to render password form", "error", err)
	}
}

// PasswordChange validates the form locally, then asks the backend to
// change the password. The backend verifies the old password and its
// rejection text is shown verbatim.
// POST /admin/password
func (h *AdminHandler) PasswordChange(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminPassword) {
		return
	}

	if !h.formGuard.Consume(r.Context(), r.FormValue("form_token")) {
		flashError(w, r, h.renderer, redirectAdminPassword, "This form was already submitted")
		return
	}

	oldPassword := r.FormValue("old_password")
	newPassword := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	if oldPassword == "" || newPassword == "" {
		flashError(w, r, h.renderer, redirectAdminPassword, "All fields are required")
		return
	}
	if newPassword != confirm {
		flashError(w, r, h.renderer, redirectAdminPassword, "New passwords do not match")
		return
	}
	if len(newPassword) < MinPasswordLength {
		flashError(w, r, h.renderer, redirectAdminPassword,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
		return
	}

	if err := h.client.ChangePassword(r.Context(), h.token(r), oldPassword, newPassword); err != nil {
		slog.Warn("password change rejected", "error", err)
		flashError(w, r, h.renderer, redirectAdminPassword, backendErrorMessage(err, "Could not change the password"))
		return
	}

	slog.Info("password changed")
	flashSuccess(w, r, h.renderer, redirectAdminPassword, "Password changed")
}

// parseCategoryIDs converts checkbox values into category references,
// silently skipping anything that is not a positive integer.
func parseCategoryIDs(values []string) []model.Category {
	categories := make([]model.Category, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		categories = append(categories, model.Category{ID: id})
	}
	return categories
}

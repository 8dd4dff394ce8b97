// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package view builds template-ready view structs from backend records.
// Everything here is a pure function over its inputs: no I/O, no clock
// beyond formatting the timestamps already present in the records.
package view

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/kiorffen/blogfront/internal/markdown"
	"github.com/kiorffen/blogfront/internal/model"
)

// PreviewBudget is the maximum number of characters in a list preview
// before it is truncated.
const PreviewBudget = 200

// previewEllipsis marks a truncated preview.
const previewEllipsis = "..."

// textPolicy strips all markup, leaving plain text for previews.
var textPolicy = bluemonday.StrictPolicy()

// dateFormat matches the display format used across the templates.
const dateFormat = "Jan 2, 2006"

// ArticleSummary is one entry in the article list.
type ArticleSummary struct {
	ID         int64
	Title      string
	URL        string
	Author     string
	Date       string
	Categories []string
	Preview    string
}

// NewArticleSummary builds a list entry from an article record.
func NewArticleSummary(a model.Article) ArticleSummary {
	return ArticleSummary{
		ID:         a.ID,
		Title:      a.Title,
		URL:        fmt.Sprintf("/articles/%d", a.ID),
		Author:     a.User.Username,
		Date:       formatDate(a.CreatedAt),
		Categories: categoryNames(a.Categories),
		Preview:    Preview(a.Content),
	}
}

// NewArticleSummaries builds list entries for a whole page of articles.
func NewArticleSummaries(articles []model.Article) []ArticleSummary {
	summaries := make([]ArticleSummary, 0, len(articles))
	for _, a := range articles {
		summaries = append(summaries, NewArticleSummary(a))
	}
	return summaries
}

// ArticleDetail is the full article page view.
type ArticleDetail struct {
	ID         int64
	Title      string
	Author     string
	Date       string
	Updated    string
	Categories []string
	Content    template.HTML
}

// NewArticleDetail builds the detail view, rendering the content through
// the markdown pipeline.
func NewArticleDetail(a model.Article) ArticleDetail {
	return ArticleDetail{
		ID:         a.ID,
		Title:      a.Title,
		Author:     a.User.Username,
		Date:       formatDate(a.CreatedAt),
		Updated:    formatDate(a.UpdatedAt),
		Categories: categoryNames(a.Categories),
		Content:    markdown.RenderContent(a.Content, a.IsMarkdown),
	}
}

// CommentView is one comment under an article. IP and the delete
// affordance are only populated for administrators.
type CommentView struct {
	ID        int64
	ArticleID int64
	Author    string
	Date      string
	Content   string
	IP        string
	CanDelete bool
}

// NewCommentView builds a comment view. Comments without a name display
// as Anonymous.
func NewCommentView(c model.Comment, viewerIsAdmin bool) CommentView {
	author := c.UserName
	if author == "" {
		author = "Anonymous"
	}

	v := CommentView{
		ID:        c.ID,
		ArticleID: c.ArticleID,
		Author:    author,
		Date:      c.CreatedAt.Format(dateFormat + " 15:04"),
		Content:   c.Content,
	}
	if viewerIsAdmin {
		v.IP = c.IP
		v.CanDelete = true
	}
	return v
}

// NewCommentViews builds views for a list of comments.
func NewCommentViews(comments []model.Comment, viewerIsAdmin bool) []CommentView {
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, NewCommentView(c, viewerIsAdmin))
	}
	return views
}

// Preview strips markup from article content and truncates the remaining
// text to PreviewBudget characters, appending an ellipsis marker when
// anything was cut. Truncation counts runes so multibyte text is never
// split mid-character.
func Preview(content string) string {
	text := strings.TrimSpace(textPolicy.Sanitize(content))

	runes := []rune(text)
	if len(runes) <= PreviewBudget {
		return text
	}
	return string(runes[:PreviewBudget]) + previewEllipsis
}

// formatDate formats a timestamp the way the templates display dates.
func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}

func categoryNames(categories []model.Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}

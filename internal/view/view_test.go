// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package view

import (
	"strings"
	"testing"
	"time"

	"github.com/kiorffen/blogfront/internal/model"
)

func TestPreview_ShortContentUnchanged(t *testing.T) {
	got := Preview("short text")
	if got != "short text" {
		t.Errorf("Preview() = %q, want unchanged", got)
	}
}

func TestPreview_ExactBudgetUnchanged(t *testing.T) {
	content := strings.Repeat("a", PreviewBudget)
	got := Preview(content)

	if got != content {
		t.Errorf("Preview() modified content at exactly the budget: len=%d", len(got))
	}
	if strings.HasSuffix(got, "...") {
		t.Error("Preview() appended ellipsis at exactly the budget")
	}
}

func TestPreview_LongContentTruncated(t *testing.T) {
	content := strings.Repeat("a", PreviewBudget+50)
	got := Preview(content)

	want := strings.Repeat("a", PreviewBudget) + "..."
	if got != want {
		t.Errorf("Preview() = %d chars, want %d + ellipsis", len(got), PreviewBudget)
	}
}

func TestPreview_StripsTags(t *testing.T) {
	got := Preview("<p>hello <strong>world</strong></p>")

	if strings.ContainsAny(got, "<>") {
		t.Errorf("Preview() kept markup: %q", got)
	}
	if !strings.Contains(got, "hello") || !strings.Contains(got, "world") {
		t.Errorf("Preview() lost text: %q", got)
	}
}

func TestPreview_MultibyteSafe(t *testing.T) {
	content := strings.Repeat("日", PreviewBudget+10)
	got := Preview(content)

	want := strings.Repeat("日", PreviewBudget) + "..."
	if got != want {
		t.Errorf("Preview() split multibyte text: got %d runes", len([]rune(got)))
	}
}

func TestNewArticleSummary(t *testing.T) {
	created := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	a := model.Article{
		ID:      42,
		Title:   "A Title",
		Content: "<p>body text</p>",
		User:    model.Author{ID: 1, Username: "admin"},
		Categories: []model.Category{
			{ID: 1, Name: "Go"},
			{ID: 2, Name: "Web"},
		},
		CreatedAt: created,
	}

	s := NewArticleSummary(a)

	if s.URL != "/articles/42" {
		t.Errorf("URL = %q, want /articles/42", s.URL)
	}
	if s.Author != "admin" {
		t.Errorf("Author = %q, want admin", s.Author)
	}
	if s.Date != "Mar 15, 2026" {
		t.Errorf("Date = %q, want Mar 15, 2026", s.Date)
	}
	if len(s.Categories) != 2 || s.Categories[0] != "Go" || s.Categories[1] != "Web" {
		t.Errorf("Categories = %v", s.Categories)
	}
	if s.Preview != "body text" {
		t.Errorf("Preview = %q, want stripped body text", s.Preview)
	}
}

func TestNewArticleDetail_Markdown(t *testing.T) {
	a := model.Article{
		ID:         7,
		Title:      "T",
		Content:    "# Heading",
		IsMarkdown: true,
		User:       model.Author{Username: "admin"},
		CreatedAt:  time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC),
	}

	d := NewArticleDetail(a)

	if !strings.Contains(string(d.Content), "<h1") {
		t.Errorf("Content = %q, want rendered heading", d.Content)
	}
	if d.Date != "Jan 1, 2026" || d.Updated != "Jan 2, 2026" {
		t.Errorf("Date/Updated = %q/%q", d.Date, d.Updated)
	}
}

func TestNewCommentView_AnonymousDefault(t *testing.T) {
	c := model.Comment{ID: 1, Content: "hi", CreatedAt: time.Now()}

	v := NewCommentView(c, false)

	if v.Author != "Anonymous" {
		t.Errorf("Author = %q, want Anonymous", v.Author)
	}
}

func TestNewCommentView_AdminSeesIPAndDelete(t *testing.T) {
	c := model.Comment{ID: 1, UserName: "bob", IP: "10.0.0.1", CreatedAt: time.Now()}

	admin := NewCommentView(c, true)
	if admin.IP != "10.0.0.1" {
		t.Errorf("admin IP = %q, want 10.0.0.1", admin.IP)
	}
	if !admin.CanDelete {
		t.Error("admin CanDelete = false, want true")
	}

	visitor := NewCommentView(c, false)
	if visitor.IP != "" {
		t.Errorf("visitor IP = %q, want empty", visitor.IP)
	}
	if visitor.CanDelete {
		t.Error("visitor CanDelete = true, want false")
	}
}

func TestNewCommentViews_Empty(t *testing.T) {
	views := NewCommentViews(nil, false)
	if len(views) != 0 {
		t.Errorf("got %d views, want 0", len(views))
	}
}

func TestBuildPagination(t *testing.T) {
	tests := []struct {
		name       string
		current    int
		totalPages int
		wantLen    int
	}{
		{"single page", 1, 1, 1},
		{"five pages", 3, 5, 5},
		{"many pages", 1, 40, 40},
		{"zero pages", 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := BuildPagination(tt.current, tt.totalPages)

			if len(pages) != tt.wantLen {
				t.Fatalf("got %d links, want %d", len(pages), tt.wantLen)
			}

			currentCount := 0
			for i, p := range pages {
				if p.Number != i+1 {
					t.Errorf("link %d has Number %d, want %d", i, p.Number, i+1)
				}
				if p.IsCurrent {
					currentCount++
					if p.Number != tt.current {
						t.Errorf("current marker on page %d, want %d", p.Number, tt.current)
					}
				}
			}
			if tt.wantLen > 0 && currentCount != 1 {
				t.Errorf("got %d current markers, want 1", currentCount)
			}
		})
	}
}

func TestBuildPagination_URLs(t *testing.T) {
	pages := BuildPagination(2, 3)

	for i, p := range pages {
		want := "?page=" + string(rune('1'+i))
		if p.URL != want {
			t.Errorf("link %d URL = %q, want %q", i, p.URL, want)
		}
	}
}

func TestCalculateTotalPages(t *testing.T) {
	tests := []struct {
		totalItems int64
		perPage    int
		want       int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{31, 10, 4},
		{100, 0, 1},
	}

	for _, tt := range tests {
		if got := CalculateTotalPages(tt.totalItems, tt.perPage); got != tt.want {
			t.Errorf("CalculateTotalPages(%d, %d) = %d, want %d", tt.totalItems, tt.perPage, got, tt.want)
		}
	}
}

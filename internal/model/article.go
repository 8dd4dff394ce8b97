// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain records exchanged with the blog backend:
// articles, categories, comments, users and the page envelope the backend
// wraps list responses in. JSON tags follow the backend's wire format.
package model

import "time"

// Article represents a blog article as served by the backend API.
type Article struct {
	ID         int64      `json:"ID"`
	Title      string     `json:"Title"`
	Content    string     `json:"Content"`
	IsMarkdown bool       `json:"IsMarkdown"`
	UserID     int64      `json:"UserID"`
	User       Author     `json:"User"`
	Categories []Category `json:"Categories"`
	CreatedAt  time.Time  `json:"CreatedAt"`
	UpdatedAt  time.Time  `json:"UpdatedAt"`
}

// Author is the article owner as embedded in article responses.
type Author struct {
	ID       int64  `json:"ID"`
	Username string `json:"Username"`
}

// Category represents an article category.
type Category struct {
	ID   int64  `json:"ID"`
	Name string `json:"Name"`
}

// Comment represents a reader comment on an article. UserName defaults to
// empty for anonymous comments; IP is recorded by the backend and only
// surfaced to administrators.
type Comment struct {
	ID        int64     `json:"ID"`
	ArticleID int64     `json:"ArticleID"`
	Content   string    `json:"Content"`
	UserName  string    `json:"UserName"`
	IP        string    `json:"IP"`
	CreatedAt time.Time `json:"CreatedAt"`
}

// ArticlePage is the envelope the backend wraps paginated article lists in.
type ArticlePage struct {
	Data     []Article `json:"data"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
	Total    int64     `json:"total"`
}

// ArticleInput is the request body for creating or updating an article.
// Categories carries IDs only; the backend resolves them.
type ArticleInput struct {
	Title      string     `json:"Title"`
	Content    string     `json:"Content"`
	IsMarkdown bool       `json:"IsMarkdown"`
	Categories []Category `json:"Categories"`
}

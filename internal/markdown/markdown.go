// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markdown converts article content to safe HTML. Markdown is
// rendered with goldmark; the result (and any raw HTML content) is passed
// through a bluemonday UGC policy before it reaches a template.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// htmlSanitizer strips dangerous markup from rendered content. UGCPolicy
// allows the safe tags user-generated content needs while removing
// <script>, event handlers and similar vectors.
var htmlSanitizer = bluemonday.UGCPolicy()

// Render converts markdown source to sanitized HTML. The conversion is
// deterministic: the same input always yields the same output. If the
// converter fails, the source is returned as escaped preformatted text so
// the page still renders.
func Render(source string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(source), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(source) + "</pre>") //nolint:gosec // escaped above
	}

	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized above
}

// RenderContent prepares article content for display. Markdown articles go
// through the converter; everything else is sanitized as-is, since the
// backend stores raw HTML for non-markdown articles.
func RenderContent(content string, isMarkdown bool) template.HTML {
	if isMarkdown {
		return Render(content)
	}
	return template.HTML(htmlSanitizer.Sanitize(content)) //nolint:gosec // sanitized above
}

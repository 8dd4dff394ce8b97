// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"io/fs"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/kiorffen/blogfront/web"
)

// testFS returns a minimal template tree exercising the layout, partials
// and function map.
func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{
			Data: []byte(`{{define "base"}}<title>{{.Title}}</title>{{template "greet" .}}{{template "content" .}}year:{{.CurrentYear}}{{end}}`),
		},
		"partials/greet.html": &fstest.MapFile{
			Data: []byte(`{{define "greet"}}hello{{end}}`),
		},
		"public/sample.html": &fstest.MapFile{
			Data: []byte(`{{define "content"}}{{truncate .Data.Text 5}}|{{join .Data.Items ","}}|{{add 1 2}}{{end}}`),
		},
		"admin/panel.html": &fstest.MapFile{
			Data: []byte(`{{define "content"}}panel{{end}}`),
		},
	}
}

func TestNew_ParsesPublicAndAdminTemplates(t *testing.T) {
	r, err := New(Config{TemplatesFS: testFS()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	for _, name := range []string{"public/sample", "admin/panel"} {
		if _, ok := r.templates[name]; !ok {
			t.Errorf("template %q not parsed", name)
		}
	}
}

func TestNew_ParsesEmbeddedTemplates(t *testing.T) {
	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("sub: %v", err)
	}

	r, err := New(Config{TemplatesFS: templates})
	if err != nil {
		t.Fatalf("New() on embedded templates: %v", err)
	}

	expected := []string{
		"public/home", "public/article", "public/login", "public/register",
		"admin/articles", "admin/article_form", "admin/categories", "admin/password",
	}
	for _, name := range expected {
		if _, ok := r.templates[name]; !ok {
			t.Errorf("embedded template %q not parsed", name)
		}
	}
}

func TestRender_ExecutesLayoutAndFuncs(t *testing.T) {
	r, err := New(Config{TemplatesFS: testFS()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)

	err = r.Render(rec, req, "public/sample", TemplateData{
		Title: "Sample",
		Data: struct {
			Text  string
			Items []string
		}{Text: "truncate me please", Items: []string{"a", "b"}},
	})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "<title>Sample</title>") {
		t.Errorf("title missing: %q", body)
	}
	if !strings.Contains(body, "hello") {
		t.Errorf("partial missing: %q", body)
	}
	if !strings.Contains(body, "trunc...") {
		t.Errorf("truncate func not applied: %q", body)
	}
	if !strings.Contains(body, "a,b") {
		t.Errorf("join func not applied: %q", body)
	}
	if !strings.Contains(body, "|3") {
		t.Errorf("add func not applied: %q", body)
	}
	if !strings.Contains(body, "year:"+time.Now().Format("2006")) {
		t.Errorf("current year missing: %q", body)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := New(Config{TemplatesFS: testFS()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)

	if err := r.Render(rec, req, "public/nope", TemplateData{}); err == nil {
		t.Error("Render() error = nil for unknown template")
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic services.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/kiorffen/blogfront/internal/api"
	"github.com/kiorffen/blogfront/internal/model"
)

// categoryCacheTTL is how long a fetched category list is served before
// the backend is asked again.
const categoryCacheTTL = 5 * time.Minute

// CategoryService fetches and caches the category list. Categories change
// rarely and appear on every admin article form, so a short TTL cache
// keeps the backend out of the hot path. Mutations invalidate the cache.
type CategoryService struct {
	client *api.Client

	cacheMu sync.RWMutex
	cached  []model.Category
	fetched time.Time
	ttl     time.Duration
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(client *api.Client) *CategoryService {
	return &CategoryService{
		client: client,
		ttl:    categoryCacheTTL,
	}
}

// List returns the categories, from cache when fresh.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	s.cacheMu.RLock()
	if s.cached != nil && time.Since(s.fetched) < s.ttl {
		categories := s.cached
		s.cacheMu.RUnlock()
		return categories, nil
	}
	s.cacheMu.RUnlock()

	categories, err := s.client.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.cached = categories
	s.fetched = time.Now()
	s.cacheMu.Unlock()

	return categories, nil
}

// Invalidate clears the cache. Called after any category mutation so the
// next read reflects the backend state.
func (s *CategoryService) Invalidate() {
	s.cacheMu.Lock()
	s.cached = nil
	s.fetched = time.Time{}
	s.cacheMu.Unlock()
}

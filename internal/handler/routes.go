// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiorffen/blogfront/internal/middleware"
	"github.com/kiorffen/blogfront/internal/session"
)

// Routes assembles the application router: public pages with the session
// loaded for chrome, login throttling on the login form, and the admin
// area behind the session gate.
func Routes(pub *PublicHandler, adm *AdminHandler, sessions *session.Store, lp *middleware.LoginProtection) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadSession(sessions))

		r.Get(RouteRoot, pub.Home)
		r.Get(RouteArticlesID, pub.Article)
		r.Post(RouteArticlesIDComments, pub.CreateComment)

		r.Group(func(r chi.Router) {
			r.Use(lp.Middleware())
			r.Get(RouteLogin, pub.LoginForm)
			r.Post(RouteLogin, pub.Login)
		})

		r.Get(RouteRegister, pub.RegisterForm)
		r.Post(RouteRegister, pub.Register)
		r.Post(RouteLogout, pub.Logout)
	})

	r.Route(redirectAdmin, func(r chi.Router) {
		r.Use(middleware.RequireAdmin(sessions))

		r.Get(RouteRoot, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, redirectAdminArticles, http.StatusSeeOther)
		})

		r.Get(RouteArticles, adm.Articles)
		r.Get(RouteArticles+RouteSuffixNew, adm.ArticleNewForm)
		r.Get(RouteArticles+RouteSuffixEdit, adm.ArticleEditForm)
		r.Post(RouteArticles, adm.ArticleSave)
		r.Post(RouteArticles+RouteSuffixDelete, adm.ArticleDelete)

		r.Get(RouteCategories, adm.Categories)
		r.Post(RouteCategories, adm.CategoryCreate)
		r.Post(RouteCategories+RouteSuffixDelete, adm.CategoryDelete)

		r.Post("/comments"+RouteSuffixDelete, adm.CommentDelete)

		r.Get(RoutePassword, adm.PasswordForm)
		r.Post(RoutePassword, adm.PasswordChange)
	})

	return r
}

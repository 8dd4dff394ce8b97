package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteRegister is the registration route.
	RouteRegister = "/register"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteArticles is the public article list route.
	RouteArticles = "/articles"
	// RouteArticlesID is the article detail route pattern.
	RouteArticlesID = RouteArticles + RouteParamID
	// RouteArticlesIDComments is the comment submission route pattern.
	RouteArticlesIDComments = RouteArticlesID + "/comments"

	// RouteCategories is the categories admin route.
	RouteCategories = "/categories"
	// RoutePassword is the password change admin route.
	RoutePassword = "/password"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixEdit is the suffix for edit routes.
	RouteSuffixEdit = RouteParamID + "/edit"
	// RouteSuffixDelete is the suffix for delete routes.
	RouteSuffixDelete = RouteParamID + "/delete"
)

const (
	redirectAdmin           = "/admin"
	redirectAdminArticles   = redirectAdmin + RouteArticles
	redirectAdminCategories = redirectAdmin + RouteCategories
	redirectAdminPassword   = redirectAdmin + RoutePassword
	redirectLogin           = RouteLogin
	redirectRegister        = RouteRegister

	redirectArticleID        = "/articles/%d"
	redirectAdminArticleEdit = redirectAdminArticles + "/%d/edit"
)

// MinPasswordLength is the minimum accepted password length, matching the
// backend's rule so obviously invalid input never leaves the browser page.
const MinPasswordLength = 6

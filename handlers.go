package blog

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/EmersonGarrido/blog-emersongarrido.com.br-sub000/analytics"
)

func (a *App) handleHome(c echo.Context) error {
	category := c.QueryParam("category")
	posts, err := a.Cache.ListPosts(category)
	if err != nil {
		return err
	}
	categories, err := a.Cache.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(posts, category, categories, a.Config.URL))
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	post, err := a.Cache.GetPost(slug)
	if err != nil {
		if err == ErrNotFound {
			return a.renderNotFound(c)
		}
		return err
	}
	comments, err := a.Store.ListApprovedComments(slug)
	if err != nil {
		return err
	}
	// Server-rendered views count as pageviews too; API clients report
	// through /api/pageview instead.
	view := analytics.PageView{
		PostSlug:  slug,
		PageType:  analytics.PageTypePost,
		VisitorID: visitorID(c),
		Referrer:  analytics.CleanReferrer(c.Request().Referer()),
	}
	if err := a.analyticsStore.RecordView(view); err != nil {
		c.Logger().Errorf("record pageview: %v", err)
	}
	return Render(c, a.Views.Post(post, comments, a.Config.URL))
}

func (a *App) handleAdminPage(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	posts, err := a.Store.ListAllPosts()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(posts, c.QueryParam("msg"), CsrfToken(c)))
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) renderNotFound(c echo.Context) error {
	if a.Views.NotFound != nil {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	return c.String(http.StatusNotFound, "Not Found")
}

// httpErrorHandler converts uncaught errors: JSON envelope for /api/*,
// NotFound/ServerError views elsewhere.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	he, ok := err.(*echo.HTTPError)
	if ok {
		code = he.Code
	}
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		msg := "internal server error"
		if ok && code < 500 {
			if s, isStr := he.Message.(string); isStr {
				msg = s
			}
		}
		if code >= 500 {
			c.Logger().Errorf("server error: %v", err)
		}
		_ = jsonError(c, code, msg)
		return
	}
	if code == http.StatusNotFound {
		_ = a.renderNotFound(c)
		return
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		if a.Views.ServerError != nil {
			_ = RenderStatus(c, code, a.Views.ServerError())
			return
		}
		_ = c.String(code, "Internal Server Error")
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

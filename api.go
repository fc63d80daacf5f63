package blog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/EmersonGarrido/blog-emersongarrido.com.br-sub000/analytics"
	"github.com/EmersonGarrido/blog-emersongarrido.com.br-sub000/markdown"
)

// apiResponse is the uniform JSON envelope: {"success": bool, "error": "..."}.
type apiResponse map[string]any

func jsonOK(c echo.Context, data apiResponse) error {
	if data == nil {
		data = apiResponse{}
	}
	data["success"] = true
	return c.JSON(http.StatusOK, data)
}

func jsonError(c echo.Context, code int, msg string) error {
	return c.JSON(code, apiResponse{"success": false, "error": msg})
}

// visitorID derives the engagement fingerprint for the current request.
func visitorID(c echo.Context) string {
	return analytics.Fingerprint(c.RealIP(), c.Request().UserAgent())
}

func (a *App) handleListPosts(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.QueryParam("category"))
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []Post{}
	}
	return jsonOK(c, apiResponse{"posts": posts})
}

func (a *App) handleGetPost(c echo.Context) error {
	slug := c.Param("slug")
	post, err := a.Cache.GetPost(slug)
	if err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "post not found")
		}
		return err
	}
	post.ContentHTML = markdown.RenderString(post.Content)
	return jsonOK(c, apiResponse{"post": post})
}

func (a *App) handleListComments(c echo.Context) error {
	comments, err := a.Store.ListApprovedComments(c.Param("slug"))
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []Comment{}
	}
	return jsonOK(c, apiResponse{"comments": comments})
}

type commentRequest struct {
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
}

func (a *App) handleCreateComment(c echo.Context) error {
	slug := c.Param("slug")
	if _, err := a.Cache.GetPost(slug); err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "post not found")
		}
		return err
	}
	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	req.AuthorName = strings.TrimSpace(req.AuthorName)
	req.Content = strings.TrimSpace(req.Content)
	if req.AuthorName == "" || req.Content == "" {
		return jsonError(c, http.StatusBadRequest, "author_name and content are required")
	}
	comment, err := a.Store.CreateComment(slug, req.AuthorName, req.Content)
	if err != nil {
		return err
	}
	// The comment stays out of the public list until approved.
	return jsonOK(c, apiResponse{"comment": comment})
}

func (a *App) handleGetLikes(c echo.Context) error {
	count, liked, err := a.Store.CountLikes(c.Param("slug"), visitorID(c))
	if err != nil {
		return err
	}
	return jsonOK(c, apiResponse{"likes": count, "liked": liked})
}

func (a *App) handleLike(c echo.Context) error {
	slug := c.Param("slug")
	if _, err := a.Cache.GetPost(slug); err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "post not found")
		}
		return err
	}
	if err := a.Store.Like(slug, visitorID(c)); err != nil {
		return err
	}
	count, _, err := a.Store.CountLikes(slug, visitorID(c))
	if err != nil {
		return err
	}
	return jsonOK(c, apiResponse{"likes": count, "liked": true})
}

func (a *App) handleUnlike(c echo.Context) error {
	slug := c.Param("slug")
	if err := a.Store.Unlike(slug, visitorID(c)); err != nil {
		return err
	}
	count, _, err := a.Store.CountLikes(slug, visitorID(c))
	if err != nil {
		return err
	}
	return jsonOK(c, apiResponse{"likes": count, "liked": false})
}

func (a *App) handleCommentLike(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid comment id")
	}
	if _, err := a.Store.GetComment(id); err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "comment not found")
		}
		return err
	}
	if err := a.Store.LikeComment(id, visitorID(c)); err != nil {
		return err
	}
	comment, err := a.Store.GetComment(id)
	if err != nil {
		return err
	}
	return jsonOK(c, apiResponse{"likes": comment.Likes, "liked": true})
}

func (a *App) handleCommentUnlike(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid comment id")
	}
	if err := a.Store.UnlikeComment(id, visitorID(c)); err != nil {
		return err
	}
	comment, err := a.Store.GetComment(id)
	if err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "comment not found")
		}
		return err
	}
	return jsonOK(c, apiResponse{"likes": comment.Likes, "liked": false})
}

func (a *App) handleShare(c echo.Context) error {
	slug := c.Param("slug")
	if _, err := a.Cache.GetPost(slug); err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "post not found")
		}
		return err
	}
	view := analytics.PageView{
		PostSlug:  slug,
		PageType:  analytics.PageTypeShare,
		VisitorID: visitorID(c),
		Referrer:  c.Request().Referer(),
	}
	if err := a.analyticsStore.RecordView(view); err != nil {
		c.Logger().Errorf("record share: %v", err)
	}
	return jsonOK(c, nil)
}

type pageViewRequest struct {
	PostSlug    string `json:"post_slug"`
	PageType    string `json:"page_type"`
	Referrer    string `json:"referrer"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
}

func (a *App) handlePageView(c echo.Context) error {
	// Rate limit by IP to prevent analytics flooding.
	if !a.collectLimiter.Allow(c.RealIP()) {
		return jsonError(c, http.StatusTooManyRequests, "too many requests")
	}
	var req pageViewRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.PageType == "" {
		req.PageType = analytics.PageTypeHome
	}
	view := analytics.PageView{
		PostSlug:    req.PostSlug,
		PageType:    req.PageType,
		VisitorID:   visitorID(c),
		Referrer:    analytics.CleanReferrer(req.Referrer),
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
	}
	// Geolocation is best-effort: a slow or failed lookup records the view
	// without location instead of failing the request.
	if loc, err := a.geo.Lookup(c.Request().Context(), c.RealIP()); err == nil {
		view.Country = loc.Country
		view.City = loc.City
	} else {
		c.Logger().Infof("geo lookup skipped: %v", err)
	}
	if err := a.analyticsStore.RecordView(view); err != nil {
		c.Logger().Errorf("record pageview: %v", err)
	}
	return jsonOK(c, nil)
}

type subscribeRequest struct {
	Email string `json:"email"`
}

func (a *App) handleSubscribe(c echo.Context) error {
	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	sub, err := a.Store.Subscribe(req.Email)
	if err == ErrAlreadySubscribed {
		return jsonError(c, http.StatusConflict, "email is already subscribed")
	}
	if err != nil {
		if strings.Contains(err.Error(), "invalid email") {
			return jsonError(c, http.StatusBadRequest, "invalid email address")
		}
		return err
	}
	return jsonOK(c, apiResponse{"subscriber": sub})
}

func (a *App) handleUnsubscribe(c echo.Context) error {
	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if err := a.Store.Unsubscribe(req.Email); err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "email is not subscribed")
		}
		return err
	}
	return jsonOK(c, nil)
}

package blog

import (
	"crypto/subtle"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Password string `json:"password"`
}

func (a *App) handleAdminLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return jsonError(c, http.StatusTooManyRequests, "too many login attempts, try again later")
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.Config.AdminPassword)) != 1 {
		return jsonError(c, http.StatusUnauthorized, "invalid password")
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return jsonOK(c, nil)
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return jsonOK(c, nil)
}

// ---- posts ----

type postRequest struct {
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt"`
	Content    string   `json:"content"`
	Categories []string `json:"categories"`
	Published  bool     `json:"published"`
	Note       string   `json:"note"`
}

func (a *App) handleAdminListPosts(c echo.Context) error {
	posts, err := a.Store.ListAllPosts()
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []Post{}
	}
	return jsonOK(c, apiResponse{"posts": posts})
}

func (a *App) handleAdminGetPost(c echo.Context) error {
	post, err := a.Store.GetPostAny(c.Param("slug"))
	if err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "post not found")
		}
		return err
	}
	return jsonOK(c, apiResponse{"post": post})
}

func (a *App) handleAdminCreatePost(c echo.Context) error {
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return jsonError(c, http.StatusBadRequest, "title is required")
	}
	post, err := a.Store.CreatePost(Post{
		Title:      req.Title,
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		Categories: FilterEmpty(req.Categories),
		Published:  req.Published,
	})
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	return jsonOK(c, apiResponse{"post": post})
}

func (a *App) handleAdminUpdatePost(c echo.Context) error {
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return jsonError(c, http.StatusBadRequest, "title is required")
	}
	post, err := a.Store.UpdatePost(c.Param("slug"), Post{
		Title:      req.Title,
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		Categories: FilterEmpty(req.Categories),
		Published:  req.Published,
	}, a.Config.Author, req.Note)
	if err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "post not found")
		}
		return err
	}
	a.Cache.Invalidate()
	return jsonOK(c, apiResponse{"post": post})
}

func (a *App) handleAdminDeletePost(c echo.Context) error {
	if err := a.Store.DeletePost(c.Param("slug")); err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "post not found")
		}
		return err
	}
	a.Cache.Invalidate()
	return jsonOK(c, nil)
}

type pinRequest struct {
	Pinned bool `json:"pinned"`
}

func (a *App) handleAdminPinPost(c echo.Context) error {
	var req pinRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if err := a.Store.PinPost(c.Param("slug"), req.Pinned); err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "post not found")
		}
		return err
	}
	a.Cache.Invalidate()
	return jsonOK(c, nil)
}

func (a *App) handleAdminListRevisions(c echo.Context) error {
	revisions, err := a.Store.ListRevisions(c.Param("slug"))
	if err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "post not found")
		}
		return err
	}
	if revisions == nil {
		revisions = []PostRevision{}
	}
	return jsonOK(c, apiResponse{"revisions": revisions})
}

// ---- categories ----

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (a *App) handleAdminListCategories(c echo.Context) error {
	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	if categories == nil {
		categories = []Category{}
	}
	return jsonOK(c, apiResponse{"categories": categories})
}

func (a *App) handleAdminCreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	cat, err := a.Store.CreateCategory(req.Name, req.Color)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	a.Cache.Invalidate()
	return jsonOK(c, apiResponse{"category": cat})
}

func (a *App) handleAdminUpdateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	cat, err := a.Store.UpdateCategory(c.Param("slug"), req.Name, req.Color)
	if err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "category not found")
		}
		return err
	}
	a.Cache.Invalidate()
	return jsonOK(c, apiResponse{"category": cat})
}

func (a *App) handleAdminDeleteCategory(c echo.Context) error {
	err := a.Store.DeleteCategory(c.Param("slug"))
	switch err {
	case nil:
	case ErrCategoryInUse:
		return jsonError(c, http.StatusBadRequest, err.Error())
	case ErrNotFound:
		return jsonError(c, http.StatusNotFound, "category not found")
	default:
		return err
	}
	a.Cache.Invalidate()
	return jsonOK(c, nil)
}

// ---- comments ----

func (a *App) handleAdminListComments(c echo.Context) error {
	comments, err := a.Store.ListComments(c.QueryParam("status"))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	if comments == nil {
		comments = []Comment{}
	}
	return jsonOK(c, apiResponse{"comments": comments})
}

type moderateRequest struct {
	Status string `json:"status"` // "approved", "spam", or "pending"
}

func (a *App) handleAdminModerateComment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid comment id")
	}
	var req moderateRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	switch req.Status {
	case CommentStatusApproved:
		err = a.Store.ApproveComment(id)
	case CommentStatusSpam:
		err = a.Store.MarkCommentSpam(id)
	case CommentStatusPending:
		err = a.Store.UnmarkCommentSpam(id)
	default:
		return jsonError(c, http.StatusBadRequest, "status must be approved, spam, or pending")
	}
	if err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "comment not found")
		}
		return err
	}
	return jsonOK(c, nil)
}

type editCommentRequest struct {
	Content string `json:"content"`
}

func (a *App) handleAdminEditComment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid comment id")
	}
	var req editCommentRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return jsonError(c, http.StatusBadRequest, "content is required")
	}
	comment, err := a.Store.EditComment(id, req.Content)
	if err != nil {
		if err == ErrNotFound {
			return jsonError(c, http.StatusNotFound, "comment not found")
		}
		return err
	}
	return jsonOK(c, apiResponse{"comment": comment})
}

func (a *App) handleAdminDeleteComment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid comment id")
	}
	if err := a.Store.DeleteComment(id); err != nil {
		return err
	}
	return jsonOK(c, nil)
}

// ---- subscribers ----

func (a *App) handleAdminListSubscribers(c echo.Context) error {
	subs, err := a.Store.ListSubscribers()
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []Subscriber{}
	}
	return jsonOK(c, apiResponse{"subscribers": subs})
}

func (a *App) handleAdminDeleteSubscriber(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid subscriber id")
	}
	if err := a.Store.DeleteSubscriber(id); err != nil {
		return err
	}
	return jsonOK(c, nil)
}

func (a *App) handleAdminExportSubscribers(c echo.Context) error {
	subs, err := a.Store.ListSubscribers()
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="subscribers.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write([]string{"email", "status", "subscribed_at"}); err != nil {
		return err
	}
	for _, s := range subs {
		if err := w.Write([]string{s.Email, s.Status, s.SubscribedAt}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ---- settings ----

func (a *App) handleAdminGetSettings(c echo.Context) error {
	settings, err := a.Store.AllSettings()
	if err != nil {
		return err
	}
	return jsonOK(c, apiResponse{"settings": settings})
}

func (a *App) handleAdminPutSettings(c echo.Context) error {
	var req map[string]string
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	for k, v := range req {
		if err := a.Store.SetSetting(k, v); err != nil {
			return err
		}
	}
	return jsonOK(c, nil)
}

package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"tourismhub/api/middleware"
	"tourismhub/api/tracking"
)

// TrackHandlers are the call sites of the tracking pipeline. They answer 202
// with the outcome; analytics failures never fail the request.
type TrackHandlers struct {
	Registry *tracking.Registry
}

func NewTrackHandlers(registry *tracking.Registry) *TrackHandlers {
	return &TrackHandlers{Registry: registry}
}

type pageViewRequest struct {
	PagePath string `json:"pagePath"`
}

type searchRequest struct {
	Query       string         `json:"query"`
	Scope       string         `json:"scope"`
	ResultCount *int           `json:"resultCount"`
	PagePath    string         `json:"pagePath"`
	Filters     map[string]any `json:"filters"`
}

type filterRequest struct {
	Scope       string         `json:"scope"`
	FilterName  string         `json:"filterName" binding:"required"`
	FilterValue any            `json:"filterValue"`
	PagePath    string         `json:"pagePath"`
	Filters     map[string]any `json:"filters"`
}

type contentViewRequest struct {
	ContentType string `json:"contentType" binding:"required"`
	ContentID   string `json:"contentId" binding:"required"`
	OwnerID     string `json:"ownerId"`
	PagePath    string `json:"pagePath"`
}

type profileViewRequest struct {
	ProfileID string `json:"profileId" binding:"required"`
}

func (h *TrackHandlers) tracker(c *gin.Context) *tracking.Tracker {
	return h.Registry.Get(middleware.ClientIDFromContext(c))
}

func respondOutcome(c *gin.Context, outcome tracking.Outcome) {
	c.JSON(http.StatusAccepted, gin.H{"outcome": outcome})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
}

// PageView tracks a page view. Without pagePath the Referer's path and query are used.
func (h *TrackHandlers) PageView(c *gin.Context) {
	var req pageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	if req.PagePath == "" {
		req.PagePath = pathFromReferer(c.GetHeader("Referer"))
	}

	userID, role := middleware.UserFromContext(c)
	respondOutcome(c, h.tracker(c).TrackPageView(c.Request.Context(), tracking.PageViewInput{
		UserID:   userID,
		UserRole: role,
		PagePath: req.PagePath,
	}))
}

func (h *TrackHandlers) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	userID, role := middleware.UserFromContext(c)
	respondOutcome(c, h.tracker(c).TrackSearchPerformed(c.Request.Context(), tracking.SearchInput{
		Query:       req.Query,
		Scope:       req.Scope,
		ResultCount: req.ResultCount,
		UserID:      userID,
		UserRole:    role,
		PagePath:    req.PagePath,
		Filters:     req.Filters,
	}))
}

func (h *TrackHandlers) Filter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	userID, role := middleware.UserFromContext(c)
	respondOutcome(c, h.tracker(c).TrackFilterUsage(c.Request.Context(), tracking.FilterInput{
		Scope:       req.Scope,
		FilterName:  req.FilterName,
		FilterValue: req.FilterValue,
		UserID:      userID,
		UserRole:    role,
		PagePath:    req.PagePath,
		Filters:     req.Filters,
	}))
}

func (h *TrackHandlers) ContentView(c *gin.Context) {
	var req contentViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	userID, role := middleware.UserFromContext(c)
	respondOutcome(c, h.tracker(c).TrackContentView(c.Request.Context(), tracking.ContentViewInput{
		ContentType: req.ContentType,
		ContentID:   req.ContentID,
		OwnerID:     req.OwnerID,
		UserID:      userID,
		UserRole:    role,
		PagePath:    req.PagePath,
	}))
}

func (h *TrackHandlers) ProfileView(c *gin.Context) {
	var req profileViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	userID, role := middleware.UserFromContext(c)
	respondOutcome(c, h.tracker(c).TrackProfileView(c.Request.Context(), tracking.ProfileViewInput{
		ProfileID: req.ProfileID,
		UserID:    userID,
		UserRole:  role,
	}))
}

// Reload is sent by the frontend on a full page load and clears the client's dedup slots.
func (h *TrackHandlers) Reload(c *gin.Context) {
	h.Registry.Reset(middleware.ClientIDFromContext(c))
	c.Status(http.StatusNoContent)
}

func pathFromReferer(referer string) string {
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil {
		return ""
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}

package api

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/swimform/swimform-go/internal/datastore"
	"github.com/swimform/swimform-go/internal/logger"
)

// Frame image formats.
const (
	FormatPNG = "png"
	FormatRaw = "raw"
)

// SessionListResponse is the body of GET /sessions.
type SessionListResponse struct {
	Sessions []datastore.Session `json:"sessions"`
	Total    int64               `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
}

// FrameListResponse is the body of GET /sessions/:id/frames.
type FrameListResponse struct {
	SessionID string               `json:"session_id"`
	Frames    []datastore.FrameRow `json:"frames"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}

// ListSessions handles GET /sessions?limit=&offset=&sort=created_at|avg_score&order=asc|desc.
func (c *Controller) ListSessions(ctx echo.Context) error {
	if c.DS == nil {
		return c.HandleError(ctx, nil, "session storage is disabled", http.StatusServiceUnavailable)
	}
	limit, offset, err := pageParams(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid paging parameters", http.StatusBadRequest)
	}

	sortBy := ctx.QueryParam("sort")
	if sortBy != "" && sortBy != "created_at" && sortBy != "avg_score" {
		return c.HandleError(ctx, nil, "sort must be created_at or avg_score", http.StatusBadRequest)
	}
	order := ctx.QueryParam("order")
	if order != "" && order != "asc" && order != "desc" {
		return c.HandleError(ctx, nil, "order must be asc or desc", http.StatusBadRequest)
	}

	reqCtx := ctx.Request().Context()
	sessions, err := c.DS.ListSessions(reqCtx, datastore.ListOptions{
		Limit:     limit,
		Offset:    offset,
		SortBy:    sortBy,
		Ascending: order == "asc",
	})
	if err != nil {
		return c.handleStoreError(ctx, err, "failed to list sessions")
	}
	total, err := c.DS.CountSessions(reqCtx)
	if err != nil {
		return c.handleStoreError(ctx, err, "failed to count sessions")
	}
	if sessions == nil {
		sessions = []datastore.Session{}
	}
	return ctx.JSON(http.StatusOK, SessionListResponse{
		Sessions: sessions,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

// GetSession handles GET /sessions/:id. Stored sessions never change, so
// they are served from cache once loaded.
func (c *Controller) GetSession(ctx echo.Context) error {
	if c.DS == nil {
		return c.HandleError(ctx, nil, "session storage is disabled", http.StatusServiceUnavailable)
	}
	id := ctx.Param("id")

	if cached, found := c.sessionCache.Get(id); found {
		c.recordCacheLookup(true)
		return ctx.JSON(http.StatusOK, cached)
	}
	c.recordCacheLookup(false)

	session, err := c.DS.GetSession(ctx.Request().Context(), id)
	if err != nil {
		return c.handleStoreError(ctx, err, "session not found")
	}
	c.sessionCache.SetDefault(id, session)
	return ctx.JSON(http.StatusOK, session)
}

// GetFrames handles GET /sessions/:id/frames?limit=&offset=.
func (c *Controller) GetFrames(ctx echo.Context) error {
	if c.DS == nil {
		return c.HandleError(ctx, nil, "session storage is disabled", http.StatusServiceUnavailable)
	}
	limit, offset, err := pageParams(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid paging parameters", http.StatusBadRequest)
	}
	id := ctx.Param("id")
	frames, err := c.DS.GetFrames(ctx.Request().Context(), id, offset, limit)
	if err != nil {
		return c.handleStoreError(ctx, err, "failed to load frames")
	}
	if frames == nil {
		frames = []datastore.FrameRow{}
	}
	return ctx.JSON(http.StatusOK, FrameListResponse{
		SessionID: id,
		Frames:    frames,
		Limit:     limit,
		Offset:    offset,
	})
}

// GetBestFrame handles GET /sessions/:id/frames/best.
func (c *Controller) GetBestFrame(ctx echo.Context) error {
	return c.serveFrameImage(ctx, datastore.ImageBest)
}

// GetWorstFrame handles GET /sessions/:id/frames/worst.
func (c *Controller) GetWorstFrame(ctx echo.Context) error {
	return c.serveFrameImage(ctx, datastore.ImageWorst)
}

// serveFrameImage writes a retained frame as PNG, or as raw rgb24 with
// format=raw. Frame metadata travels in X-Frame-* headers.
func (c *Controller) serveFrameImage(ctx echo.Context, kind string) error {
	if c.DS == nil {
		return c.HandleError(ctx, nil, "session storage is disabled", http.StatusServiceUnavailable)
	}
	format := ctx.QueryParam("format")
	if format == "" {
		format = FormatPNG
	}
	if format != FormatPNG && format != FormatRaw {
		return c.HandleError(ctx, nil, "format must be png or raw", http.StatusBadRequest)
	}

	img, err := c.DS.GetFrameImage(ctx.Request().Context(), ctx.Param("id"), kind)
	if err != nil {
		return c.handleStoreError(ctx, err, kind+" frame not found")
	}
	if img.Width <= 0 || img.Height <= 0 || len(img.Data) != img.Width*img.Height*3 {
		return c.HandleError(ctx, nil, "stored frame is corrupt", http.StatusInternalServerError)
	}

	h := ctx.Response().Header()
	h.Set("X-Frame-Index", strconv.Itoa(img.FrameIndex))
	h.Set("X-Frame-Score", strconv.FormatFloat(img.Score, 'f', 2, 64))
	h.Set("X-Frame-Width", strconv.Itoa(img.Width))
	h.Set("X-Frame-Height", strconv.Itoa(img.Height))

	if format == FormatRaw {
		return ctx.Blob(http.StatusOK, echo.MIMEOctetStream, img.Data)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgbImage(img)); err != nil {
		c.logger.Error("failed to encode frame", logger.Error(err))
		return c.HandleError(ctx, err, "failed to encode frame", http.StatusInternalServerError)
	}
	return ctx.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// rgbImage converts packed rgb24 into an opaque image.
func rgbImage(f *datastore.FrameImage) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, j := 0, 0; i < len(f.Data); i, j = i+3, j+4 {
		out.Pix[j] = f.Data[i]
		out.Pix[j+1] = f.Data[i+1]
		out.Pix[j+2] = f.Data[i+2]
		out.Pix[j+3] = 0xff
	}
	return out
}

func (c *Controller) recordCacheLookup(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(hit)
	}
}

// pageParams parses limit and offset; absent values are zero and left to
// the datastore defaults.
func pageParams(ctx echo.Context) (limit, offset int, err error) {
	if v := ctx.QueryParam("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
	}
	if v := ctx.QueryParam("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
		}
	}
	if limit <= 0 {
		limit = datastore.DefaultListLimit
	}
	if limit > datastore.MaxListLimit {
		limit = datastore.MaxListLimit
	}
	return limit, offset, nil
}

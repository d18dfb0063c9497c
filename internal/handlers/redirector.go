// Package handlers wires the resolution, tracking and dispatch pipeline
// into the HTTP surface.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ricwein/shurl/internal/analytics"
	"github.com/ricwein/shurl/internal/cache"
	"github.com/ricwein/shurl/internal/config"
	"github.com/ricwein/shurl/internal/dispatch"
	"github.com/ricwein/shurl/internal/messaging"
	"github.com/ricwein/shurl/internal/redirect"
	"github.com/ricwein/shurl/internal/resolver"
	"github.com/ricwein/shurl/internal/tracker"
)

// Renderer renders HTML pages for the welcome, preview and error routes.
type Renderer interface {
	Render(w io.Writer, name string, bindings any) error
}

// countTTL bounds staleness of the welcome-page counter.
const countTTL = time.Minute

// Redirector serves the slug routes: resolve, track, dispatch.
type Redirector struct {
	resolver     *resolver.Resolver
	tracker      *tracker.Tracker
	dispatcher   *dispatch.Dispatcher
	store        redirect.Store
	cache        cache.Cache
	renderer     Renderer
	publishVisit messaging.Publish[analytics.VisitEvent]
	cfg          config.Config
	logger       *zap.Logger
}

// NewRedirector creates the slug-route handler.
func NewRedirector(
	res *resolver.Resolver,
	track *tracker.Tracker,
	dispatcher *dispatch.Dispatcher,
	store redirect.Store,
	c cache.Cache,
	renderer Renderer,
	publishVisit messaging.Publish[analytics.VisitEvent],
	cfg config.Config,
	logger *zap.Logger,
) *Redirector {
	return &Redirector{
		resolver:     res,
		tracker:      track,
		dispatcher:   dispatcher,
		store:        store,
		cache:        c,
		renderer:     renderer,
		publishVisit: publishVisit,
		cfg:          cfg,
		logger:       logger,
	}
}

// Redirect handles GET /{slug}: resolve the entry, record the visit,
// then answer according to the entry's mode.
func (h *Redirector) Redirect(w http.ResponseWriter, r *http.Request) {
	url, ok := h.resolveAndTrack(w, r)
	if !ok {
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), w, url); err != nil {
		h.RenderError(w, r, err)
	}
}

// Preview handles GET /preview/{slug}: same resolution and tracking,
// but renders the destination instead of redirecting.
func (h *Redirector) Preview(w http.ResponseWriter, r *http.Request) {
	url, ok := h.resolveAndTrack(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := h.renderer.Render(w, "preview", map[string]any{
		"Slug":      url.Slug,
		"Original":  url.OriginalURL,
		"Shortened": url.Shortened(h.cfg.RootURL),
	})
	if err != nil {
		h.logger.Error("preview render failed", zap.String("slug", url.Slug), zap.Error(err))
	}
}

// Welcome handles GET /: the landing page with the active-entry counter.
// The counter is cached briefly since it is purely informational.
func (h *Redirector) Welcome(w http.ResponseWriter, r *http.Request) {
	count, err := h.activeCount(r.Context())
	if err != nil {
		h.RenderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := h.renderer.Render(w, "welcome", map[string]any{"Count": count}); err != nil {
		h.logger.Error("welcome render failed", zap.Error(err))
	}
}

func (h *Redirector) activeCount(ctx context.Context) (int64, error) {
	if h.cache == nil {
		return h.store.CountActive(ctx)
	}

	var count int64

	hit, err := h.cache.Get(ctx, "count", &count)
	if err != nil {
		h.logger.Warn("count cache read failed", zap.Error(err))
	}

	if hit {
		return count, nil
	}

	count, err = h.store.CountActive(ctx)
	if err != nil {
		return 0, err
	}

	if err := h.cache.Set(ctx, "count", count, countTTL); err != nil {
		h.logger.Warn("count cache write failed", zap.Error(err))
	}

	return count, nil
}

// resolveAndTrack runs the shared front half of every slug route. On
// failure the error page has already been rendered.
func (h *Redirector) resolveAndTrack(w http.ResponseWriter, r *http.Request) (*redirect.Resolved, bool) {
	slug := chi.URLParam(r, "slug")

	url, err := h.resolver.Resolve(r.Context(), slug)
	if err != nil {
		h.RenderError(w, r, err)
		return nil, false
	}

	meta := tracker.MetaFromContext(r.Context())

	if err := h.tracker.Track(r.Context(), url, meta); err != nil {
		if !h.cfg.Tracking.SkipOnError {
			h.RenderError(w, r, err)
			return nil, false
		}

		h.logger.Warn("visit tracking skipped", zap.String("slug", slug), zap.Error(err))
	}

	h.publishVisitEvent(url, meta)

	return url, true
}

// publishVisitEvent emits the out-of-band visit event. Failures are
// logged and never affect the response.
func (h *Redirector) publishVisitEvent(url *redirect.Resolved, meta tracker.RequestMeta) {
	if h.publishVisit == nil {
		return
	}

	event := &analytics.VisitEvent{
		RedirectID: url.RedirectID,
		Slug:       url.Slug,
		VisitedAt:  time.Now().UTC(),
		Origin:     meta.Origin,
		DoNotTrack: meta.DoNotTrack,
	}

	if err := h.publishVisit(event); err != nil {
		h.logger.Error("visit event publish failed", zap.String("slug", url.Slug), zap.Error(err))
	}
}

// RenderError logs err and answers with the error page. Client-class
// failures are routine and logged quieter than server-class ones. In
// development mode the raw error text is returned instead of the page.
func (h *Redirector) RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Info("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}

	if h.cfg.Development {
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	renderErr := h.renderer.Render(w, "error", map[string]any{
		"Code":    status,
		"Message": http.StatusText(status),
	})
	if renderErr != nil {
		h.logger.Error("error page render failed", zap.Error(renderErr))
	}
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, redirect.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, redirect.ErrSlugReserved):
		return http.StatusConflict
	case errors.Is(err, redirect.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, redirect.ErrStoreUnreachable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

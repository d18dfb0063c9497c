// Package dispatch turns a resolved entry into an HTTP response
// according to its redirect mode.
package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ricwein/shurl/internal/cache"
	"github.com/ricwein/shurl/internal/config"
	"github.com/ricwein/shurl/internal/redirect"
)

// Renderer is the template boundary used for html-mode interstitials.
type Renderer interface {
	Render(w io.Writer, name string, bindings any) error
}

// Dispatcher is a state machine over redirect modes: HTTP redirect,
// interstitial HTML page, or server-side content passthrough.
type Dispatcher struct {
	cfg      config.Config
	content  cache.Cache
	fetcher  Fetcher
	renderer Renderer
	logger   *zap.Logger
}

// New creates a dispatcher. A nil content cache disables passthrough
// memoization; every passthrough request then fetches the origin.
func New(cfg config.Config, content cache.Cache, fetcher Fetcher, renderer Renderer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		content:  content,
		fetcher:  fetcher,
		renderer: renderer,
		logger:   logger,
	}
}

// Dispatch answers the request for url. An unknown mode is a
// data-integrity bug (writes validate modes) and reported as
// redirect.ErrInvalidMode.
func (d *Dispatcher) Dispatch(ctx context.Context, w http.ResponseWriter, url *redirect.Resolved) error {
	switch url.Mode {
	case redirect.ModeRedirect:
		return d.rewrite(w, url)
	case redirect.ModeHTML:
		return d.html(w, url)
	case redirect.ModePassthrough:
		return d.passthrough(ctx, w, url)
	default:
		return fmt.Errorf("%w: %q", redirect.ErrInvalidMode, url.Mode)
	}
}

// permanent reports whether 301 semantics apply. Development mode always
// forces temporary redirects so clients don't cache them while testing.
func (d *Dispatcher) permanent() bool {
	return d.cfg.Redirect.Permanent && !d.cfg.Development
}

func (d *Dispatcher) rewrite(w http.ResponseWriter, url *redirect.Resolved) error {
	d.setCachePolicy(w.Header())
	w.Header().Set("Location", url.OriginalURL)

	if d.permanent() {
		w.WriteHeader(http.StatusMovedPermanently)
	} else {
		w.WriteHeader(http.StatusFound)
	}

	return nil
}

func (d *Dispatcher) html(w http.ResponseWriter, url *redirect.Resolved) error {
	// Render into a buffer first so a template failure never leaves a
	// half-written 200 behind.
	var page bytes.Buffer

	err := d.renderer.Render(&page, "redirect", map[string]any{
		"URL":  url.OriginalURL,
		"Wait": d.cfg.Redirect.Wait,
	})
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if _, err := w.Write(page.Bytes()); err != nil {
		d.logger.Debug("interstitial write aborted", zap.String("slug", url.Slug), zap.Error(err))
	}

	return nil
}

func (d *Dispatcher) passthrough(ctx context.Context, w http.ResponseWriter, url *redirect.Resolved) error {
	resource, err := d.fetchCached(ctx, url)
	if err != nil {
		return err
	}

	for _, name := range passthroughHeaders {
		if value, ok := resource.Headers[name]; ok {
			w.Header().Set(name, value)
		}
	}

	d.setCachePolicy(w.Header())

	if _, err := w.Write(resource.Body); err != nil {
		// Client went away mid-stream; nothing left to answer.
		d.logger.Debug("passthrough write aborted", zap.String("slug", url.Slug), zap.Error(err))
	}

	return nil
}

// fetchCached consults the content cache keyed by the URL's content hash
// before fetching the origin.
func (d *Dispatcher) fetchCached(ctx context.Context, url *redirect.Resolved) (*Resource, error) {
	if d.content == nil || !d.cfg.Cache.Passthrough {
		return d.fetcher.Fetch(ctx, url.OriginalURL)
	}

	key := cache.Key("url_", url.Hash)

	var cached Resource

	hit, err := d.content.Get(ctx, key, &cached)
	if err != nil {
		d.logger.Warn("content cache read failed", zap.String("slug", url.Slug), zap.Error(err))
	}

	if hit {
		return &cached, nil
	}

	resource, err := d.fetcher.Fetch(ctx, url.OriginalURL)
	if err != nil {
		return nil, err
	}

	if err := d.content.Set(ctx, key, resource, d.cfg.Cache.TTL); err != nil {
		d.logger.Warn("content cache write failed", zap.String("slug", url.Slug), zap.Error(err))
	}

	return resource, nil
}

// setCachePolicy applies the permanent/temporary client-caching headers
// shared by redirect and passthrough responses.
func (d *Dispatcher) setCachePolicy(h http.Header) {
	if d.permanent() {
		h.Set("Cache-Control", fmt.Sprintf("max-age=%d", int(d.cfg.Cache.TTL.Seconds())))
		return
	}

	h.Set("Pragma", "no-cache")
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Expires", "0")
}

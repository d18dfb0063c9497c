package handlers

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/ricwein/shurl/internal/analytics"
	"github.com/ricwein/shurl/internal/config"
	"github.com/ricwein/shurl/internal/messaging"
	"github.com/ricwein/shurl/internal/redirect"
	"github.com/ricwein/shurl/internal/resolver"
	"github.com/ricwein/shurl/internal/slug"
	"github.com/ricwein/shurl/internal/tracker"
)

// API serves the JSON endpoints for looking up and creating entries.
type API struct {
	resolver     *resolver.Resolver
	tracker      *tracker.Tracker
	store        redirect.Store
	codec        *slug.Codec
	generate     slug.Generator
	publishVisit messaging.Publish[analytics.VisitEvent]
	cfg          config.Config
	logger       *zap.Logger
}

// NewAPI creates the JSON endpoint handler.
func NewAPI(
	res *resolver.Resolver,
	track *tracker.Tracker,
	store redirect.Store,
	codec *slug.Codec,
	generate slug.Generator,
	publishVisit messaging.Publish[analytics.VisitEvent],
	cfg config.Config,
	logger *zap.Logger,
) *API {
	return &API{
		resolver:     res,
		tracker:      track,
		store:        store,
		codec:        codec,
		generate:     generate,
		publishVisit: publishVisit,
		cfg:          cfg,
		logger:       logger,
	}
}

// LookupInput identifies the entry to resolve.
type LookupInput struct {
	Slug string `path:"slug" maxLength:"128" example:"x7Kp2" doc:"Slug of the short url"`
}

// LookupOutput is the resolved entry.
type LookupOutput struct {
	Body struct {
		Slug      string `json:"slug" example:"x7Kp2" doc:"Slug of the short url"`
		Original  string `json:"originalUrl" example:"https://example.com/some/page" doc:"Destination url"`
		Shortened string `json:"shortUrl" example:"https://shurl.test/x7Kp2" doc:"Fully qualified short url"`
		Mode      string `json:"mode" example:"redirect" doc:"How visits are answered"`
	}
}

// Lookup resolves a slug to its destination without redirecting.
func (h *API) Lookup(ctx context.Context, input *LookupInput) (*LookupOutput, error) {
	resolved, err := h.resolver.Resolve(ctx, input.Slug)
	if err != nil {
		return nil, h.apiError(err)
	}

	meta := tracker.MetaFromContext(ctx)

	if err := h.tracker.Track(ctx, resolved, meta); err != nil {
		if !h.cfg.Tracking.SkipOnError {
			return nil, h.apiError(err)
		}

		h.logger.Warn("visit tracking skipped", zap.String("slug", input.Slug), zap.Error(err))
	}

	h.publishEvent(resolved, meta)

	out := &LookupOutput{}
	out.Body.Slug = resolved.Slug
	out.Body.Original = resolved.OriginalURL
	out.Body.Shortened = resolved.Shortened(h.cfg.RootURL)
	out.Body.Mode = string(resolved.Mode)

	return out, nil
}

// ShortenInput describes the entry to create.
type ShortenInput struct {
	Body struct {
		URL       string     `json:"url" minLength:"1" example:"https://example.com/some/page" doc:"Destination url, https is assumed when no scheme is given"`
		Slug      string     `json:"slug,omitempty" maxLength:"128" doc:"Explicit slug, derived from the url id when omitted"`
		Random    bool       `json:"random,omitempty" doc:"Use a random slug instead of a derived one"`
		Mode      string     `json:"mode,omitempty" enum:"redirect,html,passthrough" default:"redirect" doc:"How visits are answered"`
		ValidFrom *time.Time `json:"validFrom,omitempty" doc:"Entry is inactive before this instant"`
		ValidTo   *time.Time `json:"validTo,omitempty" doc:"Entry is inactive from this instant on"`
	}
}

// ShortenOutput is the created entry.
type ShortenOutput struct {
	Location string `header:"Location"`
	Body     struct {
		Slug      string `json:"slug" example:"x7Kp2" doc:"Slug of the short url"`
		Original  string `json:"originalUrl" doc:"Destination url"`
		Shortened string `json:"shortUrl" doc:"Fully qualified short url"`
		Mode      string `json:"mode" doc:"How visits are answered"`
	}
}

// Shorten creates or refreshes a short url. Repeating a request with
// the same url and slug yields the same entry.
func (h *API) Shorten(ctx context.Context, input *ShortenInput) (*ShortenOutput, error) {
	target, err := normalizeURL(input.Body.URL)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid destination url", err)
	}

	mode := redirect.ModeRedirect
	if input.Body.Mode != "" {
		mode, err = redirect.ParseMode(input.Body.Mode)
		if err != nil {
			return nil, h.apiError(err)
		}
	}

	urlID, err := h.store.UpsertURL(ctx, target)
	if err != nil {
		return nil, h.apiError(err)
	}

	s := input.Body.Slug
	switch {
	case s != "":
	case input.Body.Random:
		s = h.generate()
	default:
		s, err = h.codec.Encode(uint64(urlID))
		if err != nil {
			return nil, h.apiError(err)
		}
	}

	if _, err = h.store.UpsertRedirect(ctx, redirect.UpsertRedirectParams{
		URLID:     urlID,
		Slug:      s,
		Mode:      mode,
		ValidFrom: input.Body.ValidFrom,
		ValidTo:   input.Body.ValidTo,
	}); err != nil {
		return nil, h.apiError(err)
	}

	resolved := redirect.Resolved{Slug: s, OriginalURL: target, Mode: mode}

	out := &ShortenOutput{Location: resolved.Shortened(h.cfg.RootURL)}
	out.Body.Slug = s
	out.Body.Original = target
	out.Body.Shortened = out.Location
	out.Body.Mode = string(mode)

	return out, nil
}

func (h *API) publishEvent(resolved *redirect.Resolved, meta tracker.RequestMeta) {
	if h.publishVisit == nil {
		return
	}

	event := &analytics.VisitEvent{
		RedirectID: resolved.RedirectID,
		Slug:       resolved.Slug,
		VisitedAt:  time.Now().UTC(),
		Origin:     meta.Origin,
		DoNotTrack: meta.DoNotTrack,
	}

	if err := h.publishVisit(event); err != nil {
		h.logger.Error("visit event publish failed", zap.String("slug", resolved.Slug), zap.Error(err))
	}
}

// apiError translates domain errors into huma status errors. Anything
// unexpected is logged here and reported as an opaque 500.
func (h *API) apiError(err error) error {
	switch {
	case errors.Is(err, redirect.ErrNotFound):
		return huma.Error404NotFound("short url not found")
	case errors.Is(err, redirect.ErrSlugReserved):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, redirect.ErrInvalidMode):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, redirect.ErrStoreUnreachable):
		return huma.Error503ServiceUnavailable("store unreachable")
	default:
		h.logger.Error("api request failed", zap.Error(err))
		return huma.Error500InternalServerError("internal error")
	}
}

// normalizeURL validates the destination, assuming https when the
// scheme is missing.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("destination url is empty")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return "", err
	}

	if parsed.Host == "" {
		return "", errors.New("destination url has no host")
	}

	return raw, nil
}

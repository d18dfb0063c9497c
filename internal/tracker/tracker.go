// Package tracker records visit metadata for resolved redirects.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/ricwein/shurl/internal/config"
	"github.com/ricwein/shurl/internal/redirect"
)

// ErrTrackingFailed wraps visit-store write failures. Callers decide
// whether to propagate it or drop it based on the skip-on-error setting;
// the tracker itself never swallows errors.
var ErrTrackingFailed = errors.New("tracking failed")

// RequestMeta carries the request attributes the tracker may record. It
// is extracted once per request by the request-meta middleware.
type RequestMeta struct {
	// Origin is scheme://host plus any base path preceding the slug
	// route, identifying which frontend served the hit.
	Origin string

	ClientIP  string
	UserAgent string
	Referrer  string

	// DoNotTrack is set when the client sent "DNT: 1".
	DoNotTrack bool
}

// Tracker writes one visit per resolved request. Recording the hit
// itself (redirect id, time, origin) is unconditional once tracking is
// enabled; the personal fields are individually gated by configuration
// and by the client's Do-Not-Track signal.
type Tracker struct {
	visits redirect.VisitStore
	cfg    config.Tracking
	logger *zap.Logger
	now    func() time.Time
}

// New creates a tracker.
func New(visits redirect.VisitStore, cfg config.Tracking, logger *zap.Logger) *Tracker {
	return &Tracker{
		visits: visits,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Track records a visit for url. Storage failures are returned wrapped
// in ErrTrackingFailed; a disabled tracker is a no-op.
func (t *Tracker) Track(ctx context.Context, url *redirect.Resolved, meta RequestMeta) error {
	if !t.cfg.Enabled {
		return nil
	}

	visit := &redirect.Visit{
		RedirectID: url.RedirectID,
		VisitedAt:  t.now().UTC(),
		Origin:     meta.Origin,
	}

	// "Count that a hit happened" is separate from "identify who":
	// DNT suppresses only the personal fields.
	if !t.cfg.RespectDNT || !meta.DoNotTrack {
		if t.cfg.StoreIP {
			visit.IP = packIP(meta.ClientIP)
		}

		if t.cfg.StoreUserAgent {
			visit.UserAgent = meta.UserAgent
		}

		if t.cfg.StoreReferrer {
			visit.Referrer = meta.Referrer
		}
	}

	if err := t.visits.SaveVisit(ctx, visit); err != nil {
		return fmt.Errorf("%w: %w", ErrTrackingFailed, err)
	}

	return nil
}

// packIP returns the packed network form of an IP address, 4 bytes for
// IPv4 and 16 for IPv6, or nil for unparseable input.
func packIP(addr string) []byte {
	ip := net.ParseIP(addr)
	if ip == nil {
		return nil
	}

	if ip4 := ip.To4(); ip4 != nil {
		return ip4
	}

	return ip.To16()
}

// Package connector abstracts the heterogeneous fetch strategies used
// by employer career sites. Each connector turns one configured source
// into a slice of RawPostings; per-site differences live in the source
// registry, not in code.
package connector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jobscoutbot/jobscout/internal/config"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Defaults applied when the source registry omits paging parameters.
const (
	defaultPageSize = 50
	defaultMaxPages = 3
	hardMaxPages    = 25
)

// RawPosting is the wire-level shape every connector produces. All
// fields are free text as scraped; empty string means absent. Instances
// are ephemeral and owned by the fetch call that created them.
type RawPosting struct {
	Title       string
	Location    string
	DetailURL   string
	Description string
	ReqID       string
	PostedAt    string
}

// Connector fetches postings for one configured source. Malformed
// individual items are dropped, never surfaced; only total connectivity
// failure returns an error. A call is restartable by re-invoking Fetch.
type Connector interface {
	Fetch(ctx context.Context, src config.Source) ([]RawPosting, error)
}

// Set holds one connector instance per registry kind.
type Set map[string]Connector

// NewSet builds the production connector set.
func NewSet(httpTimeout, pageTimeout time.Duration) Set {
	client := &http.Client{Timeout: httpTimeout}
	return Set{
		config.KindPagedAPI:     NewPagedAPI(client),
		config.KindStaticHTML:   NewStaticHTML(httpTimeout),
		config.KindRenderedPage: NewRenderedPage(pageTimeout),
	}
}

// ForKind resolves the connector for a source kind.
func (s Set) ForKind(kind string) (Connector, error) {
	c, ok := s[kind]
	if !ok {
		return nil, fmt.Errorf("no connector for kind %q", kind)
	}
	return c, nil
}

func maxPagesOrDefault(p config.SourceParams) int {
	pages := p.MaxPages
	if pages <= 0 {
		pages = defaultMaxPages
	}
	if pages > hardMaxPages {
		pages = hardMaxPages
	}
	return pages
}

func pageSizeOrDefault(p config.SourceParams) int {
	if p.PageSize <= 0 {
		return defaultPageSize
	}
	return p.PageSize
}

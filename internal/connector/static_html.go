package connector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jobscoutbot/jobscout/internal/config"
)

// StaticHTML scrapes server-rendered career pages with a declarative
// extraction spec. One collector per Fetch call keeps calls restartable
// and free of shared state.
type StaticHTML struct {
	timeout time.Duration
}

// NewStaticHTML constructs the connector.
func NewStaticHTML(timeout time.Duration) *StaticHTML {
	return &StaticHTML{timeout: timeout}
}

// Fetch requests one or more pages and extracts job cards. Postings are
// de-duplicated within the call by (title, resolved URL).
func (c *StaticHTML) Fetch(ctx context.Context, src config.Source) ([]RawPosting, error) {
	spec := src.Params.Spec
	if spec.Card == "" {
		return nil, fmt.Errorf("source %s: extraction spec has no card selector", src.Company)
	}

	linkSel := firstNonEmpty(spec.Link, "a")
	titleSel := firstNonEmpty(spec.Title, linkSel)

	var (
		out      []RawPosting
		fetchErr error
	)
	seen := map[[2]string]struct{}{}

	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(c.timeout)

	collector.OnHTML(spec.Card, func(e *colly.HTMLElement) {
		href := strings.TrimSpace(e.ChildAttr(linkSel, "href"))
		if href == "" {
			return
		}
		href = e.Request.AbsoluteURL(href)

		title := strings.TrimSpace(e.ChildText(titleSel))
		if title == "" {
			title = strings.TrimSpace(e.ChildText(linkSel))
		}
		if title == "" {
			return
		}

		var location string
		if spec.Location != "" {
			location = strings.TrimSpace(e.ChildText(spec.Location))
		}
		if location == "" && src.Params.ForceIndia {
			location = "India"
		}

		var posted string
		if spec.Posted != "" {
			posted = strings.TrimSpace(e.ChildText(spec.Posted))
		}

		key := [2]string{title, href}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		out = append(out, RawPosting{
			Title:     title,
			Location:  location,
			DetailURL: href,
			PostedAt:  posted,
		})
	})

	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	maxPages := maxPagesOrDefault(src.Params)
	if src.Params.PageParam == "" {
		maxPages = 1
	}
	step := src.Params.Step
	if step <= 0 {
		step = 1
	}

	for page := 0; page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL := src.Endpoint
		if src.Params.PageParam != "" {
			val := page + 1
			if step > 1 {
				val = page * step
			}
			pageURL = setQueryParam(src.Endpoint, src.Params.PageParam, strconv.Itoa(val))
		}

		before := len(out)
		if err := collector.Visit(pageURL); err != nil {
			fetchErr = err
		}
		if fetchErr != nil {
			if page == 0 {
				return nil, fmt.Errorf("fetch %s: %w", pageURL, fetchErr)
			}
			// Later pages failing ends pagination without losing what
			// earlier pages produced.
			break
		}
		if len(out) == before && page > 0 {
			break
		}
	}

	return out, nil
}

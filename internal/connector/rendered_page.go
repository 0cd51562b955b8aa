package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jobscoutbot/jobscout/internal/config"
)

// Analytics and tracking hosts blocked at the browser-context level to
// reduce flake and page-load latency.
var blockedURLPatterns = []string{
	"*datadoghq*", "*googletagmanager*", "*google-analytics*", "*doubleclick*",
	"*hotjar*", "*segment.io*", "*mixpanel*", "*newrelic*", "*sentry.io*",
}

// RenderedPage drives a headless Chromium instance for career sites
// that only materialize their listings through JavaScript. Fetch calls
// are serialized: one browser navigation at a time keeps per-origin
// concurrency at 1.
type RenderedPage struct {
	pageTimeout time.Duration
	settle      time.Duration

	mu sync.Mutex
}

// NewRenderedPage constructs the connector.
func NewRenderedPage(pageTimeout time.Duration) *RenderedPage {
	return &RenderedPage{pageTimeout: pageTimeout, settle: 4 * time.Second}
}

// Fetch loads the source URL in a fresh browser context, waits for the
// page to settle, optionally scrolls to trigger lazy-loaded content,
// then extracts cards per the declarative spec. Pagination is either a
// query-parameter loop or a bounded number of next-control clicks.
func (c *RenderedPage) Fetch(ctx context.Context, src config.Source) ([]RawPosting, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	spec := src.Params.Spec
	if spec.Card == "" {
		return nil, fmt.Errorf("source %s: extraction spec has no card selector", src.Company)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	var (
		out  []RawPosting
		seen = map[[2]string]struct{}{}
	)

	maxPages := maxPagesOrDefault(src.Params)
	step := src.Params.Step
	if step <= 0 {
		step = 1
	}

	scrapeOne := func(pageURL string, firstLoad bool) error {
		tctx, cancel := context.WithTimeout(browserCtx, c.pageTimeout)
		defer cancel()

		tasks := chromedp.Tasks{}
		if firstLoad {
			tasks = append(tasks,
				network.Enable(),
				network.SetBlockedURLS(blockedURLPatterns),
			)
		}
		if pageURL != "" {
			tasks = append(tasks, chromedp.Navigate(pageURL))
		}
		if src.Params.WaitFor != "" {
			tasks = append(tasks, chromedp.WaitVisible(src.Params.WaitFor, chromedp.ByQuery))
		} else {
			tasks = append(tasks, chromedp.Sleep(c.settle))
		}
		if src.Params.DoScroll() {
			tasks = append(tasks,
				chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
				chromedp.Sleep(time.Second),
				chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
				chromedp.Sleep(time.Second),
			)
		}

		var cards []renderedCard
		tasks = append(tasks, chromedp.Evaluate(extractScript(spec), &cards))

		if err := chromedp.Run(tctx, tasks); err != nil {
			return fmt.Errorf("browser scrape: %w", err)
		}

		for _, card := range cards {
			if card.Title == "" || card.URL == "" {
				continue
			}
			location := card.Location
			if location == "" && src.Params.ForceIndia {
				location = "India"
			}
			key := [2]string{card.Title, card.URL}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, RawPosting{
				Title:     card.Title,
				Location:  location,
				DetailURL: card.URL,
				PostedAt:  card.Posted,
			})
		}
		return nil
	}

	switch {
	case src.Params.PageParam != "":
		for page := 0; page < maxPages; page++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			val := page + 1
			if step > 1 {
				val = page * step
			}
			pageURL := setQueryParam(src.Endpoint, src.Params.PageParam, strconv.Itoa(val))
			before := len(out)
			if err := scrapeOne(pageURL, page == 0); err != nil {
				if page == 0 {
					return nil, err
				}
				return out, nil
			}
			if len(out) == before && page > 0 {
				break
			}
		}

	default:
		if err := scrapeOne(src.Endpoint, true); err != nil {
			return nil, err
		}
		if src.Params.NextSelector != "" {
			for page := 1; page < maxPages; page++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				if err := c.clickNext(browserCtx, src.Params.NextSelector); err != nil {
					break
				}
				before := len(out)
				if err := scrapeOne("", false); err != nil {
					break
				}
				if len(out) == before {
					break
				}
			}
		}
	}

	return out, nil
}

func (c *RenderedPage) clickNext(browserCtx context.Context, selector string) error {
	tctx, cancel := context.WithTimeout(browserCtx, c.pageTimeout)
	defer cancel()
	return chromedp.Run(tctx,
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.Sleep(c.settle),
	)
}

type renderedCard struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	Posted   string `json:"posted"`
	URL      string `json:"url"`
}

// extractScript builds the in-page extraction function from the
// declarative spec. Selector strings are JSON-encoded into the script
// so quoting in the registry cannot break out of the JS literal.
func extractScript(spec config.ExtractSpec) string {
	cardSel := jsString(spec.Card)
	linkSel := jsString(firstNonEmpty(spec.Link, "a"))
	titleSel := jsString(spec.Title)
	locSel := jsString(spec.Location)
	postedSel := jsString(spec.Posted)

	return `(function() {
		var results = [];
		var cards = document.querySelectorAll(` + cardSel + `);
		for (var i = 0; i < cards.length; i++) {
			var card = cards[i];
			var linkEl = card.querySelector(` + linkSel + `);
			if (!linkEl) continue;
			var href = linkEl.getAttribute('href') || '';
			if (!href) continue;
			href = new URL(href, window.location.href).href;

			var titleEl = ` + titleSel + ` ? card.querySelector(` + titleSel + `) : null;
			var title = (titleEl || linkEl).innerText.trim();

			var location = '';
			if (` + locSel + `) {
				var locEl = card.querySelector(` + locSel + `);
				if (locEl) location = locEl.innerText.trim();
			}

			var posted = '';
			if (` + postedSel + `) {
				var postedEl = card.querySelector(` + postedSel + `);
				if (postedEl) posted = postedEl.innerText.trim();
			}

			results.push({title: title, location: location, posted: posted, url: href});
		}
		return results;
	})()`
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

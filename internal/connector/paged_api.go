package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jobscoutbot/jobscout/internal/config"
)

// PagedAPI fetches postings from JSON career APIs (Greenhouse boards,
// Workday CXS search, Oracle Recruiting and the like). Pagination is
// either offset/limit in a POST body or a page-number query parameter;
// the loop stops on an empty page, a short page, an explicit has-more
// flag, or the configured page ceiling.
type PagedAPI struct {
	client *http.Client
}

// NewPagedAPI constructs the connector with a shared HTTP client.
func NewPagedAPI(client *http.Client) *PagedAPI {
	return &PagedAPI{client: client}
}

// Fetch iterates pages until the endpoint is exhausted.
func (c *PagedAPI) Fetch(ctx context.Context, src config.Source) ([]RawPosting, error) {
	pageSize := pageSizeOrDefault(src.Params)
	maxPages := maxPagesOrDefault(src.Params)

	// A GET endpoint without a page parameter serves the same URL on
	// every request, so one fetch covers it.
	singlePage := !strings.EqualFold(src.Params.Method, http.MethodPost) && src.Params.PageParam == ""

	var out []RawPosting
	for page := 0; page < maxPages; page++ {
		items, hasMore, err := c.fetchPage(ctx, src, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page+1, err)
		}
		if len(items) == 0 {
			break
		}
		out = append(out, items...)
		if singlePage || !hasMore || len(items) < pageSize {
			break
		}
	}
	return out, nil
}

func (c *PagedAPI) fetchPage(ctx context.Context, src config.Source, page, pageSize int) ([]RawPosting, bool, error) {
	var (
		req *http.Request
		err error
	)

	if strings.EqualFold(src.Params.Method, http.MethodPost) {
		body := map[string]any{
			"limit":      pageSize,
			"offset":     page * pageSize,
			"searchText": src.Params.SearchText,
		}
		payload, merr := json.Marshal(body)
		if merr != nil {
			return nil, false, fmt.Errorf("marshal page request: %w", merr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, src.Endpoint, bytes.NewReader(payload))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		pageURL := src.Endpoint
		if src.Params.PageParam != "" {
			step := src.Params.Step
			if step <= 0 {
				step = 1
			}
			val := page + 1
			if step > 1 {
				val = page * step
			}
			pageURL = setQueryParam(src.Endpoint, src.Params.PageParam, strconv.Itoa(val))
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	}
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("http %s: %w", req.Method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, fmt.Errorf("json unmarshal: %w", err)
	}

	fields := src.Params.Fields
	items := lookupSlice(payload, firstNonEmpty(fields.Items, "jobs"))

	postings := make([]RawPosting, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		p := RawPosting{
			Title:     lookupString(item, firstNonEmpty(fields.Title, "title")),
			Location:  lookupString(item, firstNonEmpty(fields.Location, "location.name")),
			DetailURL: lookupString(item, firstNonEmpty(fields.URL, "absolute_url")),
			ReqID:     lookupString(item, firstNonEmpty(fields.ReqID, "id")),
			PostedAt:  lookupString(item, firstNonEmpty(fields.Posted, "updated_at")),
		}
		if p.Title == "" && p.DetailURL == "" {
			continue
		}
		p.DetailURL = resolveAgainst(src.Endpoint, p.DetailURL)
		postings = append(postings, p)
	}

	hasMore := true
	if fields.HasMore != "" {
		if more, ok := lookup(payload, fields.HasMore).(bool); ok {
			hasMore = more
		}
	}
	return postings, hasMore, nil
}

// lookup walks a dotted path through nested JSON objects. Missing keys
// yield nil rather than a crash. A list met mid-path is returned as is
// so lookupString can fold location-object lists.
func lookup(m map[string]any, path string) any {
	var cur any = m
	for _, key := range strings.Split(path, ".") {
		if _, isList := cur.([]any); isList {
			return cur
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = obj[key]
		if !ok {
			return nil
		}
	}
	return cur
}

func lookupSlice(m map[string]any, path string) []any {
	if items, ok := lookup(m, path).([]any); ok {
		return items
	}
	return nil
}

func lookupString(m map[string]any, path string) string {
	switch v := lookup(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		// Some boards return a list of location objects.
		var parts []string
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				if name, ok := obj["name"].(string); ok && name != "" {
					parts = append(parts, name)
				}
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveAgainst absolutizes href against the endpoint's host when the
// API returns relative paths (Workday externalPath).
func resolveAgainst(endpoint, href string) string {
	if href == "" || strings.Contains(href, "://") {
		return href
	}
	base, err := url.Parse(endpoint)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// setQueryParam returns rawURL with the given query parameter set,
// replacing any existing value.
func setQueryParam(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		return rawURL + sep + key + "=" + value
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// Package canonical turns ephemeral connector output into the persisted
// posting shape: a stable identity key, a parsed posting date, an
// inferred experience range, and the derived country flag.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jobscoutbot/jobscout/internal/connector"
	"github.com/jobscoutbot/jobscout/internal/entity"
	"github.com/jobscoutbot/jobscout/internal/region"
)

// Ordered list of accepted posted-date layouts. First parse wins.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05-0700",
	"2 Jan 2006",
	"Jan 2, 2006",
}

var (
	expRangeRe  = regexp.MustCompile(`(\d{1,2})\s*(?:-|–|\bto\b)\s*(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`)
	expSingleRe = regexp.MustCompile(`(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`)
	remoteRe    = regexp.MustCompile(`(?i)\bremote\b`)
)

const maxTitleLen = 255

// Canonicalize derives the persisted record for one raw posting. It is a
// pure function over its inputs; the gate supplies the region verdict.
func Canonicalize(companyID int64, raw connector.RawPosting, gate *region.Gate) entity.JobPosting {
	title := strings.TrimSpace(raw.Title)
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}
	location := strings.TrimSpace(raw.Location)

	p := entity.JobPosting{
		CompanyID:    companyID,
		Title:        title,
		CanonicalKey: Key(raw),
		Remote:       remoteRe.MatchString(raw.Location) || remoteRe.MatchString(raw.Title),
	}

	if u := strings.TrimSpace(raw.DetailURL); u != "" {
		p.ApplyURL = &u
	}
	if location != "" {
		p.LocationCity = &location
	}
	if d := strings.TrimSpace(raw.Description); d != "" {
		p.Description = &d
	}
	if r := strings.TrimSpace(raw.ReqID); r != "" {
		p.ReqID = &r
	}
	if ts := ParseDate(raw.PostedAt); ts != nil {
		p.PostedAt = ts
	}

	minExp, maxExp := ExperienceRange(raw.Title + " " + raw.Description)
	p.MinExp = minExp
	p.MaxExp = maxExp

	if gate.Admits(raw.Location, raw.DetailURL) {
		country := "India"
		p.LocationCountry = &country
	}

	return p
}

// Key derives the deduplication identity for a raw posting. The external
// requisition id wins when present; otherwise the key is a hash over the
// normalized title, apply URL and location, so incidental whitespace or
// casing differences collapse to one identity.
func Key(raw connector.RawPosting) string {
	if req := normalize(raw.ReqID); req != "" {
		return "req:" + req
	}
	sum := sha256.Sum256([]byte(normalize(raw.Title) + "::" + normalize(raw.DetailURL) + "::" + normalize(raw.Location)))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ParseDate attempts each accepted layout in order. Unparseable input
// yields nil, never an error.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}

// ExperienceRange scans free text for "N years"/"N-M yrs" tokens and
// returns the smallest and largest numbers seen. No matches yields
// (nil, nil).
func ExperienceRange(text string) (*int, *int) {
	lower := strings.ToLower(text)

	var values []int
	for _, m := range expRangeRe.FindAllStringSubmatch(lower, -1) {
		if lo, err := strconv.Atoi(m[1]); err == nil {
			values = append(values, lo)
		}
		if hi, err := strconv.Atoi(m[2]); err == nil {
			values = append(values, hi)
		}
	}
	for _, m := range expSingleRe.FindAllStringSubmatch(lower, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			values = append(values, n)
		}
	}
	if len(values) == 0 {
		return nil, nil
	}

	minExp, maxExp := values[0], values[0]
	for _, v := range values[1:] {
		if v < minExp {
			minExp = v
		}
		if v > maxExp {
			maxExp = v
		}
	}
	return &minExp, &maxExp
}

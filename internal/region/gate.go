// Package region implements the admission filter that restricts
// ingestion to postings evidenced as being in India. The policy is
// strict: absent evidence means reject, so false negatives are possible
// but false positives are not.
package region

import (
	"net/url"
	"regexp"
	"strings"
)

// Phrases that mark a posting as India-based regardless of city names.
var indiaPhrases = []string{
	"india", "pan india", "remote - india", "remote—india", "remote/india",
	"remote in india", "across india", "multiple locations - india",
	"multiple locations in india", "anywhere in india",
}

var cities = []string{
	"Mumbai", "Bombay", "Navi Mumbai", "Thane",
	"Bengaluru", "Bangalore",
	"Pune", "Hyderabad", "Chennai", "Kolkata",
	"New Delhi", "Delhi", "NCR", "Gurugram", "Gurgaon", "Noida", "Greater Noida",
	"Ahmedabad", "Vadodara", "Surat", "Indore", "Jaipur", "Nagpur",
	"Mysuru", "Mysore", "Kochi", "Cochin", "Coimbatore",
	"Trivandrum", "Thiruvananthapuram", "Visakhapatnam", "Vizag",
	"Gandhinagar", "Mohali",
}

var states = []string{
	"Maharashtra", "Karnataka", "Telangana", "Tamil Nadu", "Uttar Pradesh",
	"Haryana", "West Bengal", "Delhi", "Gujarat", "Kerala", "Rajasthan",
	"Andhra Pradesh", "Madhya Pradesh", "Punjab", "Odisha", "Bihar",
}

var (
	gazetteerRe   = compileWordAlternation(append(append([]string{}, cities...), states...))
	countryCodeRe = regexp.MustCompile(`\b(IN|IND)\b`)
	urlIndiaRe    = regexp.MustCompile(`(?i)\bindia\b`)
)

func compileWordAlternation(words []string) *regexp.Regexp {
	escaped := make([]string, 0, len(words))
	for _, w := range words {
		escaped = append(escaped, regexp.QuoteMeta(w))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// Gate decides whether a posting's location evidence admits it.
type Gate struct {
	// DefaultAdmit flips the outcome when neither the location text nor
	// the URL carries any evidence. Off by default.
	DefaultAdmit bool
}

// New returns a strict gate. Use NewWithDefaultAdmit for sources whose
// pages never expose a location.
func New() *Gate {
	return &Gate{}
}

// NewWithDefaultAdmit returns a gate that admits postings with no
// location evidence at all instead of rejecting them.
func NewWithDefaultAdmit() *Gate {
	return &Gate{DefaultAdmit: true}
}

// Admits reports whether the free-text location or the detail URL
// affirmatively places the posting in India. Evidence is checked in
// order; any positive match admits.
func (g *Gate) Admits(location, detailURL string) bool {
	loc := strings.TrimSpace(location)
	if loc != "" {
		lower := strings.ToLower(loc)
		for _, phrase := range indiaPhrases {
			if strings.Contains(lower, phrase) {
				return true
			}
		}
		if strings.HasPrefix(lower, "in-") {
			return true
		}
		if countryCodeRe.MatchString(loc) {
			return true
		}
		if gazetteerRe.MatchString(loc) {
			return true
		}
	}

	if urlImpliesIndia(detailURL) {
		return true
	}

	if loc == "" && strings.TrimSpace(detailURL) == "" {
		return g.DefaultAdmit
	}
	// Evidence existed but none of it matched.
	if g.DefaultAdmit && loc == "" {
		return true
	}
	return false
}

// urlImpliesIndia checks the detail URL's query parameters and path
// segments for the country name.
func urlImpliesIndia(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	for _, vals := range u.Query() {
		for _, v := range vals {
			if strings.Contains(strings.ToLower(v), "india") {
				return true
			}
		}
	}
	return urlIndiaRe.MatchString(u.Path)
}

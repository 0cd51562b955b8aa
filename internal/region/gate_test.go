package region

import "testing"

func TestGate_Admits(t *testing.T) {
	gate := New()

	cases := []struct {
		name     string
		location string
		url      string
		want     bool
	}{
		{"explicit country", "Bengaluru, India", "", true},
		{"phrase match", "Remote - India", "", true},
		{"city gazetteer", "Mumbai", "", true},
		{"state gazetteer", "Anywhere in Karnataka", "", true},
		{"iso prefix", "IN-Mumbai", "", true},
		{"bare country code", "Chandigarh, IN", "", true},
		{"ind token", "Hyderabad, IND", "", true},
		{"url query evidence", "", "https://x.com/jobs?country=India", true},
		{"url path evidence", "", "https://x.com/careers/india/analyst-123", true},
		{"foreign city", "London", "", false},
		{"foreign url only", "", "https://x.com/jobs?country=US", false},
		{"empty everything", "", "", false},
		{"lowercase in as word is not evidence", "Engineer in Test, London", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := gate.Admits(tc.location, tc.url); got != tc.want {
				t.Fatalf("Admits(%q, %q)=%v, want %v", tc.location, tc.url, got, tc.want)
			}
		})
	}
}

func TestGate_StrictRejectOnAbsentEvidence(t *testing.T) {
	gate := New()
	if gate.Admits("", "https://example.com/jobs/1234") {
		t.Fatalf("expected reject when no evidence is present anywhere")
	}
}

func TestGate_DefaultAdmit(t *testing.T) {
	gate := NewWithDefaultAdmit()

	if !gate.Admits("", "") {
		t.Fatalf("default-admit gate should admit on absent evidence")
	}
	if !gate.Admits("", "https://example.com/jobs/1") {
		t.Fatalf("default-admit gate should admit when location is missing")
	}
	// Affirmative foreign evidence still loses to nothing: the flag only
	// covers the no-location case, location text that fails to match is
	// still a reject.
	if gate.Admits("London, UK", "") {
		t.Fatalf("default-admit gate must not admit unmatched location text")
	}
}

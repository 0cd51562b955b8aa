package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	return path
}

func TestLoadSources(t *testing.T) {
	path := writeRegistry(t, `
sources:
  - company: Acme Analytics
    kind: PAGED_API
    endpoint: https://acme.example/api/jobs
    comp_gate: probation
    params:
      page_size: 50
      fields:
        items: data.jobs
        location: location.name
  - company: Borealis Labs
    kind: static_html
    endpoint: https://borealis.example/careers
    active: false
    params:
      india_only: false
      spec:
        card: div.job-card
`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}

	first := sources[0]
	if first.Kind != KindPagedAPI {
		t.Fatalf("expected kind normalised to %q, got %q", KindPagedAPI, first.Kind)
	}
	if first.CompGate != "probation" || !first.IsActive() {
		t.Fatalf("unexpected first source: %+v", first)
	}
	if first.Params.PageSize != 50 || first.Params.Fields.Items != "data.jobs" {
		t.Fatalf("params not decoded: %+v", first.Params)
	}
	if !first.Params.RegionOnly() {
		t.Fatalf("region filter should default to on")
	}

	second := sources[1]
	if second.IsActive() {
		t.Fatalf("expected second source inactive")
	}
	if second.CompGate != "pass" {
		t.Fatalf("expected comp gate default, got %q", second.CompGate)
	}
	if second.Params.RegionOnly() {
		t.Fatalf("india_only false should disable the region filter")
	}
	if second.Params.Spec.Card != "div.job-card" {
		t.Fatalf("extract spec not decoded: %+v", second.Params.Spec)
	}
}

func TestLoadSources_Validation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing company", "sources:\n  - kind: paged_api\n    endpoint: https://x.example\n"},
		{"missing endpoint", "sources:\n  - company: Acme\n    kind: paged_api\n"},
		{"unknown kind", "sources:\n  - company: Acme\n    kind: rss\n    endpoint: https://x.example\n"},
		{"unknown comp_gate", "sources:\n  - company: Acme\n    kind: paged_api\n    endpoint: https://x.example\n    comp_gate: borderline\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeRegistry(t, tc.content)
			if _, err := LoadSources(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadSources_MissingFile(t *testing.T) {
	if _, err := LoadSources(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

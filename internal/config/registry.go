package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/jobscoutbot/jobscout/internal/entity"
)

// Connector kinds accepted in the source registry.
const (
	KindPagedAPI     = "paged_api"
	KindStaticHTML   = "static_html"
	KindRenderedPage = "rendered_page"
)

// ExtractSpec is the declarative card-extraction spec shared by the
// static-HTML and rendered-page connectors. Only Card is mandatory;
// missing sub-selectors fall back to the card's first anchor.
type ExtractSpec struct {
	Card     string `mapstructure:"card"`
	Title    string `mapstructure:"title"`
	Link     string `mapstructure:"link"`
	Location string `mapstructure:"location"`
	Posted   string `mapstructure:"posted"`
}

// FieldMap names the JSON keys the paged-API connector reads from each
// item. Keys may be dotted paths ("location.name"). Empty values fall
// back to common defaults.
type FieldMap struct {
	Items    string `mapstructure:"items"`
	Title    string `mapstructure:"title"`
	Location string `mapstructure:"location"`
	URL      string `mapstructure:"url"`
	ReqID    string `mapstructure:"req_id"`
	Posted   string `mapstructure:"posted"`
	HasMore  string `mapstructure:"has_more"`
}

// SourceParams is the free-form parameter map attached to a source row.
type SourceParams struct {
	Method       string      `mapstructure:"method"`
	PageSize     int         `mapstructure:"page_size"`
	MaxPages     int         `mapstructure:"max_pages"`
	PageParam    string      `mapstructure:"page_param"`
	Step         int         `mapstructure:"step"`
	SearchText   string      `mapstructure:"search_text"`
	IndiaOnly    *bool       `mapstructure:"india_only"`
	DefaultAdmit bool        `mapstructure:"default_admit"`
	ForceIndia   bool        `mapstructure:"force_india"`
	WaitFor      string      `mapstructure:"wait_for"`
	NextSelector string      `mapstructure:"next_selector"`
	Scroll       *bool       `mapstructure:"scroll"`
	Spec         ExtractSpec `mapstructure:"spec"`
	Fields       FieldMap    `mapstructure:"fields"`
}

// RegionOnly reports whether postings from this source must pass the
// region gate. Defaults to true when the registry omits the flag.
func (p SourceParams) RegionOnly() bool {
	if p.IndiaOnly == nil {
		return true
	}
	return *p.IndiaOnly
}

// DoScroll reports whether the rendered-page connector should scroll to
// trigger lazy-loaded content. Defaults to true.
func (p SourceParams) DoScroll() bool {
	if p.Scroll == nil {
		return true
	}
	return *p.Scroll
}

// Source is one row of the source registry.
type Source struct {
	Company  string       `mapstructure:"company"`
	Kind     string       `mapstructure:"kind"`
	Endpoint string       `mapstructure:"endpoint"`
	CompGate string       `mapstructure:"comp_gate"`
	Active   *bool        `mapstructure:"active"`
	Params   SourceParams `mapstructure:"params"`
}

// IsActive reports whether the source should be ingested. Sources are
// active unless the registry says otherwise.
func (s Source) IsActive() bool {
	return s.Active == nil || *s.Active
}

// LoadSources reads the YAML source registry at path. Registry order is
// preserved; the orchestrator processes sources in the order listed.
func LoadSources(path string) ([]Source, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read source registry: %w", err)
	}

	var registry struct {
		Sources []Source `mapstructure:"sources"`
	}
	if err := v.Unmarshal(&registry); err != nil {
		return nil, fmt.Errorf("parse source registry: %w", err)
	}

	var out []Source
	for i, s := range registry.Sources {
		s.Company = strings.TrimSpace(s.Company)
		s.Kind = strings.TrimSpace(strings.ToLower(s.Kind))
		s.Endpoint = strings.TrimSpace(s.Endpoint)
		if s.Company == "" {
			return nil, fmt.Errorf("source %d: company is required", i)
		}
		if s.Endpoint == "" {
			return nil, fmt.Errorf("source %d (%s): endpoint is required", i, s.Company)
		}
		switch s.Kind {
		case KindPagedAPI, KindStaticHTML, KindRenderedPage:
		default:
			return nil, fmt.Errorf("source %d (%s): unknown kind %q", i, s.Company, s.Kind)
		}
		s.CompGate = strings.TrimSpace(strings.ToLower(s.CompGate))
		switch s.CompGate {
		case "":
			s.CompGate = entity.CompGatePass
		case entity.CompGatePass, entity.CompGateProbation:
		default:
			return nil, fmt.Errorf("source %d (%s): unknown comp_gate %q", i, s.Company, s.CompGate)
		}
		out = append(out, s)
	}

	return out, nil
}

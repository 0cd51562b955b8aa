package scoring

import (
	"math"
	"regexp"
	"strings"
	"time"
)

const (
	categoryTitle      = "title_match"
	categorySkills     = "skills"
	categoryExperience = "experience_fit"
	categoryGeo        = "geography"
	categoryRecency    = "recency"
	categorySeniority  = "seniority_penalty"
)

type titleWeight struct {
	pattern *regexp.Regexp
	weight  int
}

var titleWeights = []titleWeight{
	{regexp.MustCompile(`\bquant(itative)?\b`), 25},
	{regexp.MustCompile(`machine learning|ml engineer`), 22},
	{regexp.MustCompile(`\bdata scientist\b`), 20},
	{regexp.MustCompile(`\bdata engineer\b|data platform`), 18},
	{regexp.MustCompile(`risk (analytics|model|management)|model validation|model risk`), 16},
	{regexp.MustCompile(`analytics|business intelligence|bi `), 12},
}

var skillTokens = []string{
	"python", "pandas", "numpy", "scikit", "sklearn", "pytorch", "tensorflow", "sql",
	"pyspark", "spark", "aws", "gcp", "azure", "airflow", "kafka", "hive", "time series",
	"feature engineering", "nlp", "llm", "xgboost", "catboost", "statistics",
	"probability", "regression", "classification", "clustering",
}

var (
	topCities       = []string{"mumbai", "bengaluru", "bangalore", "hyderabad"}
	secondaryCities = []string{"pune", "chennai", "gurugram", "gurgaon", "noida", "india"}

	seniorKeywords = []string{"manager", "lead", "vp", "director", "principal", "head", "senior"}
)

// Overridable for deterministic recency tests.
var now = time.Now

// PostingFeatures captures the posting signals used for scoring.
type PostingFeatures struct {
	Title        string
	Description  string
	LocationCity string
	Remote       bool
	MinExp       *int
	MaxExp       *int
	PostedAt     *time.Time
	CompGatePass bool
}

// ScoreResult reports the aggregate relevance score, the per-category
// breakdown, and the compensation prediction.
type ScoreResult struct {
	Total            int
	Breakdown        map[string]int
	CTCPredictedPass bool
}

// ComputeScore evaluates the provided features and returns the score
// breakdown. The total is clamped to [0, 100].
func ComputeScore(input PostingFeatures) ScoreResult {
	breakdown := map[string]int{
		categoryTitle:      scoreTitleMatch(input.Title),
		categorySkills:     scoreSkills(input.Description),
		categoryExperience: scoreExperienceFit(input.MinExp, input.MaxExp),
		categoryGeo:        scoreGeography(input.LocationCity, input.Remote),
		categoryRecency:    scoreRecency(input.PostedAt),
		categorySeniority:  -seniorityPenalty(input.Title),
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return ScoreResult{
		Total:            total,
		Breakdown:        breakdown,
		CTCPredictedPass: input.CompGatePass && !strings.Contains(strings.ToLower(input.Title), "intern"),
	}
}

func scoreTitleMatch(title string) int {
	t := strings.ToLower(title)
	score := 0
	for _, tw := range titleWeights {
		if tw.pattern.MatchString(t) && tw.weight > score {
			score = tw.weight
		}
	}
	if score > 25 {
		return 25
	}
	return score
}

func scoreSkills(description string) int {
	d := strings.ToLower(description)
	hits := 0
	for _, token := range skillTokens {
		if strings.Contains(d, token) {
			hits++
		}
	}
	score := int(8 * math.Log2(float64(1+hits)))
	if score > 30 {
		return 30
	}
	return score
}

// scoreExperienceFit favors roles overlapping the 1-3 year band.
func scoreExperienceFit(minExp, maxExp *int) int {
	if minExp == nil && maxExp == nil {
		return 6
	}
	lo, hi := 0, 99
	if minExp != nil {
		lo = *minExp
	}
	if maxExp != nil {
		hi = *maxExp
	}
	if lo <= 3 && hi >= 1 {
		return 10
	}
	if lo <= 4 && hi >= 0 {
		return 6
	}
	return 0
}

func scoreGeography(location string, remote bool) int {
	if remote {
		return 20
	}
	if location == "" {
		return 8
	}
	s := strings.ToLower(location)
	if containsAny(s, topCities) {
		return 18
	}
	if containsAny(s, secondaryCities) {
		return 14
	}
	return 4
}

func scoreRecency(postedAt *time.Time) int {
	if postedAt == nil {
		return 5
	}
	days := int(now().Sub(*postedAt).Hours() / 24)
	switch {
	case days <= 7:
		return 10
	case days <= 14:
		return 8
	case days <= 30:
		return 6
	default:
		return 2
	}
}

func seniorityPenalty(title string) int {
	t := strings.ToLower(title)
	if containsAny(t, seniorKeywords) {
		return 8
	}
	if strings.Contains(t, "intern") || strings.Contains(t, "trainee") {
		return 12
	}
	return 0
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

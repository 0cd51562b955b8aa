package scoring

import (
	"testing"
	"time"
)

func fixedNow(t *testing.T) {
	t.Helper()
	prev := now
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return base }
	t.Cleanup(func() { now = prev })
}

func iv(n int) *int { return &n }

func tsDaysAgo(days int) *time.Time {
	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -days)
	return &ts
}

func TestComputeScore_StrongCandidate(t *testing.T) {
	fixedNow(t)

	result := ComputeScore(PostingFeatures{
		Title:        "Quantitative Researcher",
		Description:  "python sql pytorch statistics regression time series kafka spark",
		LocationCity: "Mumbai",
		Remote:       false,
		MinExp:       iv(1),
		MaxExp:       iv(3),
		PostedAt:     tsDaysAgo(2),
		CompGatePass: true,
	})

	if result.Breakdown[categoryTitle] != 25 {
		t.Fatalf("expected top title weight 25, got %d", result.Breakdown[categoryTitle])
	}
	if result.Breakdown[categoryExperience] != 10 {
		t.Fatalf("expected perfect experience fit 10, got %d", result.Breakdown[categoryExperience])
	}
	if result.Breakdown[categoryGeo] != 18 {
		t.Fatalf("expected top-tier city 18, got %d", result.Breakdown[categoryGeo])
	}
	if result.Breakdown[categoryRecency] != 10 {
		t.Fatalf("expected fresh posting 10, got %d", result.Breakdown[categoryRecency])
	}
	if !result.CTCPredictedPass {
		t.Fatalf("pass-gate company with non-intern title should predict pass")
	}
	if result.Total < 80 {
		t.Fatalf("strong candidate should clear 80, got %d", result.Total)
	}
}

func TestComputeScore_TitleWeights(t *testing.T) {
	cases := []struct {
		title string
		want  int
	}{
		{"Quant Developer", 25},
		{"Machine Learning Engineer", 22},
		{"Data Scientist II", 20},
		{"Data Engineer", 18},
		{"Model Risk Analyst", 16},
		{"Business Intelligence Developer", 12},
		{"Frontend Developer", 0},
		{"Quant Data Scientist", 25}, // highest single weight wins, no stacking
	}
	for _, tc := range cases {
		got := scoreTitleMatch(tc.title)
		if got != tc.want {
			t.Fatalf("scoreTitleMatch(%q) = %d, want %d", tc.title, got, tc.want)
		}
	}
}

func TestScoreSkills_LogCurveAndCap(t *testing.T) {
	cases := []struct {
		desc string
		want int
	}{
		{"", 0},
		{"python", 8},                        // 8*log2(2)
		{"python sql pandas", 16},            // 8*log2(4)
		{"python sql pandas numpy pytorch tensorflow spark", 24},
		{"python pandas numpy scikit sklearn pytorch tensorflow sql pyspark spark aws gcp azure airflow kafka hive nlp llm xgboost catboost statistics probability regression classification clustering", 30},
	}
	for _, tc := range cases {
		if got := scoreSkills(tc.desc); got != tc.want {
			t.Fatalf("scoreSkills(%q) = %d, want %d", tc.desc, got, tc.want)
		}
	}
}

func TestScoreExperienceFit(t *testing.T) {
	cases := []struct {
		name     string
		min, max *int
		want     int
	}{
		{"unknown", nil, nil, 6},
		{"overlaps band", iv(1), iv(3), 10},
		{"starts inside band", iv(2), iv(5), 10},
		{"open-ended junior", iv(0), nil, 10},
		{"borderline", iv(4), iv(8), 6},
		{"senior only", iv(7), iv(12), 0},
	}
	for _, tc := range cases {
		if got := scoreExperienceFit(tc.min, tc.max); got != tc.want {
			t.Fatalf("%s: scoreExperienceFit = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestScoreGeography(t *testing.T) {
	cases := []struct {
		location string
		remote   bool
		want     int
	}{
		{"anywhere", true, 20},
		{"", false, 8},
		{"Bengaluru, Karnataka", false, 18},
		{"Hyderabad", false, 18},
		{"Pune", false, 14},
		{"Gurgaon, India", false, 14},
		{"London", false, 4},
	}
	for _, tc := range cases {
		if got := scoreGeography(tc.location, tc.remote); got != tc.want {
			t.Fatalf("scoreGeography(%q, %v) = %d, want %d", tc.location, tc.remote, got, tc.want)
		}
	}
}

func TestScoreRecency(t *testing.T) {
	fixedNow(t)

	cases := []struct {
		posted *time.Time
		want   int
	}{
		{nil, 5},
		{tsDaysAgo(3), 10},
		{tsDaysAgo(10), 8},
		{tsDaysAgo(25), 6},
		{tsDaysAgo(90), 2},
	}
	for _, tc := range cases {
		if got := scoreRecency(tc.posted); got != tc.want {
			t.Fatalf("scoreRecency(%v) = %d, want %d", tc.posted, got, tc.want)
		}
	}
}

func TestSeniorityPenaltyAndClamp(t *testing.T) {
	if p := seniorityPenalty("Senior Data Engineer"); p != 8 {
		t.Fatalf("senior title penalty = %d, want 8", p)
	}
	if p := seniorityPenalty("Data Science Intern"); p != 12 {
		t.Fatalf("intern penalty = %d, want 12", p)
	}
	if p := seniorityPenalty("Data Engineer"); p != 0 {
		t.Fatalf("plain title penalty = %d, want 0", p)
	}

	result := ComputeScore(PostingFeatures{Title: "Receptionist Intern", LocationCity: "London"})
	if result.Total < 0 {
		t.Fatalf("total must not go below zero, got %d", result.Total)
	}
}

func TestCTCPrediction(t *testing.T) {
	pass := ComputeScore(PostingFeatures{Title: "Data Engineer", CompGatePass: true})
	if !pass.CTCPredictedPass {
		t.Fatalf("pass-gate company should predict pass")
	}

	intern := ComputeScore(PostingFeatures{Title: "Data Engineering Intern", CompGatePass: true})
	if intern.CTCPredictedPass {
		t.Fatalf("intern roles never predict pass")
	}

	probation := ComputeScore(PostingFeatures{Title: "Data Engineer", CompGatePass: false})
	if probation.CTCPredictedPass {
		t.Fatalf("probation companies never predict pass")
	}
}

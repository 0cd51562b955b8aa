package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobscoutbot/jobscout/internal/config"
	"github.com/jobscoutbot/jobscout/internal/dto"
	"github.com/jobscoutbot/jobscout/internal/entity"
)

type fakeIngester struct {
	mu   sync.Mutex
	runs int
	err  error
}

func (f *fakeIngester) Run(ctx context.Context, sources []config.Source) (*entity.IngestRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	if f.err != nil {
		return nil, f.err
	}
	return &entity.IngestRun{ID: uuid.New(), Status: entity.RunStatusCompleted, SourcesTotal: len(sources)}, nil
}

func (f *fakeIngester) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

type fakeScorer struct {
	mu     sync.Mutex
	sweeps int
}

func (f *fakeScorer) ScoreAll(ctx context.Context) (dto.ScoreSweepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	return dto.ScoreSweepResult{}, nil
}

func TestScheduler_EmptySpecDisables(t *testing.T) {
	s := New(&fakeIngester{}, &fakeScorer{}, nil, "", zap.NewNop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New(&fakeIngester{}, &fakeScorer{}, nil, "not a cron spec", zap.NewNop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestScheduler_FirstCycleRunsOnStart(t *testing.T) {
	ingester := &fakeIngester{}
	s := New(ingester, &fakeScorer{}, []config.Source{{Company: "Acme"}}, "@every 1h", zap.NewNop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for ingester.runCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected an ingest run shortly after Start")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_CycleRunsIngestThenScore(t *testing.T) {
	ingester := &fakeIngester{}
	scorer := &fakeScorer{}
	s := New(ingester, scorer, []config.Source{{Company: "Acme"}}, "@every 1h", zap.NewNop())

	s.runCycle(context.Background())

	if ingester.runs != 1 {
		t.Fatalf("expected one ingest run, got %d", ingester.runs)
	}
	if scorer.sweeps != 1 {
		t.Fatalf("expected one scoring sweep, got %d", scorer.sweeps)
	}
}

func TestScheduler_IngestFailureSkipsScoring(t *testing.T) {
	ingester := &fakeIngester{err: errors.New("db down")}
	scorer := &fakeScorer{}
	s := New(ingester, scorer, nil, "@every 1h", zap.NewNop())

	s.runCycle(context.Background())

	if scorer.sweeps != 0 {
		t.Fatalf("expected scoring skipped after ingest failure, got %d sweeps", scorer.sweeps)
	}
}

// Package ingest runs the source registry through the connectors and
// reconciles the results into the store. One failing source never stops
// the run; its failure is recorded and the remaining sources proceed.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jobscoutbot/jobscout/internal/canonical"
	"github.com/jobscoutbot/jobscout/internal/config"
	"github.com/jobscoutbot/jobscout/internal/connector"
	"github.com/jobscoutbot/jobscout/internal/entity"
	"github.com/jobscoutbot/jobscout/internal/region"
	"github.com/jobscoutbot/jobscout/internal/repository"
)

type companiesStore interface {
	Upsert(ctx context.Context, company *entity.Company) (int64, error)
}

type postingsStore interface {
	UpsertBatch(ctx context.Context, companyID int64, postings []entity.JobPosting) (repository.UpsertResult, error)
}

type fetchLogStore interface {
	RecordSuccess(ctx context.Context, companyID int64, sourceURL string, itemCount int) error
	RecordError(ctx context.Context, companyID int64, sourceURL string, errText string) error
}

type runsStore interface {
	Create(ctx context.Context, sourcesTotal int) (*entity.IngestRun, error)
	Finish(ctx context.Context, id uuid.UUID, succeeded, failed, upserted int) error
}

// Options tune run concurrency and pacing.
type Options struct {
	Parallelism int
	SourceDelay time.Duration
}

// Orchestrator fans the source registry out over a bounded worker pool.
type Orchestrator struct {
	connectors connector.Set
	companies  companiesStore
	postings   postingsStore
	fetchLog   fetchLogStore
	runs       runsStore
	gate       *region.Gate
	logger     *zap.Logger
	limiter    *rate.Limiter
	retry      retryConfig

	parallelism int

	mu         sync.Mutex
	companyIDs map[string]int64
}

// New wires an orchestrator over the given stores.
func New(
	connectors connector.Set,
	companies companiesStore,
	postings postingsStore,
	fetchLog fetchLogStore,
	runs runsStore,
	logger *zap.Logger,
	opts Options,
) *Orchestrator {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = 3
	}
	delay := opts.SourceDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &Orchestrator{
		connectors:  connectors,
		companies:   companies,
		postings:    postings,
		fetchLog:    fetchLog,
		runs:        runs,
		gate:        region.New(),
		logger:      logger,
		limiter:     rate.NewLimiter(rate.Every(delay), 1),
		retry:       defaultRetry(),
		parallelism: parallelism,
		companyIDs:  map[string]int64{},
	}
}

// Run ingests the active sources synchronously and returns the finished
// run record.
func (o *Orchestrator) Run(ctx context.Context, sources []config.Source) (*entity.IngestRun, error) {
	active := activeSources(sources)
	run, err := o.runs.Create(ctx, len(active))
	if err != nil {
		return nil, err
	}
	o.execute(ctx, run, active)
	return run, nil
}

// Start ingests in the background and returns the open run record
// immediately. The caller polls the run row for progress.
func (o *Orchestrator) Start(ctx context.Context, sources []config.Source) (*entity.IngestRun, error) {
	active := activeSources(sources)
	run, err := o.runs.Create(ctx, len(active))
	if err != nil {
		return nil, err
	}
	snapshot := *run
	go o.execute(context.WithoutCancel(ctx), run, active)
	return &snapshot, nil
}

func (o *Orchestrator) execute(ctx context.Context, run *entity.IngestRun, sources []config.Source) {
	var (
		counters  sync.Mutex
		succeeded int
		failed    int
		upserted  int
	)

	queue := make(chan config.Source)
	var wg sync.WaitGroup
	for i := 0; i < o.parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range queue {
				n, err := o.processSource(ctx, src)
				counters.Lock()
				if err != nil {
					failed++
				} else {
					succeeded++
					upserted += n
				}
				counters.Unlock()
			}
		}()
	}

	// On cancellation the loop stops handing out work; sources never
	// dispatched are reported as skipped, not failed.
	dispatched := 0
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		select {
		case queue <- src:
			dispatched++
		case <-ctx.Done():
		}
	}
	close(queue)
	wg.Wait()
	skipped := len(sources) - dispatched

	run.Status = entity.RunStatusCompleted
	run.SourcesSucceeded = succeeded
	run.SourcesFailed = failed
	run.PostingsUpserted = upserted

	if err := o.runs.Finish(context.WithoutCancel(ctx), run.ID, succeeded, failed, upserted); err != nil {
		o.logger.Error("persist run completion", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
	now := time.Now()
	run.FinishedAt = &now

	o.logger.Info("ingestion run finished",
		zap.String("run_id", run.ID.String()),
		zap.Int("sources_total", run.SourcesTotal),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped),
		zap.Int("postings_upserted", upserted),
	)
}

// processSource ingests one source end to end. Panics from connector
// internals are contained here so a misbehaving site cannot take the
// rest of the run down with it.
func (o *Orchestrator) processSource(ctx context.Context, src config.Source) (total int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source %s panicked: %v", src.Company, r)
			o.logger.Error("source panicked", zap.String("company", src.Company), zap.Any("panic", r))
		}
	}()

	log := o.logger.With(zap.String("company", src.Company), zap.String("kind", src.Kind))

	conn, err := o.connectors.ForKind(src.Kind)
	if err != nil {
		log.Error("unknown source kind", zap.Error(err))
		return 0, err
	}

	companyID, err := o.ensureCompany(ctx, src)
	if err != nil {
		log.Error("ensure company", zap.Error(err))
		return 0, err
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var raws []connector.RawPosting
	fetchErr := o.retry.do(ctx, log, "fetch "+src.Endpoint, func() error {
		var err error
		raws, err = conn.Fetch(ctx, src)
		return err
	})
	if fetchErr != nil {
		if logErr := o.fetchLog.RecordError(ctx, companyID, src.Endpoint, fetchErr.Error()); logErr != nil {
			log.Error("record fetch error", zap.Error(logErr))
		}
		log.Error("fetch failed", zap.Error(fetchErr))
		return 0, fetchErr
	}
	log.Info("fetched", zap.Int("items", len(raws)))

	gate := o.gate
	if src.Params.DefaultAdmit {
		gate = region.NewWithDefaultAdmit()
	}

	var postings []entity.JobPosting
	for _, raw := range raws {
		if src.Params.RegionOnly() && !gate.Admits(raw.Location, raw.DetailURL) {
			continue
		}
		postings = append(postings, canonical.Canonicalize(companyID, raw, gate))
	}

	result, err := o.postings.UpsertBatch(ctx, companyID, postings)
	if err != nil {
		if logErr := o.fetchLog.RecordError(ctx, companyID, src.Endpoint, err.Error()); logErr != nil {
			log.Error("record upsert error", zap.Error(logErr))
		}
		log.Error("upsert failed", zap.Error(err))
		return 0, err
	}

	if err := o.fetchLog.RecordSuccess(ctx, companyID, src.Endpoint, len(raws)); err != nil {
		log.Error("record fetch success", zap.Error(err))
	}

	log.Info("upserted",
		zap.Int("admitted", len(postings)),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
	)
	return result.Total, nil
}

// ensureCompany resolves a source's company id, creating the company on
// first sight. The cache makes repeated runs in one process cheap.
func (o *Orchestrator) ensureCompany(ctx context.Context, src config.Source) (int64, error) {
	o.mu.Lock()
	if id, ok := o.companyIDs[src.Company]; ok {
		o.mu.Unlock()
		return id, nil
	}
	o.mu.Unlock()

	gate := src.CompGate
	if gate == "" {
		gate = entity.CompGatePass
	}
	endpoint := src.Endpoint
	kind := src.Kind
	id, err := o.companies.Upsert(ctx, &entity.Company{
		Name:           src.Company,
		CareersURL:     &endpoint,
		ATSType:        &kind,
		Active:         true,
		CompGateStatus: gate,
	})
	if err != nil {
		return 0, err
	}

	o.mu.Lock()
	o.companyIDs[src.Company] = id
	o.mu.Unlock()
	return id, nil
}

func activeSources(sources []config.Source) []config.Source {
	var active []config.Source
	for _, src := range sources {
		if src.IsActive() {
			active = append(active, src)
		}
	}
	return active
}

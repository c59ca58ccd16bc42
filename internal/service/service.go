// internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"energy_finance/internal/config"
	"energy_finance/internal/domain"
	"energy_finance/internal/finance"
	"energy_finance/internal/repository"
	"energy_finance/internal/spreadsheet"
	"energy_finance/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	statsKey      = "stats:current"
	statsTTL      = 5 * time.Second
	reportEvery   = time.Minute
	cacheSweepGap = time.Minute
)

// Service owns the engine and the stores behind the HTTP API
type Service struct {
	cfg    *config.Config
	engine *finance.Engine

	projects  repository.ProjectRepository
	results   repository.ResultRepository
	schedules repository.ScheduleRepository
	writer    *ScheduleWriter

	evaluations *Cache
	stats       *Cache

	stop      chan struct{}
	closeOnce sync.Once

	// Lock-free statistics
	analysesRun    uint64
	analysesFailed uint64
}

// ImportResult lists the projects created from a spreadsheet and the rows that were rejected
type ImportResult struct {
	Created []domain.ProjectDescription `json:"created"`
	Errors  []spreadsheet.RowError      `json:"errors,omitempty"`
}

// NewService builds the repositories for the connected databases.
// scheduleDB may be nil when no time series store is configured.
func NewService(db config.Database, scheduleDB *config.InfluxDatabase, cfg *config.Config) (*Service, error) {
	var projects repository.ProjectRepository
	var results repository.ResultRepository

	switch db.GetType() {
	case "mongo":
		mongoDB, ok := db.(*config.MongoDatabase)
		if !ok {
			return nil, fmt.Errorf("unexpected database implementation %T", db)
		}
		projects = repository.NewMongoProjectRepo(mongoDB)
		results = repository.NewMongoResultRepo(mongoDB)
	case "memory":
		projects = repository.NewMemoryProjectRepo()
		results = repository.NewMemoryResultRepo()
	default:
		return nil, fmt.Errorf("unsupported database type: %s", db.GetType())
	}

	var schedules repository.ScheduleRepository
	if scheduleDB != nil {
		schedules = repository.NewInfluxScheduleRepo(scheduleDB)
	}

	return New(cfg, projects, results, schedules)
}

// New wires a service from existing repositories. schedules may be nil.
func New(cfg *config.Config, projects repository.ProjectRepository, results repository.ResultRepository, schedules repository.ScheduleRepository) (*Service, error) {
	engine, err := finance.NewEngine(cfg.EngineConfig())
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	svc := &Service{
		cfg:         cfg,
		engine:      engine,
		projects:    projects,
		results:     results,
		schedules:   schedules,
		evaluations: NewCache(cacheSweepGap),
		stats:       NewCache(cacheSweepGap),
		stop:        make(chan struct{}),
	}

	if schedules != nil {
		svc.writer = NewScheduleWriter(schedules, cfg.BatchSize, cfg.FlushEvery())
	}

	go svc.reportStats()

	logger.Infof("Service initialized (DB: %s, schedules: %s, workers: %d, cache TTL: %v)",
		projects.Type(), svc.scheduleStoreType(), cfg.WorkerCount, cfg.CacheTTL)

	return svc, nil
}

// CreateProject validates and stores a new project
func (svc *Service) CreateProject(ctx context.Context, project *domain.ProjectDescription) error {
	if project.Status == "" {
		project.Status = domain.StatusPlanning
	}
	if err := svc.engine.ValidateProject(*project); err != nil {
		return err
	}

	now := time.Now().UTC()
	project.ID = uuid.NewString()
	project.CreatedAt = now
	project.UpdatedAt = now

	if err := svc.projects.Save(ctx, project); err != nil {
		return fmt.Errorf("save project: %w", err)
	}

	svc.stats.Delete(statsKey)
	logger.Debugf("Created project %s (%s)", project.ID, project.Name)
	return nil
}

// GetProject returns one stored project
func (svc *Service) GetProject(ctx context.Context, id string) (*domain.ProjectDescription, error) {
	return svc.projects.Get(ctx, id)
}

// ListProjects returns one page of projects and the total matching the filter
func (svc *Service) ListProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.ProjectDescription, int64, error) {
	projects, err := svc.projects.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	total, err := svc.projects.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	return projects, total, nil
}

// DeleteProject removes a project and its stored results
func (svc *Service) DeleteProject(ctx context.Context, id string) error {
	if err := svc.projects.Delete(ctx, id); err != nil {
		return err
	}
	if err := svc.results.DeleteByProject(ctx, id); err != nil {
		return fmt.Errorf("delete results of %s: %w", id, err)
	}

	svc.stats.Delete(statsKey)
	return nil
}

// Analyze evaluates a stored project and stores the result
func (svc *Service) Analyze(ctx context.Context, projectID string, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	project, err := svc.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ev, err := svc.evaluate(*project, req.Financials, req.Assumptions.Apply(svc.cfg.DefaultAssumptions()))
	if err != nil {
		return nil, err
	}

	result := &domain.AnalysisResult{
		ID:           uuid.NewString(),
		ProjectID:    project.ID,
		Financials:   req.Financials,
		Schedule:     ev.Schedule,
		Metrics:      ev.Metrics,
		CalculatedAt: time.Now().UTC(),
	}

	if err := svc.results.Save(ctx, result); err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}
	if svc.writer != nil {
		svc.writer.AddSchedule(result)
	}

	return result, nil
}

// Calculate evaluates an inline project without storing anything
func (svc *Service) Calculate(req domain.CalculateRequest) (*domain.Evaluation, error) {
	return svc.evaluate(req.Project, req.Financials, req.Assumptions.Apply(svc.cfg.DefaultAssumptions()))
}

// evaluate runs the engine, reusing a cached evaluation for identical inputs
func (svc *Service) evaluate(p domain.ProjectDescription, f domain.Financials, a domain.AssumptionSet) (*domain.Evaluation, error) {
	key := ""
	if svc.cfg.CacheTTL > 0 {
		key = fingerprint(p, f, a)
	}

	if key != "" {
		if cached, found := svc.evaluations.Get(key); found {
			atomic.AddUint64(&svc.analysesRun, 1)
			return cloneEvaluation(cached.(*domain.Evaluation)), nil
		}
	}

	ev, err := svc.engine.Evaluate(p, f, a)
	if err != nil {
		atomic.AddUint64(&svc.analysesFailed, 1)
		return nil, err
	}
	atomic.AddUint64(&svc.analysesRun, 1)

	if key != "" {
		svc.evaluations.Set(key, cloneEvaluation(ev), svc.cfg.CacheTTL)
	}
	return ev, nil
}

// GetLatestResult returns the most recent stored analysis of a project
func (svc *Service) GetLatestResult(ctx context.Context, projectID string) (*domain.AnalysisResult, error) {
	if _, err := svc.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return svc.results.Latest(ctx, projectID)
}

// GetCashFlows returns the schedule of the latest analysis. The time series
// store is preferred; the schedule kept with the result is the fallback.
func (svc *Service) GetCashFlows(ctx context.Context, projectID string) ([]domain.CashFlowRecord, error) {
	result, err := svc.GetLatestResult(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if svc.schedules != nil {
		records, err := svc.schedules.Query(ctx, projectID, result.ID)
		switch {
		case err != nil:
			logger.Warnf("Schedule store query failed for %s, using stored result: %v", projectID, err)
		case len(records) == len(result.Schedule):
			return records, nil
		}
	}

	return result.Schedule, nil
}

// AnalyzeBatch analyzes many projects concurrently. A failing project never
// affects the others; outcomes keep the order of the request.
func (svc *Service) AnalyzeBatch(ctx context.Context, req domain.BatchRequest) []domain.BatchOutcome {
	outcomes := make([]domain.BatchOutcome, len(req.ProjectIDs))
	analysis := domain.AnalysisRequest{Assumptions: req.Assumptions, Financials: req.Financials}

	var g errgroup.Group
	g.SetLimit(svc.cfg.WorkerCount)

	for i, id := range req.ProjectIDs {
		outcomes[i].ProjectID = id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].Error = err
				return nil
			}
			result, err := svc.Analyze(ctx, id, analysis)
			if err != nil {
				outcomes[i].Error = err
				return nil
			}
			outcomes[i].Result = result
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}

// ImportProjects creates a project for every valid row of a CSV or XLSX file
func (svc *Service) ImportProjects(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	parsed, err := spreadsheet.Parse(filename, r)
	if err != nil {
		return nil, err
	}

	out := &ImportResult{
		Created: make([]domain.ProjectDescription, 0, len(parsed.Rows)),
		Errors:  parsed.Errors,
	}

	for _, row := range parsed.Rows {
		project := row.Project
		err := svc.CreateProject(ctx, &project)

		var verr *finance.ValidationError
		switch {
		case err == nil:
			out.Created = append(out.Created, project)
		case errors.As(err, &verr):
			for _, fe := range verr.Errors {
				out.Errors = append(out.Errors, spreadsheet.RowError{Row: row.Row, Column: columnOf(fe.Field), Message: fe.Message})
			}
		default:
			return out, fmt.Errorf("import row %d: %w", row.Row, err)
		}
	}

	logger.Infof("Imported %d projects from %s (%d row errors)", len(out.Created), filename, len(out.Errors))
	return out, nil
}

// columnOf maps a validation field path to its spreadsheet column
func columnOf(field string) string {
	return strings.TrimPrefix(field, "solar.")
}

// GetStats returns current statistics with caching
func (svc *Service) GetStats(ctx context.Context) (*domain.Stats, error) {
	if cached, found := svc.stats.Get(statsKey); found {
		return cached.(*domain.Stats), nil
	}

	total, err := svc.projects.Count(ctx, domain.ProjectFilter{})
	if err != nil {
		return nil, err
	}

	run := atomic.LoadUint64(&svc.analysesRun)
	failed := atomic.LoadUint64(&svc.analysesFailed)

	successRate := 100.0
	if run+failed > 0 {
		successRate = float64(run) / float64(run+failed) * 100
	}

	pending := 0
	if svc.writer != nil {
		pending = svc.writer.Size()
	}

	stats := &domain.Stats{
		Projects:              total,
		AnalysesRun:           run,
		AnalysesFailed:        failed,
		CacheHits:             svc.evaluations.Hits(),
		PendingScheduleWrites: pending,
		SuccessRate:           successRate,
		DatabaseType:          svc.projects.Type(),
		ScheduleStore:         svc.scheduleStoreType(),
	}

	svc.stats.Set(statsKey, stats, statsTTL)
	return stats, nil
}

// WriterStats returns the schedule writer counters, or nil without a schedule store
func (svc *Service) WriterStats() map[string]interface{} {
	if svc.writer == nil {
		return nil
	}
	return svc.writer.Stats()
}

// CacheStats returns the evaluation cache counters
func (svc *Service) CacheStats() map[string]interface{} {
	return svc.evaluations.Stats()
}

// ClearCache drops every cached evaluation
func (svc *Service) ClearCache() {
	svc.evaluations.Clear()
	svc.stats.Clear()
}

func (svc *Service) scheduleStoreType() string {
	if svc.schedules == nil {
		return "none"
	}
	return svc.schedules.Type()
}

// reportStats logs counters periodically
func (svc *Service) reportStats() {
	ticker := time.NewTicker(reportEvery)
	defer ticker.Stop()

	lastRun := uint64(0)
	for {
		select {
		case <-ticker.C:
			run := atomic.LoadUint64(&svc.analysesRun)
			if run == lastRun {
				continue
			}
			pending := 0
			if svc.writer != nil {
				pending = svc.writer.Size()
			}
			logger.Infof("Analyses: %d (+%d) | Failed: %d | Cache hits: %d | Pending schedule points: %d",
				run, run-lastRun,
				atomic.LoadUint64(&svc.analysesFailed),
				svc.evaluations.Hits(),
				pending)
			lastRun = run
		case <-svc.stop:
			return
		}
	}
}

// Close flushes pending schedule writes and stops background work
func (svc *Service) Close() error {
	svc.closeOnce.Do(func() {
		close(svc.stop)
		if svc.writer != nil {
			svc.writer.Close()
		}
		svc.evaluations.Close()
		svc.stats.Close()
	})
	return nil
}

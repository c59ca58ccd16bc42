package repository

import (
	"context"
	"sort"
	"sync"

	"energy_finance/internal/domain"
)

// MemoryProjectRepo implements ProjectRepository in process memory
type MemoryProjectRepo struct {
	mu       sync.RWMutex
	projects map[string]domain.ProjectDescription
}

// NewMemoryProjectRepo creates an empty in-memory project store
func NewMemoryProjectRepo() *MemoryProjectRepo {
	return &MemoryProjectRepo{projects: make(map[string]domain.ProjectDescription)}
}

func (r *MemoryProjectRepo) Save(ctx context.Context, project *domain.ProjectDescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[project.ID] = *project
	return nil
}

func (r *MemoryProjectRepo) Get(ctx context.Context, id string) (*domain.ProjectDescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, ok := r.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &project, nil
}

func (r *MemoryProjectRepo) List(ctx context.Context, filter domain.ProjectFilter) ([]domain.ProjectDescription, error) {
	r.mu.RLock()
	matched := make([]domain.ProjectDescription, 0, len(r.projects))
	for _, p := range r.projects {
		if matchesFilter(p, filter) {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []domain.ProjectDescription{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *MemoryProjectRepo) Count(ctx context.Context, filter domain.ProjectFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, p := range r.projects {
		if matchesFilter(p, filter) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryProjectRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[id]; !ok {
		return ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *MemoryProjectRepo) Type() string {
	return "memory"
}

func matchesFilter(p domain.ProjectDescription, filter domain.ProjectFilter) bool {
	if filter.ProjectType != "" && p.ProjectType != filter.ProjectType {
		return false
	}
	if filter.Status != "" && p.Status != filter.Status {
		return false
	}
	return true
}

// MemoryResultRepo implements ResultRepository in process memory
type MemoryResultRepo struct {
	mu      sync.RWMutex
	results map[string][]domain.AnalysisResult
}

// NewMemoryResultRepo creates an empty in-memory result store
func NewMemoryResultRepo() *MemoryResultRepo {
	return &MemoryResultRepo{results: make(map[string][]domain.AnalysisResult)}
}

func (r *MemoryResultRepo) Save(ctx context.Context, result *domain.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[result.ProjectID] = append(r.results[result.ProjectID], *result)
	return nil
}

func (r *MemoryResultRepo) Latest(ctx context.Context, projectID string) (*domain.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := r.results[projectID]
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	latest := results[0]
	for _, res := range results[1:] {
		if !res.CalculatedAt.Before(latest.CalculatedAt) {
			latest = res
		}
	}
	return &latest, nil
}

func (r *MemoryResultRepo) DeleteByProject(ctx context.Context, projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.results, projectID)
	return nil
}

// MemoryScheduleRepo implements ScheduleRepository in process memory
type MemoryScheduleRepo struct {
	mu     sync.RWMutex
	points map[string][]domain.SchedulePoint
}

// NewMemoryScheduleRepo creates an empty in-memory schedule store
func NewMemoryScheduleRepo() *MemoryScheduleRepo {
	return &MemoryScheduleRepo{points: make(map[string][]domain.SchedulePoint)}
}

func (r *MemoryScheduleRepo) Insert(ctx context.Context, points []domain.SchedulePoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range points {
		key := p.ProjectID + "/" + p.ResultID
		r.points[key] = append(r.points[key], p)
	}
	return nil
}

func (r *MemoryScheduleRepo) Query(ctx context.Context, projectID, resultID string) ([]domain.CashFlowRecord, error) {
	r.mu.RLock()
	points := r.points[projectID+"/"+resultID]
	records := make([]domain.CashFlowRecord, len(points))
	for i, p := range points {
		records[i] = p.Record
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].Year < records[j].Year })
	return records, nil
}

// Len returns the number of stored points
func (r *MemoryScheduleRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, pts := range r.points {
		n += len(pts)
	}
	return n
}

func (r *MemoryScheduleRepo) Type() string {
	return "memory"
}

package repository

import (
	"context"
	"errors"

	"energy_finance/internal/domain"
)

// ErrNotFound is returned when the requested project or result does not exist
var ErrNotFound = errors.New("not found")

// ProjectRepository stores project descriptions
type ProjectRepository interface {
	// Save inserts or replaces a project by ID
	Save(ctx context.Context, project *domain.ProjectDescription) error

	// Get returns one project or ErrNotFound
	Get(ctx context.Context, id string) (*domain.ProjectDescription, error)

	// List returns projects matching filter, newest first
	List(ctx context.Context, filter domain.ProjectFilter) ([]domain.ProjectDescription, error)

	// Count returns number of projects matching filter
	Count(ctx context.Context, filter domain.ProjectFilter) (int64, error)

	// Delete removes a project or returns ErrNotFound
	Delete(ctx context.Context, id string) error

	// Type returns database type
	Type() string
}

// ResultRepository stores analysis results
type ResultRepository interface {
	Save(ctx context.Context, result *domain.AnalysisResult) error

	// Latest returns the most recent result of a project or ErrNotFound
	Latest(ctx context.Context, projectID string) (*domain.AnalysisResult, error)

	// DeleteByProject removes every result of a project
	DeleteByProject(ctx context.Context, projectID string) error
}

// ScheduleRepository stores schedule years as time series points
type ScheduleRepository interface {
	// Insert writes multiple points
	Insert(ctx context.Context, points []domain.SchedulePoint) error

	// Query returns the schedule of one result ordered by year
	Query(ctx context.Context, projectID, resultID string) ([]domain.CashFlowRecord, error)

	// Type returns database type
	Type() string
}

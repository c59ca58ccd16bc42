package repository

import (
	"context"
	"errors"
	"fmt"

	"energy_finance/internal/config"
	"energy_finance/internal/domain"
	"energy_finance/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProjectRepo implements ProjectRepository for MongoDB
type MongoProjectRepo struct {
	col *mongo.Collection
}

// NewMongoProjectRepo creates a project repository on the projects collection
func NewMongoProjectRepo(db *config.MongoDatabase) *MongoProjectRepo {
	return &MongoProjectRepo{col: db.Projects}
}

func (r *MongoProjectRepo) Save(ctx context.Context, project *domain.ProjectDescription) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": project.ID}, project, opts); err != nil {
		logger.Errorf("MongoDB save project %s failed: %v", project.ID, err)
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func (r *MongoProjectRepo) Get(ctx context.Context, id string) (*domain.ProjectDescription, error) {
	var project domain.ProjectDescription
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &project, nil
}

func (r *MongoProjectRepo) List(ctx context.Context, filter domain.ProjectFilter) ([]domain.ProjectDescription, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})

	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := r.col.Find(ctx, projectQuery(filter), opts)
	if err != nil {
		logger.Errorf("MongoDB project query failed: %v", err)
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer cursor.Close(ctx)

	projects := []domain.ProjectDescription{}
	if err := cursor.All(ctx, &projects); err != nil {
		logger.Errorf("MongoDB cursor decode failed: %v", err)
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	return projects, nil
}

func (r *MongoProjectRepo) Count(ctx context.Context, filter domain.ProjectFilter) (int64, error) {
	count, err := r.col.CountDocuments(ctx, projectQuery(filter))
	if err != nil {
		logger.Errorf("MongoDB count failed: %v", err)
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return count, nil
}

func (r *MongoProjectRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProjectRepo) Type() string {
	return "mongo"
}

func projectQuery(filter domain.ProjectFilter) bson.M {
	query := bson.M{}
	if filter.ProjectType != "" {
		query["project_type"] = filter.ProjectType
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

// MongoResultRepo implements ResultRepository for MongoDB
type MongoResultRepo struct {
	col *mongo.Collection
}

// NewMongoResultRepo creates a result repository on the results collection
func NewMongoResultRepo(db *config.MongoDatabase) *MongoResultRepo {
	return &MongoResultRepo{col: db.Results}
}

func (r *MongoResultRepo) Save(ctx context.Context, result *domain.AnalysisResult) error {
	if _, err := r.col.InsertOne(ctx, result); err != nil {
		logger.Errorf("MongoDB save result for %s failed: %v", result.ProjectID, err)
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (r *MongoResultRepo) Latest(ctx context.Context, projectID string) (*domain.AnalysisResult, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "calculated_at", Value: -1}})

	var result domain.AnalysisResult
	err := r.col.FindOne(ctx, bson.M{"project_id": projectID}, opts).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest result: %w", err)
	}
	return &result, nil
}

func (r *MongoResultRepo) DeleteByProject(ctx context.Context, projectID string) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{"project_id": projectID}); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	return nil
}

package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskStore implements store.TaskStore on the tasks collection.
type TaskStore struct {
	tasks   *mongo.Collection
	users   *mongo.Collection
	logger  *slog.Logger
	timeout time.Duration
}

var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a TaskStore on db.
func NewTaskStore(db *mongo.Database, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		tasks:   db.Collection(TasksCollection),
		users:   db.Collection(UsersCollection),
		logger:  logger.With(slog.String("component", "mongo_task_store")),
		timeout: DefaultOperationTimeout,
	}
}

// Create implements store.TaskStore.Create. The owner must exist.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := task.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	owners, err := s.users.CountDocuments(ctx, bson.M{"_id": task.UserID.String()})
	if err != nil {
		log.Error("failed to look up task owner",
			slog.String("error", err.Error()),
			slog.String("user_id", task.UserID.String()))
		return err
	}
	if owners == 0 {
		return store.NewStoreError("task", "create", "owner does not exist", store.ErrInvalidEntity)
	}

	if _, err := s.tasks.InsertOne(ctx, newTaskDocument(task)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		log.Error("failed to insert task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc taskDocument
	err := s.tasks.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}
	return doc.toDomain()
}

// Update implements store.TaskStore.Update.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc := newTaskDocument(task)
	result, err := s.tasks.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": bson.M{
		"title":       doc.Title,
		"description": doc.Description,
		"completed":   doc.Completed,
		"due_date":    doc.DueDate,
		"no_due_date": doc.NoDueDate,
		"priority":    doc.Priority,
		"tags":        doc.Tags,
		"status":      doc.Status,
		"updated_at":  doc.UpdatedAt,
	}})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", doc.ID))
		return err
	}
	if result.MatchedCount == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// Delete implements store.TaskStore.Delete.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// Find implements store.TaskStore.Find.
func (s *TaskStore) Find(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query, opts := taskQuery(filter)
	cursor, err := s.tasks.Find(ctx, query, opts)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query tasks",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	tasks := make([]*domain.Task, 0, len(docs))
	for _, doc := range docs {
		task, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// SetStatus implements store.TaskStore.SetStatus.
func (s *TaskStore) SetStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidTaskStatus
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{"_id": id.String()}
	if status == domain.TaskStatusOverdue {
		filter["completed"] = false
	}

	var doc taskDocument
	err := s.tasks.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$set": bson.M{"status": string(status), "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if status != domain.TaskStatusOverdue {
				return nil, store.ErrTaskNotFound
			}
			n, countErr := s.tasks.CountDocuments(ctx, bson.M{"_id": id.String()})
			if countErr != nil {
				return nil, countErr
			}
			if n > 0 {
				return nil, domain.ErrOverdueCompleted
			}
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to set task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}
	return doc.toDomain()
}

// CountByStatus implements store.TaskStore.CountByStatus.
func (s *TaskStore) CountByStatus(ctx context.Context, ownerID uuid.UUID) (map[domain.TaskStatus]int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "user_id", Value: ownerID.String()}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := s.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var groups []struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	counts := make(map[domain.TaskStatus]int, len(groups))
	for _, g := range groups {
		counts[domain.TaskStatus(g.Status)] = g.Count
	}
	return counts, nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/platform/logger"
	"github.com/seoforge/seoforge-api/internal/store"
)

// taskTables routes each task type to its table. Table names are fixed at
// compile time, so interpolating them into query strings is safe.
var taskTables = map[domain.TaskType]string{
	domain.TaskTypeSERP:                   "serp_tasks",
	domain.TaskTypeOnPage:                 "onpage_tasks",
	domain.TaskTypeKeywordsForKeywords:    "keywords_for_keywords_tasks",
	domain.TaskTypeKeywordsForSite:        "keywords_for_site_tasks",
	domain.TaskTypeDomainCompetitors:      "domain_competitors_tasks",
	domain.TaskTypeDomainRankOverview:     "domain_rank_overview_tasks",
	domain.TaskTypeContentAnalysisSummary: "content_analysis_summary_tasks",
}

// taskColumns is the column list shared by every per-type task table.
const taskColumns = "id, user_id, status_code, status_message, time, cost, result_count, path, data, params, result, is_ready, created_at"

// PostgresTaskStore implements the store.TaskStore interface using a
// PostgreSQL database as the storage backend. One table per task type;
// the type on the domain.Task routes each operation.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// tableFor resolves the table for a task type.
func tableFor(taskType domain.TaskType) (string, error) {
	table, ok := taskTables[taskType]
	if !ok {
		return "", fmt.Errorf("%w: no table for task type %q", store.ErrInvalidEntity, taskType)
	}
	return table, nil
}

// Create implements store.TaskStore.Create.
// Returns store.ErrTaskExists if the provider id is already persisted,
// store.ErrInvalidEntity if the owning user does not exist, or domain
// validation errors.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return err
	}

	table, err := tableFor(task.Type)
	if err != nil {
		return err
	}

	pathJSON, err := json.Marshal(task.Path)
	if err != nil {
		return fmt.Errorf("failed to encode task path: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, table, taskColumns)

	_, err = s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.StatusCode,
		task.StatusMessage,
		task.Time,
		nullFloat(task.Cost),
		task.ResultCount,
		pathJSON,
		nullJSON(task.Data),
		[]byte(task.Params),
		nullJSON(task.Result),
		task.IsReady,
		task.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("duplicate task id during create",
				slog.String("task_id", task.ID),
				slog.String("task_type", string(task.Type)))
			return store.ErrTaskExists
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, task.UserID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID),
			slog.String("task_type", string(task.Type)))
		return err
	}

	log.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("task_type", string(task.Type)),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetForUser implements store.TaskStore.GetForUser.
// Returns store.ErrTaskNotFound if the row does not exist or belongs to a
// different user; the two cases are deliberately indistinguishable.
func (s *PostgresTaskStore) GetForUser(
	ctx context.Context,
	taskType domain.TaskType,
	id string,
	userID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	table, err := tableFor(taskType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, taskColumns, table)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, userID), taskType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found",
				slog.String("task_id", id),
				slog.String("task_type", string(taskType)))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return nil, err
	}

	return task, nil
}

// ListByUser implements store.TaskStore.ListByUser.
// Returns the user's tasks newest first; an empty slice if there are none.
func (s *PostgresTaskStore) ListByUser(
	ctx context.Context,
	taskType domain.TaskType,
	userID uuid.UUID,
) ([]*domain.Task, error) {
	table, err := tableFor(taskType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, taskColumns, table)

	return s.queryTasks(ctx, taskType, query, userID)
}

// ListInWindow implements store.TaskStore.ListInWindow.
func (s *PostgresTaskStore) ListInWindow(
	ctx context.Context,
	taskType domain.TaskType,
	userID uuid.UUID,
	start, end time.Time,
) ([]*domain.Task, error) {
	table, err := tableFor(taskType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
	`, taskColumns, table)

	return s.queryTasks(ctx, taskType, query, userID, start, end)
}

// MarkReady implements store.TaskStore.MarkReady.
// A missing row reports (false, nil): the id refers to a task created
// outside the tracked flow and is not an error.
func (s *PostgresTaskStore) MarkReady(
	ctx context.Context,
	taskType domain.TaskType,
	id string,
	update store.ReadyUpdate,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	table, err := tableFor(taskType)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET is_ready = TRUE,
		    status_code = $1,
		    status_message = $2,
		    time = COALESCE(NULLIF($3, ''), time),
		    cost = COALESCE($4, cost),
		    result_count = $5
		WHERE id = $6
	`, table)

	result, err := s.db.ExecContext(
		ctx,
		query,
		update.StatusCode,
		update.StatusMessage,
		update.Time,
		nullFloat(update.Cost),
		update.ResultCount,
		id,
	)
	if err != nil {
		log.Error("failed to mark task ready",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if rowsAffected == 0 {
		log.Debug("ready listing mentioned untracked task",
			slog.String("task_id", id),
			slog.String("task_type", string(taskType)))
		return false, nil
	}

	log.Info("task marked ready",
		slog.String("task_id", id),
		slog.String("task_type", string(taskType)))
	return true, nil
}

// SaveResult implements store.TaskStore.SaveResult.
// Returns store.ErrTaskNotFound if the row does not exist.
func (s *PostgresTaskStore) SaveResult(
	ctx context.Context,
	taskType domain.TaskType,
	id string,
	resultBody json.RawMessage,
	update store.ReadyUpdate,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	table, err := tableFor(taskType)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET is_ready = TRUE,
		    result = $1,
		    status_code = $2,
		    status_message = $3,
		    time = $4,
		    cost = COALESCE($5, cost),
		    result_count = $6
		WHERE id = $7
	`, table)

	result, err := s.db.ExecContext(
		ctx,
		query,
		nullJSON(resultBody),
		update.StatusCode,
		update.StatusMessage,
		update.Time,
		nullFloat(update.Cost),
		update.ResultCount,
		id,
	)
	if err != nil {
		log.Error("failed to save task result",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return store.ErrTaskNotFound
	}

	log.Info("task result saved",
		slog.String("task_id", id),
		slog.String("task_type", string(taskType)),
		slog.Int("result_count", update.ResultCount))
	return nil
}

// ListUsersWithPending implements store.TaskStore.ListUsersWithPending.
func (s *PostgresTaskStore) ListUsersWithPending(
	ctx context.Context,
	taskType domain.TaskType,
) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	table, err := tableFor(taskType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT user_id
		FROM %s
		WHERE is_ready = FALSE
	`, table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list users with pending tasks",
			slog.String("error", err.Error()),
			slog.String("task_type", string(taskType)))
		return nil, err
	}
	defer closeRows(rows, log)

	var users []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// DeleteByIDs implements store.TaskStore.DeleteByIDs.
// The user_id predicate scopes the delete to the requesting owner; ids
// belonging to other users are silently unaffected.
func (s *PostgresTaskStore) DeleteByIDs(
	ctx context.Context,
	taskType domain.TaskType,
	userID uuid.UUID,
	ids []string,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(ids) == 0 {
		return 0, nil
	}

	table, err := tableFor(taskType)
	if err != nil {
		return 0, err
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1 AND id IN (%s)
	`, table, strings.Join(placeholders, ", "))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete tasks",
			slog.String("error", err.Error()),
			slog.String("task_type", string(taskType)))
		return 0, err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	log.Info("tasks deleted",
		slog.String("task_type", string(taskType)),
		slog.String("user_id", userID.String()),
		slog.Int64("deleted", deleted))
	return deleted, nil
}

// queryTasks runs a multi-row task query and scans the results.
func (s *PostgresTaskStore) queryTasks(
	ctx context.Context,
	taskType domain.TaskType,
	query string,
	args ...any,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("error", err.Error()),
			slog.String("task_type", string(taskType)))
		return nil, err
	}
	defer closeRows(rows, log)

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows, taskType)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}

	return tasks, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask scans one task row into a domain.Task.
func scanTask(row rowScanner, taskType domain.TaskType) (*domain.Task, error) {
	var task domain.Task
	var cost sql.NullFloat64
	var pathJSON []byte
	var data, params, result []byte

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.StatusCode,
		&task.StatusMessage,
		&task.Time,
		&cost,
		&task.ResultCount,
		&pathJSON,
		&data,
		&params,
		&result,
		&task.IsReady,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Type = taskType
	if cost.Valid {
		task.Cost = &cost.Float64
	}
	if len(pathJSON) > 0 {
		if err := json.Unmarshal(pathJSON, &task.Path); err != nil {
			return nil, fmt.Errorf("failed to decode task path: %w", err)
		}
	}
	task.Data = json.RawMessage(data)
	task.Params = json.RawMessage(params)
	task.Result = json.RawMessage(result)

	return &task, nil
}

// nullFloat converts an optional float into its sql representation.
func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// nullJSON converts an optional raw JSON value into a driver-friendly
// value, mapping empty to NULL.
func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

// closeRows closes rows and logs a close failure, which would otherwise
// be silently dropped in a defer.
func closeRows(rows *sql.Rows, log *slog.Logger) {
	if err := rows.Close(); err != nil {
		log.Error("failed to close rows", slog.String("error", err.Error()))
	}
}

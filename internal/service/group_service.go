package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/domain/grouping"
	"github.com/seoforge/seoforge-api/internal/store"
)

// GroupService exposes the derived task-group view: listing a user's
// groups for a module, inspecting one group's members, and deleting a
// group by deleting its member records.
type GroupService interface {
	// ListGroups aggregates the user's tasks of a type into groups and
	// returns the requested page plus the total group count.
	ListGroups(
		ctx context.Context,
		userID uuid.UUID,
		taskType domain.TaskType,
		page, limit int,
	) ([]*grouping.Group, int, error)

	// GetGroup resolves a group id back to its member tasks.
	GetGroup(
		ctx context.Context,
		userID uuid.UUID,
		taskType domain.TaskType,
		groupID string,
	) (*grouping.Group, []*domain.Task, error)

	// DeleteGroup deletes the member task records of a group and returns
	// how many rows went away.
	DeleteGroup(
		ctx context.Context,
		userID uuid.UUID,
		taskType domain.TaskType,
		groupID string,
	) (int64, error)
}

// GroupServiceImpl implements the GroupService interface.
type GroupServiceImpl struct {
	taskStore store.TaskStore
	logger    *slog.Logger
}

// Ensure GroupServiceImpl implements GroupService interface
var _ GroupService = (*GroupServiceImpl)(nil)

// NewGroupService creates a new GroupService.
func NewGroupService(taskStore store.TaskStore, logger *slog.Logger) *GroupServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}

	return &GroupServiceImpl{
		taskStore: taskStore,
		logger:    logger.With("component", "group_service"),
	}
}

// ListGroups implements GroupService.ListGroups.
func (s *GroupServiceImpl) ListGroups(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	page, limit int,
) ([]*grouping.Group, int, error) {
	tasks, err := s.taskStore.ListByUser(ctx, taskType, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks for grouping: %w", err)
	}

	groups := grouping.Build(tasks)
	return grouping.Page(groups, page, limit), len(groups), nil
}

// GetGroup implements GroupService.GetGroup.
// Returns ErrGroupNotFound when the id does not decode, names a different
// module, or matches none of the user's tasks.
func (s *GroupServiceImpl) GetGroup(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	groupID string,
) (*grouping.Group, []*domain.Task, error) {
	key, members, err := s.resolveMembers(ctx, userID, taskType, groupID)
	if err != nil {
		return nil, nil, err
	}

	// Rebuilding from the members alone yields exactly one group, the
	// requested one.
	groups := grouping.Build(members)
	if len(groups) != 1 {
		s.logger.Error("group member set did not rebuild into one group",
			"group_id", groupID,
			"groups", len(groups),
			"bucket", key.Bucket)
		return nil, nil, ErrGroupNotFound
	}

	return groups[0], members, nil
}

// DeleteGroup implements GroupService.DeleteGroup.
// The delete is scoped to the requesting user; a group id over another
// user's tasks deletes nothing and reports ErrGroupNotFound.
func (s *GroupServiceImpl) DeleteGroup(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	groupID string,
) (int64, error) {
	_, members, err := s.resolveMembers(ctx, userID, taskType, groupID)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(members))
	for _, task := range members {
		ids = append(ids, task.ID)
	}

	deleted, err := s.taskStore.DeleteByIDs(ctx, taskType, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete group members: %w", err)
	}

	s.logger.Info("group deleted",
		"group_id", groupID,
		"task_type", taskType,
		"user_id", userID,
		"deleted", deleted)
	return deleted, nil
}

// resolveMembers decodes a group id and loads the user's tasks that belong
// to it. The window query narrows the scan to the group's 5-minute bucket
// before the per-task membership check.
func (s *GroupServiceImpl) resolveMembers(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	groupID string,
) (grouping.Key, []*domain.Task, error) {
	key, err := grouping.DecodeKey(groupID)
	if err != nil {
		if errors.Is(err, grouping.ErrInvalidGroupID) {
			return grouping.Key{}, nil, ErrGroupNotFound
		}
		return grouping.Key{}, nil, err
	}

	if key.Type != taskType {
		return grouping.Key{}, nil, ErrGroupNotFound
	}

	start, end := key.Window()
	tasks, err := s.taskStore.ListInWindow(ctx, taskType, userID, start, end)
	if err != nil {
		return grouping.Key{}, nil, fmt.Errorf("failed to load group window: %w", err)
	}

	var members []*domain.Task
	for _, task := range tasks {
		if grouping.Member(key, task) {
			members = append(members, task)
		}
	}

	if len(members) == 0 {
		return grouping.Key{}, nil, ErrGroupNotFound
	}

	return key, members, nil
}

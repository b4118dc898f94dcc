package service

import (
	"context"
	"strings"

	"github.com/alexanderramin/tally/internal/apperrors"
	"github.com/alexanderramin/tally/internal/domain"
	"github.com/alexanderramin/tally/internal/repository"
	"github.com/google/uuid"
)

type taskService struct {
	tasks    repository.TaskRepo
	observer UseCaseObserver
}

func NewTaskService(tasks repository.TaskRepo, observers ...UseCaseObserver) TaskService {
	return &taskService{tasks: tasks, observer: useCaseObserverOrNoop(observers)}
}

func (s *taskService) Create(ctx context.Context, userID, name, domainName, subdomain string) (task *domain.Task, err error) {
	ctx, done := beginUseCase(ctx, s.observer, "create-task", map[string]any{"user_id": userID})
	defer func() { done(err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Field(apperrors.CodeInvalidArgument, "name", "task name is required")
	}

	task = &domain.Task{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Domain:    strings.TrimSpace(domainName),
		Subdomain: strings.TrimSpace(subdomain),
	}
	if err = s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, userID, id)
}

func (s *taskService) List(ctx context.Context, userID string) ([]*domain.Task, error) {
	return s.tasks.List(ctx, userID)
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/BloggingApp/feed-service/internal/dto"
	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/repository"
	"go.uber.org/zap"
)

type messageService struct {
	logger  *zap.Logger
	repo    *repository.Repository
	timeout time.Duration
}

func newMessageService(logger *zap.Logger, repo *repository.Repository, opts Options) Message {
	return &messageService{
		logger:  logger,
		repo:    repo,
		timeout: opts.Timeouts.Message,
	}
}

func (s *messageService) Send(ctx context.Context, input dto.MessageInput) (*model.Message, error) {
	const op = "send message"

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Message = strings.TrimSpace(input.Message)
	if err := validateStruct(op, input); err != nil {
		return nil, err
	}

	saved, err := guard(ctx, s.timeout, func(ctx context.Context) (*model.Message, error) {
		return s.repo.Store.SaveMessage(ctx, model.Message{
			Name:    input.Name,
			Email:   input.Email,
			Message: input.Message,
		})
	})
	if err != nil {
		s.logger.Sugar().Errorf("failed to save message from %s: %s", input.Email, err.Error())
		return nil, Classify(op, err)
	}

	return saved, nil
}

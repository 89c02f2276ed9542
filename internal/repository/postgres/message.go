package postgres

import (
	"context"

	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/google/uuid"
)

func (s *Storage) SaveMessage(ctx context.Context, msg model.Message) (*model.Message, error) {
	const op = "storage.postgres.SaveMessage"

	id := uuid.New()
	if err := s.db.QueryRow(
		ctx,
		"INSERT INTO messages(id, name, email, message) VALUES($1, $2, $3, $4) RETURNING created_at",
		id,
		msg.Name,
		msg.Email,
		msg.Message,
	).Scan(&msg.CreatedAt); err != nil {
		return nil, mapErr(op, err)
	}

	msg.ID = id.String()
	msg.CreatedAt = msg.CreatedAt.UTC()

	return &msg, nil
}

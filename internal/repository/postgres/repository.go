package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/BloggingApp/feed-service/internal/config"
	"github.com/BloggingApp/feed-service/internal/storage"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Storage struct {
	db *pgxpool.Pool
}

var _ storage.Storage = (*Storage)(nil)

// DB opens a connection pool for cfg.
func DB(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, cfg.DSN())
}

func New(db *pgxpool.Pool) *Storage {
	return &Storage{
		db: db,
	}
}

// Open connects to dsn and pings the server.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

func (s *Storage) Close() {
	s.db.Close()
}

// mapErr translates driver errors into the storage sentinels.
func mapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.InsufficientPrivilege:
			return fmt.Errorf("%s: %w: %w", op, storage.ErrPermissionDenied, err)
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgErr.Code == pgerrcode.CannotConnectNow,
			pgErr.Code == pgerrcode.AdminShutdown:
			return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

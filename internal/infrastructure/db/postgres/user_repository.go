package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supplytrace/provenance/internal/core/domain"
)

const uniqueViolation = "23505"

// UserRepository implements ports.IdentityStore on PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	out := *user
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password, user_type, phone, address, metadata)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		 RETURNING id, created_at`,
		user.Username, user.PasswordHash, string(user.Role), user.Phone, user.Address, user.Metadata,
	).Scan(&id, &out.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("%w: insert user: %w", domain.ErrIdentityUnavailable, err)
	}
	out.ID = strconv.FormatInt(id, 10)
	return &out, nil
}

func (r *UserRepository) FindUser(ctx context.Context, username string, role domain.Role) (*domain.User, error) {
	var (
		u        domain.User
		id       int64
		userType string
		metadata *string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, password, user_type, phone, address, metadata, created_at
		 FROM users WHERE username = $1 AND user_type = $2`,
		username, string(role),
	).Scan(&id, &u.Username, &u.PasswordHash, &userType, &u.Phone, &u.Address, &metadata, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: find user: %w", domain.ErrIdentityUnavailable, err)
	}

	u.ID = strconv.FormatInt(id, 10)
	u.Role = domain.Role(userType)
	if metadata != nil {
		u.Metadata = *metadata
	}
	return &u, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIdentityUnavailable, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

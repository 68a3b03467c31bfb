package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/supplytrace/provenance/internal/core/domain"
)

// UserRepository implements ports.IdentityStore on SQLite.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	created := user.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password, user_type, phone, address, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.PasswordHash, string(user.Role), user.Phone, user.Address,
		nullable(user.Metadata), created.Unix(),
	)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("%w: insert user: %w", domain.ErrIdentityUnavailable, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: last insert id: %w", domain.ErrIdentityUnavailable, err)
	}

	out := *user
	out.ID = strconv.FormatInt(id, 10)
	out.CreatedAt = time.Unix(created.Unix(), 0).UTC()
	return &out, nil
}

func (r *UserRepository) FindUser(ctx context.Context, username string, role domain.Role) (*domain.User, error) {
	var (
		u        domain.User
		id       int64
		userType string
		metadata sql.NullString
		created  int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password, user_type, phone, address, metadata, created_at
		 FROM users WHERE username = ? AND user_type = ?`,
		username, string(role),
	).Scan(&id, &u.Username, &u.PasswordHash, &userType, &u.Phone, &u.Address, &metadata, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: find user: %w", domain.ErrIdentityUnavailable, err)
	}

	u.ID = strconv.FormatInt(id, 10)
	u.Role = domain.Role(userType)
	u.Metadata = metadata.String
	u.CreatedAt = time.Unix(created, 0).UTC()
	return &u, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIdentityUnavailable, err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"go-auth-service/internal/model"
)

const userColumns = `id, username, email, name, profile_image_url, password_hash,
        is_superuser, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username))
	return scanUser(row, "find user by username")
}

func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, login string) (model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE lower(username) = lower($1) OR lower(email) = lower($1)`,
		strings.TrimSpace(login))
	return scanUser(row, "find user by username or email")
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, "find user by id")
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, name, profile_image_url, password_hash,
		                    is_superuser, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Username, u.Email, u.Name, u.ProfileImageURL, u.PasswordHash,
		u.IsSuperuser, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// SeedDefaultAdmin creates the admin/admin123 bootstrap account when the
// users table is empty, so a fresh database is immediately usable.
func (r *UserRepository) SeedDefaultAdmin(ctx context.Context) error {
	count, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), 12)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := model.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		Email:        "admin@example.com",
		Name:         "Administrator",
		PasswordHash: string(hash),
		IsSuperuser:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := r.Create(ctx, admin); err != nil {
		return fmt.Errorf("seed default admin: %w", err)
	}

	slog.Info("seeded default admin user", "username", admin.Username)
	return nil
}

func scanUser(row pgx.Row, op string) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.ProfileImageURL,
		&u.PasswordHash, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-auth-service/internal/model"
)

// fileUser is the on-disk record. The password hash never leaves the file;
// model.User hides it from serialization.
type fileUser struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	ProfileImageURL string    `json:"profile_image_url"`
	PasswordHash    string    `json:"password_hash"`
	IsSuperuser     bool      `json:"is_superuser"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FileUserRepository keeps users in a JSON file. It backs development and
// test runs that have no database configured; a default admin account is
// seeded when the file is missing or empty.
type FileUserRepository struct {
	path string

	mu         sync.RWMutex
	byUsername map[string]model.User
	byEmail    map[string]model.User
	byID       map[string]model.User
}

func NewFileUserRepository(path string) (*FileUserRepository, error) {
	repo := &FileUserRepository{
		path:       path,
		byUsername: map[string]model.User{},
		byEmail:    map[string]model.User{},
		byID:       map[string]model.User{},
	}

	if err := repo.load(); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *FileUserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.byUsername[strings.ToLower(strings.TrimSpace(username))]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (r *FileUserRepository) FindByUsernameOrEmail(ctx context.Context, login string) (model.User, error) {
	key := strings.ToLower(strings.TrimSpace(login))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if user, exists := r.byUsername[key]; exists {
		return user, nil
	}
	if user, exists := r.byEmail[key]; exists {
		return user, nil
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *FileUserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.byID[id]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (r *FileUserRepository) Create(ctx context.Context, user model.User) error {
	key := strings.ToLower(strings.TrimSpace(user.Username))
	if key == "" {
		return model.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[key]; exists {
		return model.ErrInvalidInput
	}

	r.byUsername[key] = user
	r.byID[user.ID] = user
	if email := strings.ToLower(strings.TrimSpace(user.Email)); email != "" {
		r.byEmail[email] = user
	}

	return r.saveLocked()
}

func (r *FileUserRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *FileUserRepository) load() error {
	if strings.TrimSpace(r.path) == "" {
		return errors.New("users file path is required")
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}

	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		if err := r.seedDefaultAdmin(); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		if err := r.seedDefaultAdmin(); err != nil {
			return err
		}
		data, err = os.ReadFile(r.path)
		if err != nil {
			return err
		}
	}

	var records []fileUser
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	if len(records) == 0 {
		if err := r.seedDefaultAdmin(); err != nil {
			return err
		}
		return r.load()
	}

	byUsername := map[string]model.User{}
	byEmail := map[string]model.User{}
	byID := map[string]model.User{}
	for _, record := range records {
		user := record.toUser()
		byUsername[strings.ToLower(user.Username)] = user
		byID[user.ID] = user
		if email := strings.ToLower(strings.TrimSpace(user.Email)); email != "" {
			byEmail[email] = user
		}
	}

	r.mu.Lock()
	r.byUsername = byUsername
	r.byEmail = byEmail
	r.byID = byID
	r.mu.Unlock()

	return nil
}

func (r *FileUserRepository) seedDefaultAdmin() error {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), 12)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	defaultAdmin := []fileUser{{
		ID:           uuid.NewString(),
		Username:     "admin",
		Email:        "admin@example.com",
		Name:         "Administrator",
		PasswordHash: string(hash),
		IsSuperuser:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}}

	data, err := json.MarshalIndent(defaultAdmin, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.path, data, 0o600)
}

func (r *FileUserRepository) saveLocked() error {
	records := make([]fileUser, 0, len(r.byID))
	for _, user := range r.byID {
		records = append(records, fileUserFrom(user))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.path, data, 0o600)
}

func (f fileUser) toUser() model.User {
	return model.User{
		ID:              f.ID,
		Username:        f.Username,
		Email:           f.Email,
		Name:            f.Name,
		ProfileImageURL: f.ProfileImageURL,
		PasswordHash:    f.PasswordHash,
		IsSuperuser:     f.IsSuperuser,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

func fileUserFrom(u model.User) fileUser {
	return fileUser{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Name:            u.Name,
		ProfileImageURL: u.ProfileImageURL,
		PasswordHash:    u.PasswordHash,
		IsSuperuser:     u.IsSuperuser,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

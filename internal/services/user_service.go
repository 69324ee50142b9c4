package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mentor/internal/database"
	"mentor/internal/models"
)

// UserService manages local user accounts
type UserService struct {
	db    *database.DB
	clock func() time.Time
}

// NewUserService creates a new user service
func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db, clock: time.Now}
}

const userColumns = `id, email, password_hash, name, timezone, birth_date, birth_time, birth_location, role, created_at, updated_at`

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	var birthDate, birthTime, birthLocation sql.NullString
	var createdAt, updatedAt string
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Timezone, &birthDate, &birthTime,
		&birthLocation, &u.Role, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.BirthDate = database.StringPtr(birthDate)
	u.BirthTime = database.StringPtr(birthTime)
	u.BirthLocation = database.StringPtr(birthLocation)
	var err error
	if u.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser stores a new account. The first account ever created becomes admin.
func (s *UserService) CreateUser(ctx context.Context, req models.RegisterRequest, passwordHash string) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if existing, err := s.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	count, err := s.GetUserCount(ctx)
	if err != nil {
		return nil, err
	}
	role := "user"
	if count == 0 {
		role = "admin"
	}

	timezone := strings.TrimSpace(req.Timezone)
	if timezone == "" {
		timezone = "UTC"
	}

	now := s.clock().UTC()
	u := &models.User{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  passwordHash,
		Name:          strings.TrimSpace(req.Name),
		Timezone:      timezone,
		BirthDate:     req.BirthDate,
		BirthTime:     req.BirthTime,
		BirthLocation: req.BirthLocation,
		Role:          role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Timezone, database.NullString(u.BirthDate),
		database.NullString(u.BirthTime), database.NullString(u.BirthLocation), u.Role,
		database.FormatTime(u.CreatedAt), database.FormatTime(u.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

// GetUserByEmail looks up an account by (lower-cased) email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`,
		strings.TrimSpace(strings.ToLower(email))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// GetUserByID looks up an account by id.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// GetUserCount returns the number of registered accounts.
func (s *UserService) GetUserCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

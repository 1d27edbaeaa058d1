package repositories

import (
	"context"
	"errors"
	"fmt"

	"bike-shop/config"
	"bike-shop/models"

	"github.com/jackc/pgx/v5"
)

type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

const userColumns = `user_id, email, password_hash, first_name, last_name, phone,
	role, language_preference, email_verified, is_active, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := config.DB.QueryRow(ctx,
		`INSERT INTO web_users (email, password_hash, first_name, last_name, phone, language_preference)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING user_id, role, email_verified, is_active, created_at, updated_at`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Phone, user.Language,
	).Scan(&user.ID, &user.Role, &user.EmailVerified, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return models.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := config.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM web_users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*models.User, error) {
	row := config.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM web_users WHERE user_id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	tag, err := config.DB.Exec(ctx,
		`UPDATE web_users SET first_name = $1, last_name = $2, phone = $3,
			language_preference = $4, updated_at = NOW()
		 WHERE user_id = $5`,
		user.FirstName, user.LastName, user.Phone, user.Language, user.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	tag, err := config.DB.Exec(ctx,
		`UPDATE web_users SET password_hash = $1, updated_at = NOW() WHERE user_id = $2`,
		passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.Phone, &user.Role, &user.Language, &user.EmailVerified, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe_order_backend/internal/models"

	"github.com/lib/pq"
)

// AuthRepository defines the interface for user and refresh token storage.
type AuthRepository interface {
	CreateUser(user *models.User) (int64, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(userID int64) (*models.User, error)

	StoreRefreshToken(token *models.RefreshToken) error
	GetRefreshToken(token string) (*models.RefreshToken, error)
	DeleteRefreshTokensForUser(userID int64) error
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

func (r *authRepository) CreateUser(user *models.User) (int64, error) {
	query := `INSERT INTO users (username, password_hash, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	user.CreatedAt = currentTime
	user.UpdatedAt = currentTime

	err := r.db.QueryRow(query,
		user.Username, user.PasswordHash, user.FullName, user.Role, user.IsActive,
		user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: username '%s' already exists (constraint: %s)", ErrDuplicateKey, user.Username, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	return user.ID, nil
}

func (r *authRepository) GetUserByUsername(username string) (*models.User, error) {
	return r.getUser(`SELECT id, username, password_hash, full_name, role, is_active, created_at, updated_at
	                  FROM users WHERE username = $1`, username)
}

func (r *authRepository) GetUserByID(userID int64) (*models.User, error) {
	return r.getUser(`SELECT id, username, password_hash, full_name, role, is_active, created_at, updated_at
	                  FROM users WHERE id = $1`, userID)
}

func (r *authRepository) getUser(query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(query, arg).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.FullName, &user.Role,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting user: %v", ErrDatabaseError, err)
	}
	return user, nil
}

func (r *authRepository) StoreRefreshToken(token *models.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (user_id, token, expires_at, created_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	err := r.db.QueryRow(query, token.UserID, token.Token, token.ExpiresAt, token.CreatedAt).Scan(&token.ID)
	if err != nil {
		return fmt.Errorf("%w: storing refresh token: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *authRepository) GetRefreshToken(token string) (*models.RefreshToken, error) {
	rt := &models.RefreshToken{}
	query := `SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens WHERE token = $1`
	err := r.db.QueryRow(query, token).Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting refresh token: %v", ErrDatabaseError, err)
	}
	return rt, nil
}

func (r *authRepository) DeleteRefreshTokensForUser(userID int64) error {
	_, err := r.db.Exec(`DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("%w: deleting refresh tokens for user ID %d: %v", ErrDatabaseError, userID, err)
	}
	return nil
}

package repository

import (
	"database/sql"
	"errors"

	"enact/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type AuthRepository interface {
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
}

type authRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAuthRepository(db *sqlx.DB, logger *zap.Logger) AuthRepository {
	return &authRepository{db: db, logger: logger}
}

func (r *authRepository) CreateUser(user *models.User) error {
	query := `INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, created_at`
	return r.db.QueryRowx(query, user.Username, user.PasswordHash).StructScan(user)
}

func (r *authRepository) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`
	err := r.db.Get(&user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a user whose TransactionPinHash is already a bcrypt hash.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	logger.Info("user repository create", logger.Fields{
		"username": user.Username,
	})

	const query = `
INSERT INTO users (
	username,
	transaction_pin_hash
) VALUES ($1, $2)
RETURNING id, username, transaction_pin_hash, created_at, updated_at`

	var created domain.User
	if err := r.db.QueryRowContext(ctx, query, user.Username, user.TransactionPinHash).Scan(
		&created.ID,
		&created.Username,
		&created.TransactionPinHash,
		&created.CreatedAt,
		&created.UpdatedAt,
	); err != nil {
		logger.Error("user repository create failed", err, logger.Fields{
			"username": user.Username,
		})
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	return created, nil
}

func (r *UserRepository) GetTransactionPinHashByUsername(ctx context.Context, username string) (string, error) {
	logger.Info("user repository get pin hash by username", logger.Fields{
		"username": username,
	})

	const query = `
SELECT transaction_pin_hash
FROM users
WHERE username = $1`

	var pinHash string
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&pinHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("user repository record not found", logger.Fields{
				"username": username,
			})
			return "", domain.ErrUserNotFound
		}
		logger.Error("user repository get pin hash failed", err, logger.Fields{
			"username": username,
		})
		return "", fmt.Errorf("get transaction pin hash by username: %w", err)
	}

	return pinHash, nil
}

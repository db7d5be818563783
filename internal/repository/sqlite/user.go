package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/repository"
)

// UserRepo implements repository.UserRepository.
type UserRepo struct {
	db *DB
}

var _ repository.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a UserRepo backed by db.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts the user and their profile in one transaction. The profile
// reuses the user's ID. A duplicate email, google_id, or referral code is
// reported as apperror.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, user *model.User, profile *model.Profile) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	profile.ID = user.ID
	profile.CreatedAt = now
	profile.UpdatedAt = now

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning signup transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, google_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.GoogleID, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyExists("an account with this email already exists")
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (id, display_name, avatar_url, referral_code, points, total_recordings, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID, profile.DisplayName, profile.AvatarURL, profile.ReferralCode,
		profile.Points, profile.TotalRecordings, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyExists("referral code collision")
		}
		return fmt.Errorf("sqlite: inserting profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing signup transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail retrieves a user by email — the password login lookup.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByGoogleID retrieves a user by their Google subject ID.
func (r *UserRepo) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return r.getBy(ctx, "google_id", googleID)
}

func (r *UserRepo) getBy(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, google_id, created_at, updated_at
		 FROM users WHERE `+column+` = ?`, value,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.GoogleID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}
	return &u, nil
}

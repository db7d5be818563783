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

// ReferralRepo implements repository.ReferralRepository.
type ReferralRepo struct {
	db *DB
}

var _ repository.ReferralRepository = (*ReferralRepo)(nil)

// NewReferralRepo creates a ReferralRepo backed by db.
func NewReferralRepo(db *DB) *ReferralRepo {
	return &ReferralRepo{db: db}
}

// Create inserts the referral edge and credits the referrer's bonus in one
// transaction. The UNIQUE constraint on referred_user_id is the whole
// guard: of two racing redemptions for the same new user, exactly one
// commits its insert and its award; the other gets apperror.ErrConflict
// and commits nothing.
func (r *ReferralRepo) Create(ctx context.Context, ref *model.Referral) error {
	ref.ID = xid.New().String()
	ref.PointsAwarded = true
	ref.CreatedAt = time.Now()

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning referral transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO referrals (id, referrer_id, referred_user_id, points_awarded, created_at)
		 VALUES (?, ?, ?, 1, ?)`,
		ref.ID, ref.ReferrerID, ref.ReferredUserID, ref.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyExists("user was already referred")
		}
		return fmt.Errorf("sqlite: inserting referral: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE profiles SET points = points + ?, updated_at = ? WHERE id = ?`,
		model.ReferralBonusPoints, ref.CreatedAt, ref.ReferrerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: crediting referrer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking referrer credit: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("profile", ref.ReferrerID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing referral transaction: %w", err)
	}
	return nil
}

// GetByReferredUser returns the referral that brought the user in, if any.
func (r *ReferralRepo) GetByReferredUser(ctx context.Context, referredUserID string) (*model.Referral, error) {
	var ref model.Referral
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, referrer_id, referred_user_id, points_awarded, created_at
		 FROM referrals WHERE referred_user_id = ?`, referredUserID,
	).Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredUserID, &ref.PointsAwarded, &ref.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("referral", referredUserID)
		}
		return nil, fmt.Errorf("sqlite: getting referral: %w", err)
	}
	return &ref, nil
}

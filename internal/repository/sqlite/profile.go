package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/repository"
)

// ProfileRepo implements repository.ProfileRepository.
type ProfileRepo struct {
	db *DB
}

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// NewProfileRepo creates a ProfileRepo backed by db.
func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileColumns = `id, display_name, avatar_url, referral_code, points, total_recordings, created_at, updated_at`

// GetByID retrieves a profile.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", id)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", id, err)
	}
	return p, nil
}

// GetByReferralCode resolves a referral code to its owner's profile.
func (r *ProfileRepo) GetByReferralCode(ctx context.Context, code string) (*model.Profile, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE referral_code = ?`, code)
	p, err := scanProfile(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("referral code", code)
		}
		return nil, fmt.Errorf("sqlite: getting profile by referral code: %w", err)
	}
	return p, nil
}

// Leaderboard returns the top profiles by points, ties broken by recording
// count then signup age (earlier accounts rank higher).
func (r *ProfileRepo) Leaderboard(ctx context.Context, limit int) ([]model.Profile, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+profileColumns+`
		 FROM profiles
		 ORDER BY points DESC, total_recordings DESC, created_at ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying leaderboard: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning profile row: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating leaderboard: %w", err)
	}
	return profiles, nil
}

func scanProfile(scan func(...any) error) (*model.Profile, error) {
	var p model.Profile
	err := scan(
		&p.ID, &p.DisplayName, &p.AvatarURL, &p.ReferralCode,
		&p.Points, &p.TotalRecordings, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

package localdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"

	"github.com/grokify/issueconductor/pkg/model"
)

// Profile mirrors the GitHub identity connected by a user.
type Profile struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type profileRow struct {
	ID        string  `db:"id"`
	Login     string  `db:"login"`
	Name      *string `db:"name"`
	AvatarURL *string `db:"avatar_url"`
	CreatedAt string  `db:"created_at"`
	UpdatedAt string  `db:"updated_at"`
}

func (r profileRow) toModel() Profile {
	return Profile{
		ID:        r.ID,
		Login:     r.Login,
		Name:      deref(r.Name),
		AvatarURL: deref(r.AvatarURL),
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}
}

// UpsertProfile stores the GitHub identity of userID, replacing any earlier one.
func (d *DB) UpsertProfile(ctx context.Context, userID string, u model.User) (*Profile, error) {
	now := d.timestamp()
	row := profileRow{
		ID:        userID,
		Login:     u.Login,
		Name:      nullable(u.Name),
		AvatarURL: nullable(u.AvatarURL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `INSERT INTO profiles (id, login, name, avatar_url, created_at, updated_at)
		VALUES (:id, :login, :name, :avatar_url, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			login = excluded.login,
			name = excluded.name,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at`
	if _, err := d.db.NamedExecContext(ctx, query, row); err != nil {
		return nil, fmt.Errorf("upsert profile %s: %w", userID, err)
	}

	p, err := d.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	stored, ok := p.Get()
	if !ok {
		return nil, fmt.Errorf("upsert profile %s: %w", userID, ErrNotFound)
	}
	return &stored, nil
}

// GetProfile returns the profile of userID, if any.
func (d *DB) GetProfile(ctx context.Context, userID string) (mo.Option[Profile], error) {
	query := d.db.Rebind(`SELECT id, login, name, avatar_url, created_at, updated_at FROM profiles WHERE id = ?`)

	var row profileRow
	if err := d.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[Profile](), nil
		}
		return mo.None[Profile](), fmt.Errorf("get profile %s: %w", userID, err)
	}
	return mo.Some(row.toModel()), nil
}

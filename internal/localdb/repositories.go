package localdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/grokify/issueconductor/internal/store"
	"github.com/grokify/issueconductor/pkg/model"
)

type repositoryRow struct {
	ID          string  `db:"id"`
	UserID      string  `db:"user_id"`
	Name        string  `db:"name"`
	FullName    string  `db:"full_name"`
	Description *string `db:"description"`
	URL         string  `db:"url"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
}

func (r repositoryRow) toModel() model.Repository {
	return model.Repository{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		FullName:    r.FullName,
		Description: deref(r.Description),
		URL:         r.URL,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}
}

const repositoryColumns = "id, user_id, name, full_name, description, url, created_at, updated_at"

// ListRepositories returns the repositories owned by userID, oldest first.
func (d *DB) ListRepositories(ctx context.Context, userID string) ([]model.Repository, error) {
	query := d.db.Rebind(`SELECT ` + repositoryColumns + ` FROM repositories WHERE user_id = ? ORDER BY created_at, id`)

	var rows []repositoryRow
	if err := d.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}

	repos := make([]model.Repository, 0, len(rows))
	for _, r := range rows {
		repos = append(repos, r.toModel())
	}
	return repos, nil
}

// CreateRepository stores a repository for userID. A full name that is
// already stored returns store.ErrAlreadyAdded.
func (d *DB) CreateRepository(ctx context.Context, userID string, in model.RepositoryInput) (*model.Repository, error) {
	now := d.timestamp()
	row := repositoryRow{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        in.Name,
		FullName:    in.FullName,
		Description: nullable(in.Description),
		URL:         in.URL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `INSERT INTO repositories (` + repositoryColumns + `)
		VALUES (:id, :user_id, :name, :full_name, :description, :url, :created_at, :updated_at)`
	if _, err := d.db.NamedExecContext(ctx, query, row); err != nil {
		if errors.Is(classify(err), errUniqueViolation) {
			return nil, store.ErrAlreadyAdded
		}
		return nil, fmt.Errorf("create repository %s: %w", in.FullName, err)
	}

	repo := row.toModel()
	return &repo, nil
}

// DeleteRepository removes a repository owned by userID.
func (d *DB) DeleteRepository(ctx context.Context, userID, id string) error {
	query := d.db.Rebind(`DELETE FROM repositories WHERE id = ? AND user_id = ?`)
	res, err := d.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete repository %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete repository %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete repository %s: %w", id, ErrNotFound)
	}
	return nil
}

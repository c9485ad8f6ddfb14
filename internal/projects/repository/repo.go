package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/decksmith/deck-backend/internal/projects/domain"
)

// Repo persists project aggregates. Every mutation runs inside a transaction
// that holds the project row lock, so the aspect-ratio lock check and the
// write it guards are atomic even under concurrent requests.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Create inserts a new project and its initial pages (normally none).
func (r *Repo) Create(ctx context.Context, p *domain.Project) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
insert into projects (id, status, creation_type, idea_prompt, image_aspect_ratio, ratio_locked, created_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err = tx.Exec(ctx, q,
		p.ProjectID, p.Status, p.CreationType, p.IdeaPrompt,
		string(p.ImageAspectRatio), p.RatioLocked, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	if err := upsertPages(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Get loads a point-in-time snapshot of the project with its pages in
// order_index order. The project row and the pages are read inside one
// repeatable-read transaction so a Mutate committing between the two
// statements can never produce a torn view.
func (r *Repo) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := loadProject(ctx, tx, projectID, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// Delete removes a project; pages cascade.
func (r *Repo) Delete(ctx context.Context, projectID string) error {
	ct, err := r.db.Exec(ctx, `delete from projects where id = $1;`, projectID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

// Mutate loads the aggregate under a row lock, applies fn, and writes the
// result back in the same transaction. fn errors abort without side effects.
func (r *Repo) Mutate(ctx context.Context, projectID string, fn func(*domain.Project) error) (*domain.Project, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := loadProject(ctx, tx, projectID, true)
	if err != nil {
		return nil, err
	}

	if err := fn(p); err != nil {
		return nil, err
	}

	const q = `
update projects
set status = $2, idea_prompt = $3, image_aspect_ratio = $4, ratio_locked = $5, updated_at = $6
where id = $1;
`
	_, err = tx.Exec(ctx, q,
		p.ProjectID, p.Status, p.IdeaPrompt, string(p.ImageAspectRatio), p.RatioLocked, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	if err := upsertPages(ctx, tx, p); err != nil {
		return nil, err
	}
	// Always reconcile against the kept ids: a mutation can remove one page
	// and add another without changing the count.
	if err := deleteMissingPages(ctx, tx, p); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// querier covers both the pool and an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadProject(ctx context.Context, q querier, projectID string, forUpdate bool) (*domain.Project, error) {
	sel := `
select id, status, creation_type, idea_prompt, image_aspect_ratio, ratio_locked, created_at, updated_at
from projects
where id = $1`
	if forUpdate {
		sel += " for update"
	}
	sel += ";"

	var (
		p     domain.Project
		ratio string
	)
	err := q.QueryRow(ctx, sel, projectID).Scan(
		&p.ProjectID, &p.Status, &p.CreationType, &p.IdeaPrompt,
		&ratio, &p.RatioLocked, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("select project: %w", err)
	}
	p.ImageAspectRatio = domain.AspectRatio(ratio)

	pages, err := loadPages(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	p.Pages = pages
	return &p, nil
}

func loadPages(ctx context.Context, q querier, projectID string) ([]domain.Page, error) {
	const sel = `
select id, project_id, order_index, outline_content, description_content, generated_image_path, status, created_at, updated_at
from pages
where project_id = $1
order by order_index;
`
	rows, err := q.Query(ctx, sel, projectID)
	if err != nil {
		return nil, fmt.Errorf("select pages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Page, 0, 8)
	for rows.Next() {
		var (
			pg       domain.Page
			outline  []byte
			desc     []byte
			imgPath  *string
		)
		if err := rows.Scan(&pg.PageID, &pg.ProjectID, &pg.OrderIndex,
			&outline, &desc, &imgPath, &pg.Status, &pg.CreatedAt, &pg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		if len(outline) > 0 {
			var oc domain.OutlineContent
			if err := json.Unmarshal(outline, &oc); err != nil {
				return nil, fmt.Errorf("decode outline_content: %w", err)
			}
			pg.OutlineContent = &oc
		}
		if len(desc) > 0 {
			var dc domain.DescriptionContent
			if err := json.Unmarshal(desc, &dc); err != nil {
				return nil, fmt.Errorf("decode description_content: %w", err)
			}
			pg.DescriptionContent = &dc
		}
		if imgPath != nil {
			pg.GeneratedImagePath = *imgPath
		}
		out = append(out, pg)
	}
	return out, rows.Err()
}

func upsertPages(ctx context.Context, tx pgx.Tx, p *domain.Project) error {
	const q = `
insert into pages (id, project_id, order_index, outline_content, description_content, generated_image_path, status, created_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
on conflict (id) do update
set order_index          = excluded.order_index,
    outline_content      = excluded.outline_content,
    description_content  = excluded.description_content,
    generated_image_path = excluded.generated_image_path,
    status               = excluded.status,
    updated_at           = excluded.updated_at;
`
	for i := range p.Pages {
		pg := &p.Pages[i]

		outline, err := contentJSON(pg.OutlineContent)
		if err != nil {
			return err
		}
		desc, err := contentJSON(pg.DescriptionContent)
		if err != nil {
			return err
		}
		var imgPath *string
		if pg.GeneratedImagePath != "" {
			imgPath = &pg.GeneratedImagePath
		}

		_, err = tx.Exec(ctx, q, pg.PageID, pg.ProjectID, pg.OrderIndex,
			outline, desc, imgPath, pg.Status, pg.CreatedAt, pg.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upsert page %s: %w", pg.PageID, err)
		}
	}
	return nil
}

func deleteMissingPages(ctx context.Context, tx pgx.Tx, p *domain.Project) error {
	keep := make([]string, len(p.Pages))
	for i := range p.Pages {
		keep[i] = p.Pages[i].PageID
	}
	_, err := tx.Exec(ctx,
		`delete from pages where project_id = $1 and id <> all($2::uuid[]);`,
		p.ProjectID, keep)
	if err != nil {
		return fmt.Errorf("delete removed pages: %w", err)
	}
	return nil
}

// contentJSON marshals optional content, mapping nil to SQL NULL rather than
// a jsonb null.
func contentJSON(v any) ([]byte, error) {
	switch c := v.(type) {
	case *domain.OutlineContent:
		if c == nil {
			return nil, nil
		}
	case *domain.DescriptionContent:
		if c == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	return b, nil
}

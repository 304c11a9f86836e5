package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"ugc-studio/internal/models"
)

var (
	ErrNotFound = errors.New("project not found")
	ErrNoImage  = errors.New("project has no generated image")
)

const projectColumns = `
	id, user_id, product_name, product_description, user_prompt, aspect_ratio,
	uploaded_images, generated_image, generated_video, is_generating, is_published,
	error, created_at, updated_at`

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var (
		p         models.Project
		aspect    string
		uploaded  pq.StringArray
		errMsg    sql.NullString
		updatedAt sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.ProductName, &p.ProductDescription, &p.UserPrompt, &aspect,
		&uploaded, &p.GeneratedImage, &p.GeneratedVideo, &p.IsGenerating, &p.IsPublished,
		&errMsg, &p.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.AspectRatio = models.ParseAspectRatio(aspect)
	p.UploadedImages = []string(uploaded)
	if errMsg.Valid {
		p.Error = errMsg.String
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		p.UpdatedAt = &t
	}
	return &p, nil
}

func (d *DatabaseClient) CreateProject(ctx context.Context, p models.Project) (*models.Project, error) {
	row := d.db.QueryRowContext(ctx, `
		INSERT INTO projects (id, user_id, product_name, product_description, user_prompt, aspect_ratio, uploaded_images, is_generating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+projectColumns,
		p.ID, p.UserID, p.ProductName, p.ProductDescription, p.UserPrompt,
		string(models.ParseAspectRatio(string(p.AspectRatio))), pq.Array(p.UploadedImages), p.IsGenerating,
	)

	project, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// GetProject loads a project owned by userID. An empty userID skips the
// ownership filter; only the generation worker does that.
func (d *DatabaseClient) GetProject(ctx context.Context, projectID, userID string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	args := []any{projectID}
	if userID != "" {
		query += ` AND user_id = $2`
		args = append(args, userID)
	}

	project, err := scanProject(d.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (d *DatabaseClient) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	return d.listProjects(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
}

func (d *DatabaseClient) ListPublished(ctx context.Context) ([]models.Project, error) {
	return d.listProjects(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE is_published
		ORDER BY created_at DESC
	`)
}

func (d *DatabaseClient) listProjects(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

// SetGeneratedImage stores the image and settles the project as successful.
func (d *DatabaseClient) SetGeneratedImage(ctx context.Context, projectID, imageURL string) error {
	return d.execOne(ctx, `
		UPDATE projects
		SET generated_image = $1, is_generating = FALSE, error = NULL, updated_at = NOW()
		WHERE id = $2
	`, imageURL, projectID)
}

func (d *DatabaseClient) SetGeneratedVideo(ctx context.Context, projectID, videoURL string) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE projects
		SET generated_video = $1, is_generating = FALSE, error = NULL, updated_at = NOW()
		WHERE id = $2 AND generated_image <> ''
	`, videoURL, projectID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoImage
	}
	return nil
}

func (d *DatabaseClient) SetGenerating(ctx context.Context, projectID string, generating bool) error {
	return d.execOne(ctx, `
		UPDATE projects
		SET is_generating = $1,
		    error = CASE WHEN $1 THEN NULL ELSE error END,
		    updated_at = NOW()
		WHERE id = $2
	`, generating, projectID)
}

// SetError records a terminal failure. It always clears is_generating.
func (d *DatabaseClient) SetError(ctx context.Context, projectID, errorMsg string) error {
	return d.execOne(ctx, `
		UPDATE projects
		SET error = $1, is_generating = FALSE, updated_at = NOW()
		WHERE id = $2
	`, errorMsg, projectID)
}

func (d *DatabaseClient) TogglePublished(ctx context.Context, projectID, userID string) (bool, error) {
	var published bool
	err := d.db.QueryRowContext(ctx, `
		UPDATE projects
		SET is_published = NOT is_published, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING is_published
	`, projectID, userID).Scan(&published)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle publish: %w", err)
	}
	return published, nil
}

func (d *DatabaseClient) DeleteProject(ctx context.Context, projectID, userID string) error {
	return d.execOne(ctx, `
		DELETE FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID)
}

// FailStaleGenerations marks projects generating for longer than maxAge as failed.
func (d *DatabaseClient) FailStaleGenerations(ctx context.Context, maxAge time.Duration, reason string) (int64, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE projects
		SET error = $1, is_generating = FALSE, updated_at = NOW()
		WHERE is_generating AND COALESCE(updated_at, created_at) < $2
	`, reason, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale generations: %w", err)
	}
	return res.RowsAffected()
}

func (d *DatabaseClient) execOne(ctx context.Context, query string, args ...any) error {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

// Package store keeps lighting project snapshots in sqlite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	bpmodels "lightplan/internal/blueprint/models"
	"lightplan/internal/lighting/models"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var ErrNotFound = errors.New("project not found")

type Status string

const (
	StatusDraft             Status = "draft"
	StatusBlueprintComplete Status = "blueprint_complete"
	StatusLightingComplete  Status = "lighting_complete"
)

// Project - снимок проекта: план, мебель и расстановка света.
type Project struct {
	ID          string               `json:"projectId"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Blueprint   bpmodels.Blueprint   `json:"blueprintData"`
	Furniture   []bpmodels.Furniture `json:"furnitureData"`
	Lighting    models.LightingData  `json:"lightingData"`
	Status      Status               `json:"status"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

type Summary struct {
	ID           string    `json:"projectId"`
	Title        string    `json:"title"`
	Status       Status    `json:"status"`
	WallCount    int       `json:"wallCount"`
	FixtureCount int       `json:"fixtureCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// timeLayout с фиксированной дробной частью, чтобы строки сортировались как время.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    blueprint     TEXT NOT NULL,
    furniture     TEXT NOT NULL,
    lighting      TEXT NOT NULL,
    status        TEXT NOT NULL,
    wall_count    INTEGER NOT NULL DEFAULT 0,
    fixture_count INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at);
`

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Init создаёт схему, если её ещё нет.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Save вставляет или обновляет проект. Пустой ID получает новый uuid,
// created_at при обновлении не меняется.
func (r *Repository) Save(ctx context.Context, p *Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.Furniture == nil {
		p.Furniture = []bpmodels.Furniture{}
	}

	blueprint, err := json.Marshal(p.Blueprint)
	if err != nil {
		return fmt.Errorf("marshal blueprint: %w", err)
	}
	furniture, err := json.Marshal(p.Furniture)
	if err != nil {
		return fmt.Errorf("marshal furniture: %w", err)
	}
	lighting, err := json.Marshal(p.Lighting)
	if err != nil {
		return fmt.Errorf("marshal lighting: %w", err)
	}

	now := r.now().UTC()
	stamp := now.Format(timeLayout)
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO projects (id, title, description, blueprint, furniture, lighting, status, wall_count, fixture_count, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            title = excluded.title,
            description = excluded.description,
            blueprint = excluded.blueprint,
            furniture = excluded.furniture,
            lighting = excluded.lighting,
            status = excluded.status,
            wall_count = excluded.wall_count,
            fixture_count = excluded.fixture_count,
            updated_at = excluded.updated_at
    `,
		p.ID, p.Title, p.Description,
		string(blueprint), string(furniture), string(lighting),
		string(p.Status), len(p.Blueprint.Walls), len(p.Lighting.Fixtures),
		stamp, stamp,
	)
	if err != nil {
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}

	saved, err := r.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt, p.UpdatedAt = saved.CreatedAt, saved.UpdatedAt

	log.Printf("[STORE] Saved project %s (%d walls, %d fixtures)", p.ID, len(p.Blueprint.Walls), len(p.Lighting.Fixtures))
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, title, description, blueprint, furniture, lighting, status, created_at, updated_at
        FROM projects
        WHERE id = ?
    `, id)

	var (
		p                              Project
		blueprint, furniture, lighting string
		created, updated               string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &blueprint, &furniture, &lighting, &p.Status, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(blueprint), &p.Blueprint); err != nil {
		return nil, fmt.Errorf("decode blueprint: %w", err)
	}
	if err := json.Unmarshal([]byte(furniture), &p.Furniture); err != nil {
		return nil, fmt.Errorf("decode furniture: %w", err)
	}
	if err := json.Unmarshal([]byte(lighting), &p.Lighting); err != nil {
		return nil, fmt.Errorf("decode lighting: %w", err)
	}

	var err error
	if p.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &p, nil
}

// List возвращает проекты, свежие первыми.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, title, status, wall_count, fixture_count, updated_at
        FROM projects
        ORDER BY updated_at DESC, id
    `)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			s       Summary
			updated string
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.Status, &s.WallCount, &s.FixtureCount, &updated); err != nil {
			return nil, err
		}
		if s.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	log.Printf("[STORE] Deleted project %s", id)
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

package objects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joeblew999/plat-metro/internal/geo"
)

// Repository persists user objects.
type Repository interface {
	List(ctx context.Context) ([]UserObject, error)
	Get(ctx context.Context, id int64) (UserObject, error)
	Create(ctx context.Context, p CreatePayload) (UserObject, error)
}

// MemoryRepository keeps objects in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	objects []UserObject
	nextID  int64
	now     func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, now: time.Now}
}

func (r *MemoryRepository) List(ctx context.Context) ([]UserObject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]UserObject{}, r.objects...), nil
}

func (r *MemoryRepository) Get(ctx context.Context, id int64) (UserObject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.objects {
		if o.ID == id {
			return o, nil
		}
	}
	return UserObject{}, ErrNotFound
}

func (r *MemoryRepository) Create(ctx context.Context, p CreatePayload) (UserObject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	obj := UserObject{
		ID:          r.nextID,
		Name:        p.Name,
		Description: p.Description,
		ObjectType:  p.ObjectType,
		Geom:        geo.NewPoint(p.Longitude, p.Latitude),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.nextID++
	r.objects = append(r.objects, obj)
	return obj, nil
}

// DuckDBRepository stores objects in the embedded DuckDB database.
type DuckDBRepository struct {
	db *sql.DB
}

// NewDuckDBRepository creates the schema if needed.
func NewDuckDBRepository(ctx context.Context, db *sql.DB) (*DuckDBRepository, error) {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS user_added_objects_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS user_added_objects (
			id BIGINT PRIMARY KEY DEFAULT nextval('user_added_objects_id_seq'),
			name VARCHAR NOT NULL,
			description VARCHAR,
			object_type VARCHAR,
			lon DOUBLE NOT NULL,
			lat DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("duckdb schema: %w", err)
		}
	}
	return &DuckDBRepository{db: db}, nil
}

const duckdbColumns = `id, name, description, object_type, lon, lat, created_at, updated_at`

func (r *DuckDBRepository) List(ctx context.Context) ([]UserObject, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+duckdbColumns+` FROM user_added_objects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

func (r *DuckDBRepository) Get(ctx context.Context, id int64) (UserObject, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+duckdbColumns+` FROM user_added_objects WHERE id = ?`, id)
	return scanOne(row)
}

func (r *DuckDBRepository) Create(ctx context.Context, p CreatePayload) (UserObject, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO user_added_objects (name, description, object_type, lon, lat)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING `+duckdbColumns,
		p.Name, nullString(p.Description), nullString(p.ObjectType), p.Longitude, p.Latitude)
	obj, err := scanOne(row)
	if err != nil {
		return UserObject{}, fmt.Errorf("create object: %w", err)
	}
	return obj, nil
}

// PostGISRepository stores objects in PostgreSQL with a geometry(POINT, 4326)
// column.
type PostGISRepository struct {
	db *sql.DB
}

// NewPostGISRepository creates the extension and table if needed.
func NewPostGISRepository(ctx context.Context, db *sql.DB) (*PostGISRepository, error) {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`CREATE TABLE IF NOT EXISTS user_added_objects (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			object_type VARCHAR(100),
			geom GEOMETRY(POINT, 4326) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("postgis schema: %w", err)
		}
	}
	return &PostGISRepository{db: db}, nil
}

const postgisColumns = `id, name, description, object_type, ST_X(geom), ST_Y(geom), created_at, updated_at`

func (r *PostGISRepository) List(ctx context.Context) ([]UserObject, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+postgisColumns+` FROM user_added_objects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

func (r *PostGISRepository) Get(ctx context.Context, id int64) (UserObject, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postgisColumns+` FROM user_added_objects WHERE id = $1`, id)
	return scanOne(row)
}

func (r *PostGISRepository) Create(ctx context.Context, p CreatePayload) (UserObject, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO user_added_objects (name, description, object_type, geom)
		 VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326))
		 RETURNING `+postgisColumns,
		p.Name, nullString(p.Description), nullString(p.ObjectType), p.Longitude, p.Latitude)
	obj, err := scanOne(row)
	if err != nil {
		return UserObject{}, fmt.Errorf("create object: %w", err)
	}
	return obj, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (UserObject, error) {
	var (
		obj         UserObject
		description sql.NullString
		objectType  sql.NullString
		lon, lat    float64
	)
	if err := s.Scan(&obj.ID, &obj.Name, &description, &objectType, &lon, &lat, &obj.CreatedAt, &obj.UpdatedAt); err != nil {
		return UserObject{}, err
	}
	if description.Valid {
		obj.Description = &description.String
	}
	if objectType.Valid {
		obj.ObjectType = &objectType.String
	}
	obj.Geom = geo.NewPoint(lon, lat)
	return obj, nil
}

func scanOne(row *sql.Row) (UserObject, error) {
	obj, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return UserObject{}, ErrNotFound
	}
	return obj, err
}

func scanAll(rows *sql.Rows) ([]UserObject, error) {
	out := []UserObject{}
	for rows.Next() {
		obj, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		out = append(out, obj)
	}
	return out, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

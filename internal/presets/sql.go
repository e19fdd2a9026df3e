package presets

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed migrations/*.sql
var migrations embed.FS

// Dialect names understood by Migrate.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// SQLStore keeps presets in SQLite or PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect string
	pool    *pgxpool.Pool
	now     func() time.Time
}

// OpenSQLite opens (and migrates) a SQLite database. Use ":memory:" for a
// throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	return newSQLStore(ctx, db, DialectSQLite, nil)
}

// OpenPostgres connects to PostgreSQL through a pgx pool and migrates the
// schema.
func OpenPostgres(ctx context.Context, url string) (*SQLStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return newSQLStore(ctx, stdlib.OpenDBFromPool(pool), DialectPostgres, pool)
}

func newSQLStore(ctx context.Context, db *sql.DB, dialect string, pool *pgxpool.Pool) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect, pool: pool, now: time.Now}
	if err := db.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	if err := Migrate(db, dialect); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Migrate runs all pending preset schema migrations.
func Migrate(db *sql.DB, dialect string) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases the database and, for PostgreSQL, the pool behind it.
func (s *SQLStore) Close() error {
	err := s.db.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

const presetColumns = "id, name, mapping, labels, headers, created_at, updated_at"

func (s *SQLStore) Create(ctx context.Context, p Preset) (Preset, error) {
	p, err := validate(p)
	if err != nil {
		return Preset{}, err
	}
	p.ID = uuid.New().String()
	p.CreatedAt = s.now().UTC()
	p.UpdatedAt = p.CreatedAt

	rec, err := encode(p)
	if err != nil {
		return Preset{}, err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO mapping_presets (`+presetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		rec.id, rec.name, rec.mapping, rec.labels, rec.columns, rec.createdAt, rec.updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Preset{}, fmt.Errorf("%w: %q", ErrExists, p.Name)
		}
		return Preset{}, fmt.Errorf("create preset: %w", err)
	}
	return p, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Preset, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+presetColumns+` FROM mapping_presets WHERE id = ?`), id)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Preset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Preset{}, fmt.Errorf("get preset: %w", err)
	}
	return p, nil
}

// List returns presets sorted by name. Rows that fail to decode are skipped.
func (s *SQLStore) List(ctx context.Context) ([]Preset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+presetColumns+` FROM mapping_presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	out := []Preset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Update(ctx context.Context, p Preset) (Preset, error) {
	p, err := validate(p)
	if err != nil {
		return Preset{}, err
	}
	old, err := s.Get(ctx, p.ID)
	if err != nil {
		return Preset{}, err
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = s.now().UTC()

	rec, err := encode(p)
	if err != nil {
		return Preset{}, err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`UPDATE mapping_presets
		SET name = ?, mapping = ?, labels = ?, headers = ?, updated_at = ?
		WHERE id = ?`),
		rec.name, rec.mapping, rec.labels, rec.columns, rec.updatedAt, rec.id)
	if err != nil {
		if isUniqueViolation(err) {
			return Preset{}, fmt.Errorf("%w: %q", ErrExists, p.Name)
		}
		return Preset{}, fmt.Errorf("update preset: %w", err)
	}
	return p, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM mapping_presets WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "mapping_presets_name_unique")
}

// record is the column form of a Preset.
type record struct {
	id, name                 string
	mapping, labels, columns string
	createdAt, updatedAt     string
}

func encode(p Preset) (record, error) {
	mapping, err := json.Marshal(p.Mapping)
	if err != nil {
		return record{}, fmt.Errorf("marshal mapping: %w", err)
	}
	labels, err := json.Marshal(p.Labels)
	if err != nil {
		return record{}, fmt.Errorf("marshal labels: %w", err)
	}
	columns, err := json.Marshal(p.Columns)
	if err != nil {
		return record{}, fmt.Errorf("marshal columns: %w", err)
	}
	return record{
		id:        p.ID,
		name:      p.Name,
		mapping:   string(mapping),
		labels:    string(labels),
		columns:   string(columns),
		createdAt: p.CreatedAt.Format(time.RFC3339Nano),
		updatedAt: p.UpdatedAt.Format(time.RFC3339Nano),
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(sc scanner) (Preset, error) {
	var rec record
	if err := sc.Scan(&rec.id, &rec.name, &rec.mapping, &rec.labels, &rec.columns, &rec.createdAt, &rec.updatedAt); err != nil {
		return Preset{}, err
	}

	p := Preset{ID: rec.id, Name: rec.name}
	if err := json.Unmarshal([]byte(rec.mapping), &p.Mapping); err != nil {
		return Preset{}, fmt.Errorf("unmarshal mapping: %w", err)
	}
	if err := json.Unmarshal([]byte(rec.labels), &p.Labels); err != nil {
		return Preset{}, fmt.Errorf("unmarshal labels: %w", err)
	}
	if err := json.Unmarshal([]byte(rec.columns), &p.Columns); err != nil {
		return Preset{}, fmt.Errorf("unmarshal columns: %w", err)
	}
	var err error
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, rec.createdAt); err != nil {
		return Preset{}, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, rec.updatedAt); err != nil {
		return Preset{}, fmt.Errorf("parse updated_at: %w", err)
	}
	p.Mapping = p.Mapping.Normalize()
	return p, nil
}

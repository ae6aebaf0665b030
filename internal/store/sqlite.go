package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	upsertOrderStmt    *sql.Stmt
	getOrderStmt       *sql.Stmt
	insertDesignStmt   *sql.Stmt
	getDesignStmt      *sql.Stmt
	designsByOrderStmt *sql.Stmt
}

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := st.prepareStatements(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			organization TEXT NOT NULL,
			notes TEXT NOT NULL,
			first_file_url TEXT NOT NULL,
			second_file_url TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS designs (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			template_id TEXT NOT NULL,
			theme TEXT NOT NULL,
			location TEXT NOT NULL,
			prompt TEXT NOT NULL,
			files_json BLOB NOT NULL,
			image_url TEXT NOT NULL,
			image_b64 TEXT NOT NULL,
			success INTEGER NOT NULL,
			error TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_designs_order_id ON designs(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_designs_template ON designs(template_id)`,
		`CREATE INDEX IF NOT EXISTS idx_designs_created_at ON designs(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.upsertOrderStmt,
			query: `
				INSERT INTO orders (
					id, first_name, last_name, organization, notes, first_file_url, second_file_url, fetched_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					first_name = excluded.first_name,
					last_name = excluded.last_name,
					organization = excluded.organization,
					notes = excluded.notes,
					first_file_url = excluded.first_file_url,
					second_file_url = excluded.second_file_url,
					fetched_at = excluded.fetched_at
			`,
			errFmt: "store: prepare upsert order: %w",
		},
		{
			dst: &s.getOrderStmt,
			query: `
				SELECT id, first_name, last_name, organization, notes, first_file_url, second_file_url, fetched_at
				FROM orders WHERE id = ?
			`,
			errFmt: "store: prepare get order: %w",
		},
		{
			dst: &s.insertDesignStmt,
			query: `
				INSERT INTO designs (
					id, order_id, template_id, theme, location, prompt, files_json,
					image_url, image_b64, success, error, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert design: %w",
		},
		{
			dst: &s.getDesignStmt,
			query: `
				SELECT id, order_id, template_id, theme, location, prompt, files_json,
					image_url, image_b64, success, error, created_at
				FROM designs WHERE id = ?
			`,
			errFmt: "store: prepare get design: %w",
		},
		{
			dst: &s.designsByOrderStmt,
			query: `
				SELECT id, order_id, template_id, theme, location, prompt, files_json,
					image_url, image_b64, success, error, created_at
				FROM designs
				WHERE order_id = ?
				ORDER BY created_at ASC, template_id ASC
			`,
			errFmt: "store: prepare designs by order: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}

	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	stmts := []*sql.Stmt{
		s.upsertOrderStmt,
		s.getOrderStmt,
		s.insertDesignStmt,
		s.getDesignStmt,
		s.designsByOrderStmt,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveOrder inserts or refreshes a cached order.
func (s *SQLiteStore) SaveOrder(ctx context.Context, order *OrderRecord) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if order == nil {
		return errors.New("store: nil order")
	}

	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("store: empty order id")
	}

	fetchedAt := order.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	_, err := s.upsertOrderStmt.ExecContext(
		ctx,
		id,
		order.FirstName,
		order.LastName,
		order.Organization,
		order.Notes,
		order.FirstFileURL,
		order.SecondFileURL,
		fetchedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store: upsert order: %w", err)
	}
	return nil
}

// GetOrder returns a cached order, or an error wrapping sql.ErrNoRows when
// the order has never been fetched.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*OrderRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty order id")
	}

	var (
		out       OrderRecord
		fetchedAt int64
	)
	err := s.getOrderStmt.QueryRowContext(ctx, id).Scan(
		&out.ID,
		&out.FirstName,
		&out.LastName,
		&out.Organization,
		&out.Notes,
		&out.FirstFileURL,
		&out.SecondFileURL,
		&fetchedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get order %q: %w", id, err)
	}
	out.FetchedAt = time.UnixMilli(fetchedAt).UTC()
	return &out, nil
}

// SaveDesign persists one generated design variation.
func (s *SQLiteStore) SaveDesign(ctx context.Context, design *DesignRecord) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if design == nil {
		return errors.New("store: nil design")
	}

	id := strings.TrimSpace(design.ID)
	if id == "" {
		return errors.New("store: empty design id")
	}
	if strings.TrimSpace(design.TemplateID) == "" {
		return errors.New("store: empty template id")
	}

	createdAt := design.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	filesJSON, err := json.Marshal(design.Files)
	if err != nil {
		return fmt.Errorf("store: marshal design files: %w", err)
	}

	_, err = s.insertDesignStmt.ExecContext(
		ctx,
		id,
		design.OrderID,
		design.TemplateID,
		design.Theme,
		design.Location,
		design.Prompt,
		filesJSON,
		design.ImageURL,
		design.ImageB64,
		boolToInt(design.Success),
		design.Error,
		createdAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store: insert design: %w", err)
	}
	return nil
}

// GetDesign returns one design by id.
func (s *SQLiteStore) GetDesign(ctx context.Context, id string) (*DesignRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty design id")
	}

	row := s.getDesignStmt.QueryRowContext(ctx, id)
	out, err := scanDesign(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("store: get design %q: %w", id, err)
	}
	return out, nil
}

// ListDesigns returns designs matching the filter, oldest first.
func (s *SQLiteStore) ListDesigns(ctx context.Context, filter DesignFilter) ([]*DesignRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	orderID := strings.TrimSpace(filter.OrderID)
	templateID := strings.TrimSpace(filter.TemplateID)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if orderID != "" && templateID == "" && filter.Since.IsZero() {
		rows, err = s.designsByOrderStmt.QueryContext(ctx, orderID)
	} else {
		query := `
			SELECT id, order_id, template_id, theme, location, prompt, files_json,
				image_url, image_b64, success, error, created_at
			FROM designs WHERE 1=1`
		args := make([]any, 0, 4)
		if orderID != "" {
			query += " AND order_id = ?"
			args = append(args, orderID)
		}
		if templateID != "" {
			query += " AND template_id = ?"
			args = append(args, templateID)
		}
		if !filter.Since.IsZero() {
			query += " AND created_at >= ?"
			args = append(args, filter.Since.UTC().UnixMilli())
		}
		query += " ORDER BY created_at ASC, template_id ASC LIMIT ?"
		args = append(args, limit)
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("store: list designs: %w", err)
	}
	defer rows.Close()

	var out []*DesignRecord
	for rows.Next() {
		d, err := scanDesign(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: scan design: %w", err)
		}
		out = append(out, d)
		if len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate designs: %w", err)
	}
	return out, nil
}

func scanDesign(scan func(...any) error) (*DesignRecord, error) {
	var (
		out       DesignRecord
		filesJSON []byte
		success   int
		createdAt int64
	)
	err := scan(
		&out.ID,
		&out.OrderID,
		&out.TemplateID,
		&out.Theme,
		&out.Location,
		&out.Prompt,
		&filesJSON,
		&out.ImageURL,
		&out.ImageB64,
		&success,
		&out.Error,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if len(filesJSON) > 0 {
		if err := json.Unmarshal(filesJSON, &out.Files); err != nil {
			return nil, fmt.Errorf("unmarshal design files: %w", err)
		}
	}
	out.Success = success != 0
	out.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

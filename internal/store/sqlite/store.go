// Package sqlite implements the library store on an embedded SQLite database.
// It backs single-machine deployments and the command-line tool.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/JonMunkholm/biblioteca/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is how timestamps are stored in TEXT columns.
const timeLayout = time.RFC3339Nano

// Store implements core.Store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ core.Store = (*Store)(nil)

// Open opens the database at path. ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite serializes writers; one connection also keeps an in-memory database alive.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func dsn(path string) string {
	path = strings.TrimPrefix(path, "sqlite://")
	if strings.Contains(path, "_pragma=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for tests and seeding.
func (s *Store) DB() *sql.DB {
	return s.db
}

// FindUserByUsername implements core.UserStore.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (core.User, error) {
	const q = `
		SELECT id, username, email, first_name, last_name, phone,
		       organization_id, program_id, password_hash, created_at
		FROM users
		WHERE username = ?`

	var (
		u                    core.User
		id, orgID, programID string
		createdAt            string
	)
	err := s.db.QueryRowContext(ctx, q, username).Scan(
		&id, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Phone,
		&orgID, &programID, &u.PasswordHash, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user %q: %w", username, err)
	}

	if u.ID, err = uuid.Parse(id); err != nil {
		return core.User{}, fmt.Errorf("find user %q: %w", username, err)
	}
	if u.OrganizationID, err = uuid.Parse(orgID); err != nil {
		return core.User{}, fmt.Errorf("find user %q: %w", username, err)
	}
	if u.ProgramID, err = uuid.Parse(programID); err != nil {
		return core.User{}, fmt.Errorf("find user %q: %w", username, err)
	}
	if u.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return core.User{}, fmt.Errorf("find user %q: %w", username, err)
	}
	return u, nil
}

// CreateUser implements core.UserStore.
func (s *Store) CreateUser(ctx context.Context, nu core.NewUser) (core.User, error) {
	const q = `
		INSERT INTO users (id, username, email, first_name, last_name, phone,
		                   organization_id, program_id, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	u := core.User{
		ID:             uuid.New(),
		Username:       nu.Username,
		Email:          nu.Email,
		FirstName:      nu.FirstName,
		LastName:       nu.LastName,
		Phone:          nu.Phone,
		OrganizationID: nu.OrganizationID,
		ProgramID:      nu.ProgramID,
		PasswordHash:   nu.PasswordHash,
		CreatedAt:      s.now(),
	}

	_, err := s.db.ExecContext(ctx, q,
		u.ID.String(), u.Username, u.Email, u.FirstName, u.LastName, u.Phone,
		u.OrganizationID.String(), u.ProgramID.String(), u.PasswordHash,
		u.CreatedAt.Format(timeLayout),
	)
	if isUniqueViolation(err) {
		return core.User{}, core.ErrUsernameTaken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user %q: %w", nu.Username, err)
	}
	return u, nil
}

// GetProfile implements core.UserStore.
func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (core.Profile, error) {
	const q = `
		SELECT u.username, u.email, u.first_name, u.last_name, u.phone,
		       o.name, p.name, u.created_at
		FROM users u
		JOIN organizations o ON o.id = u.organization_id
		JOIN programs p ON p.id = u.program_id
		WHERE u.id = ?`

	p := core.Profile{ID: id}
	var createdAt string
	err := s.db.QueryRowContext(ctx, q, id.String()).Scan(
		&p.Username, &p.Email, &p.FirstName, &p.LastName, &p.Phone,
		&p.Organization, &p.Program, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, core.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetOrCreateOrganization implements core.ReferenceStore.
func (s *Store) GetOrCreateOrganization(ctx context.Context, name string) (core.Organization, error) {
	id, err := s.upsertName(ctx, "organizations", name)
	if err != nil {
		return core.Organization{}, fmt.Errorf("get or create organization %q: %w", name, err)
	}
	return core.Organization{ID: id, Name: name}, nil
}

// GetOrCreateProgram implements core.ReferenceStore.
func (s *Store) GetOrCreateProgram(ctx context.Context, name string) (core.Program, error) {
	id, err := s.upsertName(ctx, "programs", name)
	if err != nil {
		return core.Program{}, fmt.Errorf("get or create program %q: %w", name, err)
	}
	return core.Program{ID: id, Name: name}, nil
}

// upsertName returns the id of the row named name in table, inserting it first if needed.
// table is always a package constant.
func (s *Store) upsertName(ctx context.Context, table, name string) (uuid.UUID, error) {
	q := `INSERT INTO ` + table + ` (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET name = excluded.name
		RETURNING id`

	var id string
	err := s.db.QueryRowContext(ctx, q,
		uuid.NewString(), name, s.now().Format(timeLayout),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(id)
}

// ListBooks implements core.CatalogStore.
func (s *Store) ListBooks(ctx context.Context) ([]core.CatalogItem, error) {
	const q = `
		SELECT id, kind, title, author, publisher, isbn, created_at
		FROM catalog_items
		WHERE kind = ?
		ORDER BY title, id`

	rows, err := s.db.QueryContext(ctx, q, string(core.KindBook))
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []core.CatalogItem{}
	for rows.Next() {
		var r itemRow
		if err := rows.Scan(&r.id, &r.kind, &r.title, &r.author, &r.publisher, &r.isbn, &r.createdAt); err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		item, err := r.toItem()
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		books = append(books, item)
	}
	return books, rows.Err()
}

// CreateBook implements core.CatalogStore.
func (s *Store) CreateBook(ctx context.Context, b core.NewBook) (core.CatalogItem, error) {
	const q = `
		INSERT INTO catalog_items (id, kind, title, author, publisher, isbn, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	item := core.CatalogItem{
		ID:        uuid.New(),
		Kind:      core.KindBook,
		Title:     b.Title,
		Author:    b.Author,
		Publisher: b.Publisher,
		ISBN:      b.ISBN,
		CreatedAt: s.now(),
	}
	_, err := s.db.ExecContext(ctx, q,
		item.ID.String(), string(item.Kind), item.Title,
		nullString(item.Author), nullString(item.Publisher), nullString(item.ISBN),
		item.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return core.CatalogItem{}, fmt.Errorf("create book %q: %w", b.Title, err)
	}
	return item, nil
}

// ListExemplars implements core.CatalogStore.
func (s *Store) ListExemplars(ctx context.Context) ([]core.Exemplar, error) {
	const q = `
		SELECT e.id, e.registration, e.excluded_from_loan, e.withdrawn,
		       c.id, c.kind, c.title, c.author, c.publisher, c.isbn, c.created_at
		FROM exemplars e
		JOIN catalog_items c ON c.id = e.item_id
		ORDER BY e.registration`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list exemplars: %w", err)
	}
	defer rows.Close()

	exemplars := []core.Exemplar{}
	for rows.Next() {
		var (
			ex   core.Exemplar
			exID string
			r    itemRow
		)
		if err := rows.Scan(
			&exID, &ex.Registration, &ex.ExcludedFromLoan, &ex.Withdrawn,
			&r.id, &r.kind, &r.title, &r.author, &r.publisher, &r.isbn, &r.createdAt,
		); err != nil {
			return nil, fmt.Errorf("list exemplars: %w", err)
		}
		if ex.ID, err = uuid.Parse(exID); err != nil {
			return nil, fmt.Errorf("list exemplars: %w", err)
		}
		if ex.Item, err = r.toItem(); err != nil {
			return nil, fmt.Errorf("list exemplars: %w", err)
		}
		if ex.Item.Kind != core.KindBook {
			ex.Item.Publisher, ex.Item.ISBN = "", ""
		}
		exemplars = append(exemplars, ex)
	}
	return exemplars, rows.Err()
}

// itemRow is a catalog_items row as scanned.
type itemRow struct {
	id, kind, title         string
	author, publisher, isbn sql.NullString
	createdAt               string
}

func (r itemRow) toItem() (core.CatalogItem, error) {
	id, err := uuid.Parse(r.id)
	if err != nil {
		return core.CatalogItem{}, err
	}
	createdAt, err := time.Parse(timeLayout, r.createdAt)
	if err != nil {
		return core.CatalogItem{}, err
	}
	return core.CatalogItem{
		ID:        id,
		Kind:      core.ParseItemKind(r.kind),
		Title:     r.title,
		Author:    r.author.String,
		Publisher: r.publisher.String,
		ISBN:      r.isbn.String,
		CreatedAt: createdAt,
	}, nil
}

// nullString stores blank optional text as NULL.
func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

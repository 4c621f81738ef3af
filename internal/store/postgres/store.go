// Package postgres implements the library store on PostgreSQL with pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/JonMunkholm/biblioteca/internal/config"
	"github.com/JonMunkholm/biblioteca/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store implements core.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool sized from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return New(pool), nil
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// FindUserByUsername implements core.UserStore.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (core.User, error) {
	const q = `
		SELECT id, username, email, first_name, last_name, phone,
		       organization_id, program_id, password_hash, created_at
		FROM users
		WHERE username = $1`

	var (
		u                    core.User
		id, orgID, programID pgtype.UUID
	)
	err := s.pool.QueryRow(ctx, q, username).Scan(
		&id, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Phone,
		&orgID, &programID, &u.PasswordHash, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user %q: %w", username, err)
	}

	u.ID = fromPgUUID(id)
	u.OrganizationID = fromPgUUID(orgID)
	u.ProgramID = fromPgUUID(programID)
	return u, nil
}

// CreateUser implements core.UserStore.
func (s *Store) CreateUser(ctx context.Context, nu core.NewUser) (core.User, error) {
	const q = `
		INSERT INTO users (id, username, email, first_name, last_name, phone,
		                   organization_id, program_id, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

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
	}

	err := s.pool.QueryRow(ctx, q,
		toPgUUID(u.ID), u.Username, u.Email, u.FirstName, u.LastName, u.Phone,
		toPgUUID(u.OrganizationID), toPgUUID(u.ProgramID), u.PasswordHash,
	).Scan(&u.CreatedAt)
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
		WHERE u.id = $1`

	p := core.Profile{ID: id}
	err := s.pool.QueryRow(ctx, q, toPgUUID(id)).Scan(
		&p.Username, &p.Email, &p.FirstName, &p.LastName, &p.Phone,
		&p.Organization, &p.Program, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Profile{}, core.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetOrCreateOrganization implements core.ReferenceStore.
// The no-op update makes RETURNING yield the existing row on conflict.
func (s *Store) GetOrCreateOrganization(ctx context.Context, name string) (core.Organization, error) {
	const q = `
		INSERT INTO organizations (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name`

	var (
		org core.Organization
		id  pgtype.UUID
	)
	if err := s.pool.QueryRow(ctx, q, toPgUUID(uuid.New()), name).Scan(&id, &org.Name); err != nil {
		return core.Organization{}, fmt.Errorf("get or create organization %q: %w", name, err)
	}
	org.ID = fromPgUUID(id)
	return org, nil
}

// GetOrCreateProgram implements core.ReferenceStore.
func (s *Store) GetOrCreateProgram(ctx context.Context, name string) (core.Program, error) {
	const q = `
		INSERT INTO programs (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name`

	var (
		p  core.Program
		id pgtype.UUID
	)
	if err := s.pool.QueryRow(ctx, q, toPgUUID(uuid.New()), name).Scan(&id, &p.Name); err != nil {
		return core.Program{}, fmt.Errorf("get or create program %q: %w", name, err)
	}
	p.ID = fromPgUUID(id)
	return p, nil
}

// ListBooks implements core.CatalogStore.
func (s *Store) ListBooks(ctx context.Context) ([]core.CatalogItem, error) {
	const q = `
		SELECT id, kind, title, author, publisher, isbn, created_at
		FROM catalog_items
		WHERE kind = $1
		ORDER BY title, id`

	rows, err := s.pool.Query(ctx, q, string(core.KindBook))
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []core.CatalogItem{}
	for rows.Next() {
		item, err := scanItem(rows)
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
		INSERT INTO catalog_items (id, kind, title, author, publisher, isbn)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	item := core.CatalogItem{
		ID:        uuid.New(),
		Kind:      core.KindBook,
		Title:     b.Title,
		Author:    b.Author,
		Publisher: b.Publisher,
		ISBN:      b.ISBN,
	}
	err := s.pool.QueryRow(ctx, q,
		toPgUUID(item.ID), string(item.Kind), item.Title,
		toPgText(item.Author), toPgText(item.Publisher), toPgText(item.ISBN),
	).Scan(&item.CreatedAt)
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

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list exemplars: %w", err)
	}
	defer rows.Close()

	exemplars := []core.Exemplar{}
	for rows.Next() {
		var (
			ex                      core.Exemplar
			exID, itemID            pgtype.UUID
			kind                    string
			author, publisher, isbn pgtype.Text
		)
		if err := rows.Scan(
			&exID, &ex.Registration, &ex.ExcludedFromLoan, &ex.Withdrawn,
			&itemID, &kind, &ex.Item.Title, &author, &publisher, &isbn, &ex.Item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list exemplars: %w", err)
		}
		ex.ID = fromPgUUID(exID)
		ex.Item.ID = fromPgUUID(itemID)
		ex.Item.Kind = core.ParseItemKind(kind)
		ex.Item.Author = fromPgText(author)
		if ex.Item.Kind == core.KindBook {
			ex.Item.Publisher = fromPgText(publisher)
			ex.Item.ISBN = fromPgText(isbn)
		}
		exemplars = append(exemplars, ex)
	}
	return exemplars, rows.Err()
}

func scanItem(row pgx.Row) (core.CatalogItem, error) {
	var (
		item                    core.CatalogItem
		id                      pgtype.UUID
		kind                    string
		author, publisher, isbn pgtype.Text
	)
	if err := row.Scan(&id, &kind, &item.Title, &author, &publisher, &isbn, &item.CreatedAt); err != nil {
		return core.CatalogItem{}, err
	}
	item.ID = fromPgUUID(id)
	item.Kind = core.ParseItemKind(kind)
	item.Author = fromPgText(author)
	item.Publisher = fromPgText(publisher)
	item.ISBN = fromPgText(isbn)
	return item, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

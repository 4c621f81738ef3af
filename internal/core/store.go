package core

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// UserStore persists library accounts.
type UserStore interface {
	// FindUserByUsername returns ErrNotFound when no account has the username.
	FindUserByUsername(ctx context.Context, username string) (User, error)
	// CreateUser returns ErrUsernameTaken when the username is already in use.
	CreateUser(ctx context.Context, u NewUser) (User, error)
	// GetProfile returns ErrNotFound for an unknown id.
	GetProfile(ctx context.Context, id uuid.UUID) (Profile, error)
}

// ReferenceStore resolves organizations and programs by exact name,
// creating them on first use. Both calls must be safe to race.
type ReferenceStore interface {
	GetOrCreateOrganization(ctx context.Context, name string) (Organization, error)
	GetOrCreateProgram(ctx context.Context, name string) (Program, error)
}

// CatalogStore reads and extends the catalog.
type CatalogStore interface {
	ListBooks(ctx context.Context) ([]CatalogItem, error)
	CreateBook(ctx context.Context, b NewBook) (CatalogItem, error)
	ListExemplars(ctx context.Context) ([]Exemplar, error)
}

// Store is a complete persistence backend.
type Store interface {
	UserStore
	ReferenceStore
	CatalogStore

	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// FileStore stages uploads on disk while they are imported.
type FileStore interface {
	// Save copies r to a new file and returns its path.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(path string) (io.ReadCloser, error)
	// Delete removes path. Deleting a missing file is not an error.
	Delete(path string) error
	// SweepStale removes staged files older than maxAge and returns how many it removed.
	SweepStale(maxAge time.Duration) (int, error)
}

package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/biblioteca/internal/config"
	"github.com/JonMunkholm/biblioteca/internal/logging"
	"github.com/JonMunkholm/biblioteca/internal/tabular"
	"github.com/google/uuid"
)

// DefaultImportTimeout bounds one import when no timeout is configured.
const DefaultImportTimeout = 5 * time.Minute

// Service provides the business operations behind the HTTP API and the CLI.
type Service struct {
	store         Store
	files         FileStore
	hasher        PasswordHasher
	importer      *Importer
	limiter       *ImportLimiter
	importTimeout time.Duration
}

// NewService wires a Service from its collaborators and the import settings.
func NewService(store Store, files FileStore, cfg config.ImportConfig) (*Service, error) {
	if store == nil {
		return nil, errors.New("new service: nil store")
	}
	if files == nil {
		return nil, errors.New("new service: nil file store")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultImportTimeout
	}

	hasher := NewBcryptHasher(cfg.BcryptCost)
	return &Service{
		store:         store,
		files:         files,
		hasher:        hasher,
		importer:      NewImporter(store, store, hasher, cfg.DefaultPassword),
		limiter:       NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		importTimeout: timeout,
	}, nil
}

// ImportUsers stages src in temporary storage and imports every row of it.
//
// The staged file is removed before ImportUsers returns, whatever the result.
// Per-row problems are reported in the outcome; anything that prevents the
// file from being imported as a whole is returned as an error and no outcome
// is reported. A file without a header row yields tabular.ErrEmptyFile.
func (s *Service) ImportUsers(ctx context.Context, fileName string, src io.Reader) (ImportOutcome, error) {
	if src == nil {
		return ImportOutcome{}, ErrNoFile
	}
	fileName = filepath.Base(fileName)

	if err := s.limiter.Acquire(ctx); err != nil {
		return ImportOutcome{}, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	logger := logging.WithFields(ctx,
		"import_id", uuid.NewString(),
		"file", fileName,
		"client_ip", ClientIPFromContext(ctx),
		"user_agent", UserAgentFromContext(ctx),
	)
	start := time.Now()

	path, err := s.files.Save(ctx, fileName, src)
	if err != nil {
		return ImportOutcome{}, fatal("save upload", err)
	}
	defer func() {
		if err := s.files.Delete(path); err != nil {
			logger.Warn("failed to remove staged upload", "path", path, "error", err)
		}
	}()

	outcome, err := s.importFile(ctx, fileName, path)
	if err != nil {
		logger.Error("import failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return ImportOutcome{}, err
	}

	logger.Info("import completed",
		"created", outcome.Created,
		"rejected", len(outcome.Errors),
		"skipped", outcome.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return outcome, nil
}

// importFile decodes the staged file in full, then runs the row pipeline.
func (s *Service) importFile(ctx context.Context, fileName, path string) (ImportOutcome, error) {
	f, err := s.files.Open(path)
	if err != nil {
		return ImportOutcome{}, fatal("open upload", err)
	}
	defer f.Close()

	sheet, err := tabular.Read(fileName, f)
	if errors.Is(err, tabular.ErrEmptyFile) {
		return ImportOutcome{}, err
	}
	if err != nil {
		return ImportOutcome{}, fatal("parse file", err)
	}

	outcome, err := s.importer.Import(ctx, sheet)
	if err != nil {
		return ImportOutcome{}, err
	}
	outcome.FileName = fileName
	return outcome, nil
}

// CheckCredentials reports whether username and password identify an account.
// An unknown username is not an error.
func (s *Service) CheckCredentials(ctx context.Context, username, password string) (bool, error) {
	user, err := s.store.FindUserByUsername(ctx, CanonicalEmail(username))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check credentials: %w", err)
	}
	return s.hasher.Matches(user.PasswordHash, password), nil
}

// GetProfile returns the profile of the account with the given id.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p, nil
}

// ListBooks returns every book in the catalog ordered by title.
func (s *Service) ListBooks(ctx context.Context) ([]CatalogItem, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// CreateBook adds a book to the catalog. Title is required.
func (s *Service) CreateBook(ctx context.Context, b NewBook) (CatalogItem, error) {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.Publisher = strings.TrimSpace(b.Publisher)
	b.ISBN = strings.TrimSpace(b.ISBN)
	if b.Title == "" {
		return CatalogItem{}, &ValidationError{Field: "title", Reason: "required field title is empty"}
	}

	item, err := s.store.CreateBook(ctx, b)
	if err != nil {
		return CatalogItem{}, fmt.Errorf("create book: %w", err)
	}
	return item, nil
}

// ListExemplars returns every physical copy with its catalog item.
func (s *Service) ListExemplars(ctx context.Context) ([]Exemplar, error) {
	exemplars, err := s.store.ListExemplars(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exemplars: %w", err)
	}
	return exemplars, nil
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ImportLimiterStatus returns the import limiter state.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

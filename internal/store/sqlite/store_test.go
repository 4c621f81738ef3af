package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/biblioteca/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(ctx))
	return s
}

func createUser(t *testing.T, s *Store, username string) core.User {
	t.Helper()
	ctx := context.Background()

	org, err := s.GetOrCreateOrganization(ctx, "Institut Escola")
	require.NoError(t, err)
	prog, err := s.GetOrCreateProgram(ctx, "1r ESO")
	require.NoError(t, err)

	u, err := s.CreateUser(ctx, core.NewUser{
		Username:       username,
		Email:          username,
		FirstName:      "Anna",
		LastName:       "Puig Soler",
		Phone:          "600111222",
		OrganizationID: org.ID,
		ProgramID:      prog.ID,
		PasswordHash:   "hash",
	})
	require.NoError(t, err)
	return u
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestGetOrCreateOrganization_ReturnsSameRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.GetOrCreateOrganization(ctx, "Institut Escola")
	require.NoError(t, err)
	second, err := s.GetOrCreateOrganization(ctx, "Institut Escola")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	var n int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestGetOrCreateProgram_CaseSensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	upper, err := s.GetOrCreateProgram(ctx, "DAW")
	require.NoError(t, err)
	lower, err := s.GetOrCreateProgram(ctx, "daw")
	require.NoError(t, err)

	assert.NotEqual(t, upper.ID, lower.ID)
}

func TestGetOrCreate_Concurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 8
	ids := make([]uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			org, err := s.GetOrCreateOrganization(ctx, "Escola Nova")
			assert.NoError(t, err)
			ids[i] = org.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
}

func TestFindUserByUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.FindUserByUsername(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)

	created := createUser(t, s, "anna@example.com")

	found, err := s.FindUserByUsername(ctx, "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, created.OrganizationID, found.OrganizationID)
	assert.Equal(t, "hash", found.PasswordHash)
	assert.True(t, created.CreatedAt.Equal(found.CreatedAt))
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	u := createUser(t, s, "anna@example.com")

	_, err := s.CreateUser(context.Background(), core.NewUser{
		Username:       "anna@example.com",
		Email:          "anna@example.com",
		FirstName:      "Anna",
		LastName:       "Other",
		Phone:          "600000000",
		OrganizationID: u.OrganizationID,
		ProgramID:      u.ProgramID,
		PasswordHash:   "hash",
	})
	assert.ErrorIs(t, err, core.ErrUsernameTaken)
}

func TestCreateUser_UnknownOrganization(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateUser(context.Background(), core.NewUser{
		Username:       "x@example.com",
		Email:          "x@example.com",
		FirstName:      "X",
		LastName:       "Y",
		Phone:          "600000000",
		OrganizationID: uuid.New(),
		ProgramID:      uuid.New(),
		PasswordHash:   "hash",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrUsernameTaken)
}

func TestGetProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "anna@example.com")

	p, err := s.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, "anna@example.com", p.Username)
	assert.Equal(t, "Puig Soler", p.LastName)
	assert.Equal(t, "Institut Escola", p.Organization)
	assert.Equal(t, "1r ESO", p.Program)

	_, err = s.GetProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.NotNil(t, books)

	_, err = s.CreateBook(ctx, core.NewBook{Title: "Mecanoscrit del segon origen", Author: "Manuel de Pedrolo", ISBN: "9788466404183"})
	require.NoError(t, err)
	_, err = s.CreateBook(ctx, core.NewBook{Title: "Canigó"})
	require.NoError(t, err)

	books, err = s.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Canigó", books[0].Title)
	assert.Empty(t, books[0].Author)
	assert.Equal(t, core.KindBook, books[1].Kind)
	assert.Equal(t, "9788466404183", books[1].ISBN)
}

func TestListExemplars(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book, err := s.CreateBook(ctx, core.NewBook{Title: "Tirant lo Blanc", Publisher: "Edicions 62"})
	require.NoError(t, err)

	dvdID := uuid.NewString()
	_, err = s.DB().ExecContext(ctx,
		`INSERT INTO catalog_items (id, kind, title, publisher, created_at) VALUES (?, 'dvd', 'Pa negre', 'ignored', ?)`,
		dvdID, book.CreatedAt.Format(timeLayout))
	require.NoError(t, err)

	_, err = s.DB().ExecContext(ctx, `
		INSERT INTO exemplars (id, item_id, registration, excluded_from_loan, withdrawn, created_at)
		VALUES (?, ?, 'R-002', 1, 0, ?), (?, ?, 'R-001', 0, 0, ?)`,
		uuid.NewString(), dvdID, book.CreatedAt.Format(timeLayout),
		uuid.NewString(), book.ID.String(), book.CreatedAt.Format(timeLayout))
	require.NoError(t, err)

	exemplars, err := s.ListExemplars(ctx)
	require.NoError(t, err)
	require.Len(t, exemplars, 2)

	assert.Equal(t, "R-001", exemplars[0].Registration)
	assert.Equal(t, book.ID, exemplars[0].Item.ID)
	assert.Equal(t, "Edicions 62", exemplars[0].Item.Publisher)

	assert.Equal(t, "R-002", exemplars[1].Registration)
	assert.True(t, exemplars[1].ExcludedFromLoan)
	assert.Equal(t, core.KindDVD, exemplars[1].Item.Kind)
	assert.Empty(t, exemplars[1].Item.Publisher)
}

func TestDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{":memory:", ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"sqlite://data.db", "data.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"file:data.db?mode=rwc", "file:data.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"data.db?_pragma=journal_mode(WAL)", "data.db?_pragma=journal_mode(WAL)"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, dsn(tt.in))
		})
	}
}

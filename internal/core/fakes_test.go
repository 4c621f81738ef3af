package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu            sync.Mutex
	users         map[string]User
	organizations map[string]Organization
	programs      map[string]Program
	books         []CatalogItem
	exemplars     []Exemplar

	orgCalls int

	// Injected failures.
	findErr   error
	createErr error
	orgErr    error
	// raceUsers makes CreateUser report these usernames as taken, as if another
	// import created them after the lookup.
	raceUsers map[string]bool
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[string]User),
		organizations: make(map[string]Organization),
		programs:      make(map[string]Program),
		raceUsers:     make(map[string]bool),
	}
}

func (m *memStore) FindUserByUsername(_ context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return User{}, m.findErr
	}
	u, ok := m.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *memStore) CreateUser(_ context.Context, nu NewUser) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return User{}, m.createErr
	}
	if _, ok := m.users[nu.Username]; ok || m.raceUsers[nu.Username] {
		return User{}, ErrUsernameTaken
	}
	u := User{
		ID:             uuid.New(),
		Username:       nu.Username,
		Email:          nu.Email,
		FirstName:      nu.FirstName,
		LastName:       nu.LastName,
		Phone:          nu.Phone,
		OrganizationID: nu.OrganizationID,
		ProgramID:      nu.ProgramID,
		PasswordHash:   nu.PasswordHash,
		CreatedAt:      time.Now(),
	}
	m.users[nu.Username] = u
	return u, nil
}

func (m *memStore) GetProfile(_ context.Context, id uuid.UUID) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID != id {
			continue
		}
		p := Profile{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Phone:     u.Phone,
			CreatedAt: u.CreatedAt,
		}
		for _, o := range m.organizations {
			if o.ID == u.OrganizationID {
				p.Organization = o.Name
			}
		}
		for _, pr := range m.programs {
			if pr.ID == u.ProgramID {
				p.Program = pr.Name
			}
		}
		return p, nil
	}
	return Profile{}, ErrNotFound
}

func (m *memStore) GetOrCreateOrganization(_ context.Context, name string) (Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orgCalls++
	if m.orgErr != nil {
		return Organization{}, m.orgErr
	}
	if o, ok := m.organizations[name]; ok {
		return o, nil
	}
	o := Organization{ID: uuid.New(), Name: name}
	m.organizations[name] = o
	return o, nil
}

func (m *memStore) GetOrCreateProgram(_ context.Context, name string) (Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.programs[name]; ok {
		return p, nil
	}
	p := Program{ID: uuid.New(), Name: name}
	m.programs[name] = p
	return p, nil
}

func (m *memStore) ListBooks(context.Context) ([]CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CatalogItem{}, m.books...), nil
}

func (m *memStore) CreateBook(_ context.Context, b NewBook) (CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := CatalogItem{
		ID:        uuid.New(),
		Kind:      KindBook,
		Title:     b.Title,
		Author:    b.Author,
		Publisher: b.Publisher,
		ISBN:      b.ISBN,
		CreatedAt: time.Now(),
	}
	m.books = append(m.books, item)
	return item, nil
}

func (m *memStore) ListExemplars(context.Context) ([]Exemplar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Exemplar{}, m.exemplars...), nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Ping(context.Context) error    { return nil }
func (m *memStore) Close() error                  { return nil }

func (m *memStore) userCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// plainHasher keeps importer tests fast.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "plain:" + plain, nil }
func (plainHasher) Matches(hash, plain string) bool   { return hash == "plain:"+plain }

// countingHasher records how often Hash runs.
type countingHasher struct {
	calls int
	err   error
}

func (h *countingHasher) Hash(plain string) (string, error) {
	h.calls++
	if h.err != nil {
		return "", h.err
	}
	return "plain:" + plain, nil
}

func (h *countingHasher) Matches(hash, plain string) bool { return hash == "plain:"+plain }

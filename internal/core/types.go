package core

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field is one named cell of an import row.
type Field struct {
	Name  string
	Value string
}

// Row is one line of an uploaded file, keyed by column name in file order.
type Row []Field

// NewRow pairs header names with record values, trimming both.
// Missing trailing values read as empty, extra values without a header are dropped,
// and a repeated column name keeps its first position with the last value.
func NewRow(header, values []string) Row {
	row := make(Row, 0, len(header))
	pos := make(map[string]int, len(header))

	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		var value string
		if i < len(values) {
			value = strings.TrimSpace(values[i])
		}

		if j, ok := pos[name]; ok {
			row[j].Value = value
			continue
		}
		pos[name] = len(row)
		row = append(row, Field{Name: name, Value: value})
	}
	return row
}

// Lookup returns the value of the first column matching any of names, case-insensitively.
func (r Row) Lookup(names ...string) (string, bool) {
	for _, name := range names {
		for _, f := range r {
			if strings.EqualFold(f.Name, name) {
				return f.Value, true
			}
		}
	}
	return "", false
}

// IsEmpty reports whether every field of the row is blank.
func (r Row) IsEmpty() bool {
	for _, f := range r {
		if strings.TrimSpace(f.Value) != "" {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the row as an object whose keys keep file order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NormalizedRecord is an import row after trimming and email canonicalization.
// Email is never empty and contains exactly one '@'.
type NormalizedRecord struct {
	Name             string
	Surname1         string
	Surname2         string
	Phone            string
	OrganizationName string
	ProgramName      string
	Email            string
}

// LastName joins both surnames the way accounts store them.
func (r NormalizedRecord) LastName() string {
	return strings.TrimSpace(r.Surname1 + " " + r.Surname2)
}

// Organization is the school or centre a user belongs to.
type Organization struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Program is the course or group a user is enrolled in.
type Program struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// User is a library account.
type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	FirstName      string
	LastName       string
	Phone          string
	OrganizationID uuid.UUID
	ProgramID      uuid.UUID
	PasswordHash   string
	CreatedAt      time.Time
}

// NewUser holds the fields needed to create an account.
type NewUser struct {
	Username       string
	Email          string
	FirstName      string
	LastName       string
	Phone          string
	OrganizationID uuid.UUID
	ProgramID      uuid.UUID
	PasswordHash   string
}

// Profile is the public view of an account with its references resolved.
type Profile struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	Organization string    `json:"organization"`
	Program      string    `json:"program"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreatedRecord summarizes an account created by an import.
type CreatedRecord struct {
	Name         string `json:"name"`
	Surname1     string `json:"surname1"`
	Surname2     string `json:"surname2"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Organization string `json:"organization"`
	Program      string `json:"program"`
}

// RowError is a rejected row with the reason it was rejected.
type RowError struct {
	Line   int    `json:"line"`
	Row    Row    `json:"row"`
	Reason string `json:"error"`
}

// ImportOutcome is the result of one import call.
type ImportOutcome struct {
	FileName string
	Created  int
	Skipped  int
	Records  []CreatedRecord
	Errors   []RowError
}

// ItemKind tags the concrete type of a catalog item.
type ItemKind string

const (
	KindBook     ItemKind = "book"
	KindMagazine ItemKind = "magazine"
	KindCD       ItemKind = "cd"
	KindDVD      ItemKind = "dvd"
	KindBluRay   ItemKind = "bluray"
	KindDevice   ItemKind = "device"
	KindOther    ItemKind = "other"
)

// ParseItemKind maps a stored kind to its constant. Unknown values map to KindOther.
func ParseItemKind(s string) ItemKind {
	switch k := ItemKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindBook, KindMagazine, KindCD, KindDVD, KindBluRay, KindDevice:
		return k
	default:
		return KindOther
	}
}

// CatalogItem is a bibliographic record. Publisher and ISBN are only set for books.
type CatalogItem struct {
	ID        uuid.UUID `json:"id"`
	Kind      ItemKind  `json:"kind"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	Publisher string    `json:"publisher,omitempty"`
	ISBN      string    `json:"isbn,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBook holds the fields needed to add a book to the catalog.
type NewBook struct {
	Title     string
	Author    string
	Publisher string
	ISBN      string
}

// Exemplar is one physical copy of a catalog item.
type Exemplar struct {
	ID               uuid.UUID   `json:"id"`
	Registration     string      `json:"registration"`
	ExcludedFromLoan bool        `json:"excluded_from_loan"`
	Withdrawn        bool        `json:"withdrawn"`
	Item             CatalogItem `json:"item"`
}

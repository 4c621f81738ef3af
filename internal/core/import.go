package core

// import.go drives the per-row import pipeline.
//
// Each row ends in exactly one of three states: created, skipped or rejected.
// The outcome is an explicit accumulator value: processRow classifies a row
// and ImportOutcome.add folds the result in, so nothing outside the loop
// holds import state. Only errors that are not about the row itself (a store
// outage, a cancelled context) escape as *ImportError, and they discard the
// accumulator entirely.

import (
	"context"
	"errors"

	"github.com/JonMunkholm/biblioteca/internal/tabular"
)

type rowState int

const (
	rowCreated rowState = iota
	rowSkipped
	rowRejected
)

type rowResult struct {
	state  rowState
	record CreatedRecord
	reason string
}

func created(rec CreatedRecord) rowResult { return rowResult{state: rowCreated, record: rec} }
func skipped() rowResult                  { return rowResult{state: rowSkipped} }
func rejected(err error) rowResult        { return rowResult{state: rowRejected, reason: err.Error()} }

func newImportOutcome() ImportOutcome {
	return ImportOutcome{
		Records: []CreatedRecord{},
		Errors:  []RowError{},
	}
}

// add folds one row result into the outcome.
func (o ImportOutcome) add(line int, row Row, res rowResult) ImportOutcome {
	switch res.state {
	case rowCreated:
		o.Created++
		o.Records = append(o.Records, res.record)
	case rowSkipped:
		o.Skipped++
	case rowRejected:
		o.Errors = append(o.Errors, RowError{Line: line, Row: row, Reason: res.reason})
	}
	return o
}

// Importer creates accounts from decoded rows.
type Importer struct {
	users           UserStore
	refs            ReferenceStore
	hasher          PasswordHasher
	defaultPassword string
}

// NewImporter returns an Importer that gives every new account defaultPassword.
func NewImporter(users UserStore, refs ReferenceStore, hasher PasswordHasher, defaultPassword string) *Importer {
	return &Importer{
		users:           users,
		refs:            refs,
		hasher:          hasher,
		defaultPassword: defaultPassword,
	}
}

// passwordHash hashes the default password on first use and reuses the
// result for every account of the same import.
type passwordHash struct {
	hasher PasswordHasher
	plain  string
	value  string
}

func (p *passwordHash) get() (string, error) {
	if p.value != "" {
		return p.value, nil
	}
	h, err := p.hasher.Hash(p.plain)
	if err != nil {
		return "", err
	}
	p.value = h
	return h, nil
}

// Import processes every record of sheet in file order.
func (im *Importer) Import(ctx context.Context, sheet *tabular.Sheet) (ImportOutcome, error) {
	outcome := newImportOutcome()
	refs := newReferenceResolver(im.refs)
	password := &passwordHash{hasher: im.hasher, plain: im.defaultPassword}

	for _, rec := range sheet.Records {
		if err := ctx.Err(); err != nil {
			return ImportOutcome{}, fatal("rows", err)
		}

		row := NewRow(sheet.Header, rec.Values)
		res, err := im.processRow(ctx, refs, password, row)
		if err != nil {
			return ImportOutcome{}, err
		}
		outcome = outcome.add(rec.Line, row, res)
	}

	return outcome, nil
}

func (im *Importer) processRow(ctx context.Context, refs *referenceResolver, password *passwordHash, row Row) (rowResult, error) {
	rec, err := Normalize(row)
	if errors.Is(err, errEmptyRow) {
		return skipped(), nil
	}
	if err != nil {
		return rejected(err), nil
	}

	if err := ValidateRecord(rec); err != nil {
		return rejected(err), nil
	}

	_, err = im.users.FindUserByUsername(ctx, rec.Email)
	switch {
	case err == nil:
		return rejected(&DuplicateEmailError{Email: rec.Email}), nil
	case !errors.Is(err, ErrNotFound):
		return rowResult{}, fatal("find user", err)
	}

	org, err := refs.organization(ctx, rec.OrganizationName)
	if err != nil {
		return rowResult{}, fatal("resolve organization", err)
	}
	program, err := refs.program(ctx, rec.ProgramName)
	if err != nil {
		return rowResult{}, fatal("resolve program", err)
	}

	hash, err := password.get()
	if err != nil {
		return rowResult{}, fatal("hash password", err)
	}

	_, err = im.users.CreateUser(ctx, NewUser{
		Username:       rec.Email,
		Email:          rec.Email,
		FirstName:      rec.Name,
		LastName:       rec.LastName(),
		Phone:          rec.Phone,
		OrganizationID: org.ID,
		ProgramID:      program.ID,
		PasswordHash:   hash,
	})
	if errors.Is(err, ErrUsernameTaken) {
		// Another import created the account after the lookup above.
		return rejected(&DuplicateEmailError{Email: rec.Email}), nil
	}
	if err != nil {
		return rowResult{}, fatal("create user", err)
	}

	return created(CreatedRecord{
		Name:         rec.Name,
		Surname1:     rec.Surname1,
		Surname2:     rec.Surname2,
		Email:        rec.Email,
		Phone:        rec.Phone,
		Organization: org.Name,
		Program:      program.Name,
	}), nil
}

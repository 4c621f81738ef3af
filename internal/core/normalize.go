package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Canonical import columns.
const (
	ColumnName         = "name"
	ColumnSurname1     = "surname1"
	ColumnSurname2     = "surname2"
	ColumnEmail        = "email"
	ColumnPhone        = "phone"
	ColumnOrganization = "organization"
	ColumnProgram      = "program"
)

// columnAliases lists the accepted headers per column, canonical name first.
// The Catalan names match the spreadsheets schools already export.
var columnAliases = map[string][]string{
	ColumnName:         {ColumnName, "nom"},
	ColumnSurname1:     {ColumnSurname1, "cognom1"},
	ColumnSurname2:     {ColumnSurname2, "cognom2"},
	ColumnEmail:        {ColumnEmail, "correu", "e-mail"},
	ColumnPhone:        {ColumnPhone, "telefon", "telèfon"},
	ColumnOrganization: {ColumnOrganization, "centre"},
	ColumnProgram:      {ColumnProgram, "grup", "cicle"},
}

// Columns returns the canonical column names in template order.
func Columns() []string {
	return []string{
		ColumnName, ColumnSurname1, ColumnSurname2, ColumnEmail,
		ColumnPhone, ColumnOrganization, ColumnProgram,
	}
}

func column(row Row, name string) string {
	v, _ := row.Lookup(columnAliases[name]...)
	return v
}

// Normalize turns a raw row into a NormalizedRecord.
// It returns errEmptyRow for blank rows and a *ValidationError when the
// email is unusable or a required field is blank. The email check runs first.
func Normalize(row Row) (NormalizedRecord, error) {
	if row.IsEmpty() {
		return NormalizedRecord{}, errEmptyRow
	}

	email := CanonicalEmail(column(row, ColumnEmail))
	if !validEmailShape(email) {
		return NormalizedRecord{}, &ValidationError{Field: ColumnEmail, Value: email, Reason: ReasonInvalidEmail}
	}

	rec := NormalizedRecord{
		Name:             norm.NFC.String(column(row, ColumnName)),
		Surname1:         norm.NFC.String(column(row, ColumnSurname1)),
		Surname2:         norm.NFC.String(column(row, ColumnSurname2)),
		Phone:            column(row, ColumnPhone),
		OrganizationName: norm.NFC.String(column(row, ColumnOrganization)),
		ProgramName:      norm.NFC.String(column(row, ColumnProgram)),
		Email:            email,
	}

	for _, v := range []string{rec.Name, rec.Surname1, rec.Surname2, rec.Phone, rec.OrganizationName, rec.ProgramName} {
		if v == "" {
			return NormalizedRecord{}, &ValidationError{Reason: ReasonMissingFields}
		}
	}

	return rec, nil
}

// CanonicalEmail lower-cases an address and removes all whitespace from it.
func CanonicalEmail(s string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// validEmailShape requires exactly one '@' with text on both sides.
func validEmailShape(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	return ok && local != "" && domain != "" && !strings.Contains(domain, "@")
}

package core

// validation.go holds the pure field checks applied to every import row.
//
// Names are compared after NFC normalization so that a name typed with a
// combining accent ("Jose" + U+0301) and one typed with a precomposed letter
// ("José") are treated alike.

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Phone numbers must have between MinPhoneDigits and MaxPhoneDigits ASCII digits.
const (
	MinPhoneDigits = 9
	MaxPhoneDigits = 15
)

// ValidateName checks that value is made only of Latin letters, accented forms included.
func ValidateName(field, value string) error {
	if value == "" || !isLatinWord(norm.NFC.String(value)) {
		return &ValidationError{Field: field, Value: value, Reason: ReasonInvalidName}
	}
	return nil
}

// ValidateOptionalName is ValidateName for fields that may be left blank.
func ValidateOptionalName(field, value string) error {
	if value == "" {
		return nil
	}
	return ValidateName(field, value)
}

// ValidatePhone checks that value is all ASCII digits with an accepted length.
func ValidatePhone(value string) error {
	if len(value) < MinPhoneDigits || len(value) > MaxPhoneDigits {
		return &ValidationError{Field: ColumnPhone, Value: value, Reason: ReasonInvalidPhone}
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return &ValidationError{Field: ColumnPhone, Value: value, Reason: ReasonInvalidPhone}
		}
	}
	return nil
}

// ValidateRecord runs the field checks in order and returns the first failure.
func ValidateRecord(rec NormalizedRecord) error {
	if err := ValidateName(ColumnName, rec.Name); err != nil {
		return err
	}
	if err := ValidateName(ColumnSurname1, rec.Surname1); err != nil {
		return err
	}
	if err := ValidateOptionalName(ColumnSurname2, rec.Surname2); err != nil {
		return err
	}
	return ValidatePhone(rec.Phone)
}

func isLatinWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) || !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}

package core

import (
	"errors"
	"testing"
)

var testHeader = []string{"name", "surname1", "surname2", "email", "phone", "organization", "program"}

func testRow(values ...string) Row {
	return NewRow(testHeader, values)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		row        Row
		wantReason string
		wantEmpty  bool
		want       NormalizedRecord
	}{
		{
			name: "valid row is trimmed and email canonicalized",
			row:  testRow(" Anna ", "Puig", "Soler", " Anna.Puig@Example.COM ", "600111222", "Institut Escola", "1r ESO"),
			want: NormalizedRecord{
				Name: "Anna", Surname1: "Puig", Surname2: "Soler",
				Email: "anna.puig@example.com", Phone: "600111222",
				OrganizationName: "Institut Escola", ProgramName: "1r ESO",
			},
		},
		{
			name:      "blank row",
			row:       testRow("", " ", "", "", "", "", ""),
			wantEmpty: true,
		},
		{
			name:       "missing email",
			row:        testRow("Anna", "Puig", "Soler", "", "600111222", "Org", "Prog"),
			wantReason: ReasonInvalidEmail,
		},
		{
			name:       "email without at sign",
			row:        testRow("Anna", "Puig", "Soler", "anna.example.com", "600111222", "Org", "Prog"),
			wantReason: ReasonInvalidEmail,
		},
		{
			name:       "email with two at signs",
			row:        testRow("Anna", "Puig", "Soler", "a@b@c", "600111222", "Org", "Prog"),
			wantReason: ReasonInvalidEmail,
		},
		{
			name:       "email check runs before required fields",
			row:        testRow("", "", "", "bad", "", "", ""),
			wantReason: ReasonInvalidEmail,
		},
		{
			name:       "missing organization",
			row:        testRow("Anna", "Puig", "Soler", "anna@example.com", "600111222", "", "Prog"),
			wantReason: ReasonMissingFields,
		},
		{
			name:       "missing second surname",
			row:        testRow("Anna", "Puig", "", "anna@example.com", "600111222", "Org", "Prog"),
			wantReason: ReasonMissingFields,
		},
		{
			name:       "short row pads with blanks",
			row:        testRow("Anna", "Puig", "Soler", "anna@example.com"),
			wantReason: ReasonMissingFields,
		},
		{
			name: "catalan headers",
			row: NewRow(
				[]string{"nom", "cognom1", "cognom2", "correu", "telèfon", "centre", "grup"},
				[]string{"Pau", "Vila", "Roca", "pau@example.com", "600222333", "Escola", "2n"},
			),
			want: NormalizedRecord{
				Name: "Pau", Surname1: "Vila", Surname2: "Roca",
				Email: "pau@example.com", Phone: "600222333",
				OrganizationName: "Escola", ProgramName: "2n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.row)

			if tt.wantEmpty {
				if !errors.Is(err, errEmptyRow) {
					t.Fatalf("Normalize() error = %v, want errEmptyRow", err)
				}
				return
			}

			if tt.wantReason != "" {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("Normalize() error = %v, want *ValidationError", err)
				}
				if ve.Reason != tt.wantReason {
					t.Errorf("Reason = %q, want %q", ve.Reason, tt.wantReason)
				}
				return
			}

			if err != nil {
				t.Fatalf("Normalize() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalize_ComposesAccents(t *testing.T) {
	// "Jose" followed by a combining acute accent.
	rec, err := Normalize(testRow("Jose\u0301", "Puig", "Soler", "j@example.com", "600111222", "Org", "Prog"))
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if rec.Name != "Jos\u00e9" {
		t.Errorf("Name = %q, want precomposed %q", rec.Name, "Jos\u00e9")
	}
}

func TestCanonicalEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Anna@Example.com", "anna@example.com"},
		{"  anna @ example.com\t", "anna@example.com"},
		{"a n n a@x.y", "anna@x.y"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CanonicalEmail(tt.in); got != tt.want {
			t.Errorf("CanonicalEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"Anna", true},
		{"Núria", true},
		{"Çà", true},
		{"Jose\u0301", true},
		{"", false},
		{"Anna2", false},
		{"Anna Maria", false},
		{"Puig-Soler", false},
		{"Ανна", false},
		// Compound and punctuated names are rejected too.
		{"Maria Jose", false},
		{"Pérez-Gil", false},
		{"D'Amico", false},
	}
	for _, tt := range tests {
		err := ValidateName(ColumnName, tt.value)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateName(%q) error = %v, want ok=%v", tt.value, err, tt.ok)
		}
		if err != nil && err.Error() != ReasonInvalidName {
			t.Errorf("ValidateName(%q) error = %q, want %q", tt.value, err, ReasonInvalidName)
		}
	}
}

func TestValidateOptionalName(t *testing.T) {
	if err := ValidateOptionalName(ColumnSurname2, ""); err != nil {
		t.Errorf("empty optional name: %v", err)
	}
	if err := ValidateOptionalName(ColumnSurname2, "R2"); err == nil {
		t.Error("expected error for R2")
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"600111222", true},
		{"123456789012345", true},
		{"12345678", false},
		{"1234567890123456", false},
		{"12345678901234567890", false},
		{"600 111 222", false},
		{"+34600111222", false},
		{"60011122a", false},
		{"６００１１１２２２", false},
	}
	for _, tt := range tests {
		err := ValidatePhone(tt.value)
		if (err == nil) != tt.ok {
			t.Errorf("ValidatePhone(%q) error = %v, want ok=%v", tt.value, err, tt.ok)
		}
		if err != nil && err.Error() != ReasonInvalidPhone {
			t.Errorf("ValidatePhone(%q) error = %q, want %q", tt.value, err, ReasonInvalidPhone)
		}
	}
}

func TestValidateRecord_Order(t *testing.T) {
	rec := NormalizedRecord{Name: "Anna1", Surname1: "Puig", Phone: "bad"}
	err := ValidateRecord(rec)
	if err == nil || err.Error() != ReasonInvalidName {
		t.Fatalf("ValidateRecord() = %v, want %q first", err, ReasonInvalidName)
	}

	rec.Name = "Anna"
	err = ValidateRecord(rec)
	if err == nil || err.Error() != ReasonInvalidPhone {
		t.Fatalf("ValidateRecord() = %v, want %q", err, ReasonInvalidPhone)
	}
}

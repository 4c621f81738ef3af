package core

import (
	"encoding/json"
	"testing"
)

func TestNewRow(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		values []string
		want   Row
	}{
		{
			name:   "pairs and trims",
			header: []string{" name ", "email"},
			values: []string{" Anna ", "a@x.y "},
			want:   Row{{"name", "Anna"}, {"email", "a@x.y"}},
		},
		{
			name:   "missing values read as empty",
			header: []string{"name", "email", "phone"},
			values: []string{"Anna"},
			want:   Row{{"name", "Anna"}, {"email", ""}, {"phone", ""}},
		},
		{
			name:   "extra values are dropped",
			header: []string{"name"},
			values: []string{"Anna", "extra"},
			want:   Row{{"name", "Anna"}},
		},
		{
			name:   "unnamed columns are dropped",
			header: []string{"name", "", "email"},
			values: []string{"Anna", "x", "a@x.y"},
			want:   Row{{"name", "Anna"}, {"email", "a@x.y"}},
		},
		{
			name:   "repeated column keeps first position and last value",
			header: []string{"email", "name", "email"},
			values: []string{"first@x.y", "Anna", "second@x.y"},
			want:   Row{{"email", "second@x.y"}, {"name", "Anna"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRow(tt.header, tt.values)
			if len(got) != len(tt.want) {
				t.Fatalf("NewRow() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("field %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRow_Lookup(t *testing.T) {
	row := Row{{"Correu", "a@x.y"}, {"nom", "Anna"}}

	if v, ok := row.Lookup("email", "correu"); !ok || v != "a@x.y" {
		t.Errorf("Lookup(email, correu) = %q, %v", v, ok)
	}
	if _, ok := row.Lookup("phone"); ok {
		t.Error("Lookup(phone) found a value")
	}
}

func TestRow_MarshalJSONKeepsFileOrder(t *testing.T) {
	row := Row{{"surname1", "Puig"}, {"name", "Anna"}, {"email", `a"b@x.y`}}

	got, err := json.Marshal(RowError{Line: 2, Row: row, Reason: ReasonInvalidEmail})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := `{"line":2,"row":{"surname1":"Puig","name":"Anna","email":"a\"b@x.y"},"error":"invalid email"}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestRow_MarshalJSONEmpty(t *testing.T) {
	got, err := json.Marshal(Row{})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(got) != "{}" {
		t.Errorf("Marshal() = %s, want {}", got)
	}
}

func TestParseItemKind(t *testing.T) {
	tests := map[string]ItemKind{
		"book":     KindBook,
		" DVD ":    KindDVD,
		"bluray":   KindBluRay,
		"vinyl":    KindOther,
		"":         KindOther,
		"device":   KindDevice,
		"Magazine": KindMagazine,
	}
	for in, want := range tests {
		if got := ParseItemKind(in); got != want {
			t.Errorf("ParseItemKind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizedRecord_LastName(t *testing.T) {
	if got := (NormalizedRecord{Surname1: "Puig", Surname2: "Soler"}).LastName(); got != "Puig Soler" {
		t.Errorf("LastName() = %q", got)
	}
	if got := (NormalizedRecord{Surname1: "Puig"}).LastName(); got != "Puig" {
		t.Errorf("LastName() = %q", got)
	}
}

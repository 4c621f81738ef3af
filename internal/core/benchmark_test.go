package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"testing"

	"github.com/JonMunkholm/biblioteca/internal/tabular"
)

// ============================================================================
// Row Benchmarks
// ============================================================================

// BenchmarkNormalize benchmarks the per-row normalization hot path.
func BenchmarkNormalize(b *testing.B) {
	row := testRow(" Anna ", "Puig", "Soler", " Anna.Puig@Example.COM ", "600111222", "Institut Escola", "1r ESO")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Normalize(row)
	}
}

// BenchmarkNormalize_Accents benchmarks names that need NFC composition.
func BenchmarkNormalize_Accents(b *testing.B) {
	row := testRow("José", "García", "Muñoz", "jose@example.com", "600111222", "Escola", "2n")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Normalize(row)
	}
}

// BenchmarkCanonicalEmail benchmarks email canonicalization.
func BenchmarkCanonicalEmail(b *testing.B) {
	for i := 0; i < b.N; i++ {
		CanonicalEmail("  Anna.Puig @Example.COM\t")
	}
}

// BenchmarkValidateRecord benchmarks the full record validation.
func BenchmarkValidateRecord(b *testing.B) {
	rec := NormalizedRecord{
		Name: "Núria", Surname1: "Ferrer", Surname2: "Gil",
		Email: "nuria@example.com", Phone: "600333444",
		OrganizationName: "Escola", ProgramName: "2n",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ValidateRecord(rec)
	}
}

// BenchmarkNewRow benchmarks pairing a header with record values.
func BenchmarkNewRow(b *testing.B) {
	values := []string{" Anna ", "Puig", "Soler", "anna@example.com", "600111222", "Institut Escola", "1r ESO"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NewRow(testHeader, values)
	}
}

// ============================================================================
// Import Benchmarks
// ============================================================================

// BenchmarkReadCSV benchmarks parsing a class-sized file.
func BenchmarkReadCSV(b *testing.B) {
	data := generateTestCSV(500)

	b.ResetTimer()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		if _, err := tabular.ReadCSV(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkImport benchmarks the row loop against the in-memory store.
// Password hashing is excluded by plainHasher.
func BenchmarkImport(b *testing.B) {
	sheet, err := tabular.ReadCSV(bytes.NewReader(generateTestCSV(500)))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		im := newTestImporter(newMemStore())
		b.StartTimer()

		out, err := im.Import(context.Background(), sheet)
		if err != nil {
			b.Fatal(err)
		}
		if out.Created != 500 {
			b.Fatalf("Created = %d, want 500", out.Created)
		}
	}
}

// BenchmarkImport_AllDuplicates benchmarks a re-upload of an already imported file.
func BenchmarkImport_AllDuplicates(b *testing.B) {
	sheet, err := tabular.ReadCSV(bytes.NewReader(generateTestCSV(500)))
	if err != nil {
		b.Fatal(err)
	}
	store := newMemStore()
	im := newTestImporter(store)
	if _, err := im.Import(context.Background(), sheet); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out, err := im.Import(context.Background(), sheet)
		if err != nil {
			b.Fatal(err)
		}
		if len(out.Errors) != 500 {
			b.Fatalf("len(Errors) = %d, want 500", len(out.Errors))
		}
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateTestCSV generates a users file with the specified number of distinct rows.
func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write(testHeader)

	for i := 0; i < rows; i++ {
		w.Write([]string{
			"Anna",
			"Puig",
			"Soler",
			fmt.Sprintf("alumne%d@example.com", i),
			"600111222",
			"Institut Escola",
			fmt.Sprintf("Grup %d", i%4),
		})
	}
	w.Flush()

	return buf.Bytes()
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/biblioteca/internal/core"
	"github.com/JonMunkholm/biblioteca/internal/storage"
)

// importResult mirrors the HTTP import response.
type importResult struct {
	File    string               `json:"file"`
	Created int                  `json:"created"`
	Skipped int                  `json:"skipped"`
	Records []core.CreatedRecord `json:"records"`
	Errors  []core.RowError      `json:"errors"`
}

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create library accounts from a CSV or XLSX file",
		Long: "Import reads one user per row and creates an account for every valid row.\n" +
			"Rejected rows are listed with their reason; they do not fail the command.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd, args[0])
		},
	}

	f := cmd.Flags()
	f.String("default-password", "1234", "password assigned to every imported account")
	f.Int("bcrypt-cost", 10, "bcrypt work factor for password hashes")
	f.Duration("timeout", 5*time.Minute, "maximum duration of the import")
	f.String("temp-dir", "", "directory for staging the file (default: OS temp dir)")

	_ = a.v.BindPFlag(keyDefaultPassword, f.Lookup("default-password"))
	_ = a.v.BindPFlag(keyBcryptCost, f.Lookup("bcrypt-cost"))
	_ = a.v.BindPFlag(keyImportTimeout, f.Lookup("timeout"))
	_ = a.v.BindPFlag(keyTempDir, f.Lookup("temp-dir"))
	_ = a.v.BindEnv(keyDefaultPassword, "IMPORT_DEFAULT_PASSWORD")
	_ = a.v.BindEnv(keyBcryptCost, "IMPORT_BCRYPT_COST")
	_ = a.v.BindEnv(keyImportTimeout, "IMPORT_TIMEOUT")
	_ = a.v.BindEnv(keyTempDir, "STORAGE_TEMP_DIR")

	return cmd
}

func (a *app) runImport(cmd *cobra.Command, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	defer src.Close()

	st, err := a.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	files, err := storage.NewLocalStore(a.v.GetString(keyTempDir))
	if err != nil {
		return err
	}

	importCfg := a.importConfig()
	if importCfg.DefaultPassword == "1234" {
		a.logger.Warn("imported accounts get the default password; pass --default-password or set IMPORT_DEFAULT_PASSWORD")
	}

	svc, err := core.NewService(st, files, importCfg)
	if err != nil {
		return err
	}

	outcome, err := svc.ImportUsers(cmd.Context(), filepath.Base(path), src)
	if err != nil {
		return err
	}

	result := importResult{
		File:    outcome.FileName,
		Created: outcome.Created,
		Skipped: outcome.Skipped,
		Records: outcome.Records,
		Errors:  outcome.Errors,
	}
	if a.v.GetBool(keyJSON) {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	printImport(cmd.OutOrStdout(), result)
	return nil
}

func printImport(w io.Writer, r importResult) {
	fmt.Fprintf(w, "%s: %d created, %d skipped, %d rejected\n", r.File, r.Created, r.Skipped, len(r.Errors))
	for _, rec := range r.Records {
		fmt.Fprintf(w, "  + %s\n", rec.Email)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  line %d: %s\n", e.Line, e.Reason)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Package cli implements the bibliotecactl administration command.
//
// Settings come from flags first, then the same environment variables the
// server reads (DB_DRIVER, DATABASE_URL, IMPORT_DEFAULT_PASSWORD, ...), then
// defaults. Results go to stdout; logs go to stderr.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/biblioteca/internal/config"
	"github.com/JonMunkholm/biblioteca/internal/core"
	"github.com/JonMunkholm/biblioteca/internal/logging"
	"github.com/JonMunkholm/biblioteca/internal/store"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Setting keys, bound to flags and environment variables.
const (
	keyDBDriver        = "db.driver"
	keyDBURL           = "db.url"
	keyDefaultPassword = "import.default_password"
	keyBcryptCost      = "import.bcrypt_cost"
	keyImportTimeout   = "import.timeout"
	keyTempDir         = "storage.temp_dir"
	keyLogLevel        = "log.level"
	keyJSON            = "json"
)

// app carries the resolved settings of one invocation.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
}

// NewRootCmd creates the top-level command with its flags and subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "bibliotecactl",
		Short: "Administer the school library backend",
		Long:  "bibliotecactl applies the schema and bulk-imports library users\nfrom CSV or Excel files without going through the HTTP API.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = logging.New(cmd.ErrOrStderr(), a.v.GetString(keyLogLevel), "text")
		},
	}

	pf := root.PersistentFlags()
	pf.String("db-driver", config.DriverPostgres, "database driver: postgres or sqlite")
	pf.String("db-url", "", "database URL or SQLite file path")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.Bool("json", false, "output in JSON format")

	_ = a.v.BindPFlag(keyDBDriver, pf.Lookup("db-driver"))
	_ = a.v.BindPFlag(keyDBURL, pf.Lookup("db-url"))
	_ = a.v.BindPFlag(keyLogLevel, pf.Lookup("log-level"))
	_ = a.v.BindPFlag(keyJSON, pf.Lookup("json"))
	_ = a.v.BindEnv(keyDBDriver, "DB_DRIVER")
	_ = a.v.BindEnv(keyDBURL, "DATABASE_URL", "DB_URL")
	_ = a.v.BindEnv(keyLogLevel, "LOG_LEVEL")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newImportCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Stderr))
}

// run executes root and maps its error to an exit code, printing the
// user-facing form of the error to stderr.
func run(root *cobra.Command, stderr io.Writer) int {
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}

	if core.MapError(err).Code == "ERR000" {
		fmt.Fprintln(stderr, "Error:", err)
	} else {
		fmt.Fprintln(stderr, "Error:", core.FormatUserError(err))
	}

	var ie *core.ImportError
	if errors.As(err, &ie) {
		return exitSysError
	}
	return exitUserError
}

func (a *app) databaseConfig() (config.DatabaseConfig, error) {
	cfg := config.DatabaseConfig{
		Driver:   strings.ToLower(a.v.GetString(keyDBDriver)),
		URL:      a.v.GetString(keyDBURL),
		MaxConns: 2,
		MinConns: 0,
	}
	if cfg.URL == "" {
		return cfg, errors.New("invalid request: --db-url or DATABASE_URL is required")
	}
	return cfg, nil
}

// openStore connects and applies the schema.
func (a *app) openStore(ctx context.Context) (core.Store, error) {
	dbCfg, err := a.databaseConfig()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", dbCfg.Driver, err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a.logger.Debug("store ready", "driver", dbCfg.Driver)
	return st, nil
}

func (a *app) importConfig() config.ImportConfig {
	return config.ImportConfig{
		MaxConcurrent:   1,
		MaxWaitTime:     time.Second,
		Timeout:         a.v.GetDuration(keyImportTimeout),
		DefaultPassword: a.v.GetString(keyDefaultPassword),
		BcryptCost:      a.v.GetInt(keyBcryptCost),
	}
}

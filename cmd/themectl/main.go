// cmd/themectl/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/codr1/themestudio/internal/config"
	"github.com/codr1/themestudio/internal/drafts"
	"github.com/codr1/themestudio/internal/session"
	"github.com/codr1/themestudio/internal/store"
)

type globalFlags struct {
	configPath string
	tenant     string
	driver     string
	filename   string
	verbose    bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "themectl",
		Short: "Inspect and move theme configurations",
		Long: `themectl works on the same theme storage as the theme studio server.

Examples:
  themectl list --tenant acme
  themectl export custom-1234 -o brand.theme.json
  themectl import brand.theme.json --tenant globex
  themectl css builtin-2
  themectl shades "#0D47A1"`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "config/app.yaml", "path to the yaml configuration file")
	rootCmd.PersistentFlags().StringVarP(&flags.tenant, "tenant", "t", "", "tenant whose themes to use")
	rootCmd.PersistentFlags().StringVar(&flags.driver, "driver", "", "storage driver override (memory, sqlite, file)")
	rootCmd.PersistentFlags().StringVar(&flags.filename, "db", "", "sqlite database or json file override")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log manager activity to stderr")

	rootCmd.AddCommand(
		newListCmd(flags),
		newExportCmd(flags),
		newImportCmd(flags),
		newSelectCmd(flags),
		newCSSCmd(flags),
		newShadesCmd(),
	)
	return rootCmd
}

// openManager loads the catalog for the selected tenant. The returned close func releases
// the underlying store.
func openManager(ctx context.Context, flags *globalFlags) (*drafts.Manager, func(), error) {
	if err := session.ValidateTenant(flags.tenant); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}

	storeCfg := cfg.StoreConfig()
	if flags.driver != "" {
		storeCfg.Driver = flags.driver
	}
	if flags.filename != "" {
		storeCfg.Filename = flags.filename
		storeCfg.Path = flags.filename
	}

	themeStore, err := store.Open(storeCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open theme store: %w", err)
	}

	logger := zerolog.Nop()
	if flags.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	m := drafts.New(themeStore,
		drafts.WithTenant(flags.tenant),
		drafts.WithHistoryLimit(cfg.History.MaxEntries),
		drafts.WithLogger(logger),
	)
	if err := m.LoadCatalog(ctx); err != nil {
		_ = themeStore.Close()
		return nil, nil, err
	}
	return m, func() { _ = themeStore.Close() }, nil
}

// Command brutalball scrapes the Brutalball league site, exports tables and
// serves them over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fortuna/brutalball/internal/config"
	"github.com/fortuna/brutalball/internal/ingest/dozer"
)

const (
	serviceName    = "brutalball"
	serviceVersion = "1.0.0"
)

var (
	configPath string
	outDir     string
	useBrowser bool
)

var rootCmd = &cobra.Command{
	Use:          "brutalball",
	Short:        "brutalball scrapes rosters, game results and injuries from the Brutalball league site.",
	Version:      serviceVersion,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "JSON5 config file (a .local sibling overrides it)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out-dir", "", "table cache directory (default from config)")
	rootCmd.PersistentFlags().BoolVar(&useBrowser, "browser", false, "fetch pages through headless Chrome")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the persistent flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if outDir != "" {
		cfg.OutDir = outDir
	}
	if useBrowser {
		cfg.UseBrowser = true
	}
	return cfg, nil
}

// newFetcher returns the configured fetch layer and a release func.
func newFetcher(cfg config.Config) (dozer.Fetcher, func()) {
	if cfg.UseBrowser {
		b := dozer.NewBrowser(cfg.Host)
		log.Println("✓ Using headless Chrome fetcher")
		return b, b.Close
	}
	return dozer.New(cfg.ClientConfig()), func() {}
}

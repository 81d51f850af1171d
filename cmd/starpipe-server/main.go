package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/avollmer/starpipe/internal/archive"
	"github.com/avollmer/starpipe/internal/log"
	"github.com/avollmer/starpipe/internal/server"
	"github.com/avollmer/starpipe/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration file")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	listenAddr := flag.String("listen", "", "Listen address, overrides the config file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	provider, err := loadProvider(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	cfg.ApplyDefaults()

	addr := *listenAddr
	if addr == "" && cfg.Server != nil {
		addr = cfg.Server.ListenAddr
	}
	if addr == "" {
		addr = ":8090"
	}

	store, err := openArchive(cfg.Archive)
	if err != nil {
		log.Errorf("Failed to open run archive: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(store, cfg.Output.Directory, addr, log.GetSugaredLogger())
	if err := srv.Start(ctx); err != nil {
		log.Errorf("Server error: %v", err)
		os.Exit(1)
	}
}

func loadProvider(cfgFile, cfgBackend string) (config.Provider, error) {
	filename, _ := filepath.Abs(cfgFile)

	switch cfgBackend {
	case "yaml":
		return config.NewYAMLProvider(filename), nil
	case "sqlite":
		provider, err := config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
}

func openArchive(a config.ArchiveData) (archive.Store, error) {
	switch {
	case a.SQLite != nil:
		return archive.NewSQLiteStore(a.SQLite.Path)
	case a.TimescaleDB != nil:
		return archive.NewPostgresStore(a.TimescaleDB.ConnectionString)
	default:
		return nil, fmt.Errorf("no archive backend configured")
	}
}

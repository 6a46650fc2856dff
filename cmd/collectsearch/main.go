// Package main is the collectsearch CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/weboliver/collectsearch/internal/catalog"
	"github.com/weboliver/collectsearch/internal/cli"
	"github.com/weboliver/collectsearch/internal/config"
	"github.com/weboliver/collectsearch/internal/models"
	"github.com/weboliver/collectsearch/internal/orchestrator"
	"github.com/weboliver/collectsearch/internal/ranking"
	"github.com/weboliver/collectsearch/internal/server"
	"github.com/weboliver/collectsearch/internal/watcher"
	"github.com/weboliver/collectsearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/collectsearch/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "collectsearch server" from the project dir uses the
// project's config (including debug).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "suggest":
		runSuggest()
	case "seed":
		runSeed()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("collectsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (cache, debounce, watcher events)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	cat, err := catalog.NewSQLiteCatalog(cfg.Catalog.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer cat.Close()

	orch := orchestrator.New(cat, cfg, logger)
	defer orch.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Catalog.WatchDatabase {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.New(cfg.Catalog.DatabasePath, orch.InvalidateCache, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(orch, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printSuggestUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: collectsearch suggest [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  collectsearch suggest charizard
  collectsearch suggest -field set base
  collectsearch suggest -field card_product -set "Base Set" charizard
  collectsearch suggest -field product -category "Sealed" -output json booster
`)
}

func runSuggest() {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	fieldName := fs.String("field", "card_product", "field to suggest for: set, category, card_product, set_product, product")
	setFilter := fs.String("set", "", "filter child results by committed set name")
	categoryFilter := fs.String("category", "", "filter products by category")
	limit := fs.Int("limit", 0, "number of results (0 = config default)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	fs.Usage = func() { printSuggestUsage(fs) }
	_ = fs.Parse(os.Args[2:])

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" && *setFilter == "" && *categoryFilter == "" {
		printSuggestUsage(fs)
		os.Exit(1)
	}

	field, err := models.ParseFieldType(*fieldName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	format := cli.OutputText
	switch *outputFormat {
	case "text":
		format = cli.OutputText
	case "json":
		format = cli.OutputJSON
	case "compact":
		format = cli.OutputCompact
	default:
		fmt.Printf("Unknown output format %q; use text, compact, or json\n", *outputFormat)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *limit <= 0 {
		*limit = cfg.Search.MaxResults
	}

	cat, err := catalog.NewSQLiteCatalog(cfg.Catalog.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open catalog: %v\n", err)
		os.Exit(1)
	}
	defer cat.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filters := catalog.Filters{SetName: *setFilter, Category: *categoryFilter}
	results, err := catalog.Search(ctx, cat, field.Kind(), query, filters, cfg.Search.FetchLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	scorer := ranking.NewScorer(nil)
	ranked := scorer.Rank(results, query, ranking.ParentContext{SetName: *setFilter, Category: *categoryFilter})
	ranked = ranking.Truncate(ranked, *limit)

	if err := cli.WriteSuggestions(os.Stdout, query, ranked, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSeed() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	seedPath := fs.String("file", "", "seed data file (JSON)")
	_ = fs.Parse(os.Args[2:])

	if *seedPath == "" {
		fmt.Println("Usage: collectsearch seed -file <seed.json>")
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	data, err := catalog.LoadSeedFile(*seedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load seed file: %v\n", err)
		os.Exit(1)
	}
	cat, err := catalog.NewSQLiteCatalog(cfg.Catalog.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open catalog: %v\n", err)
		os.Exit(1)
	}
	defer cat.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := cat.Seed(ctx, data); err != nil {
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded %d sets, %d cards, %d set products, %d products into %s\n",
		len(data.Sets), len(data.Cards), len(data.SetProducts), len(data.Products),
		cfg.Catalog.DatabasePath)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	cat, err := catalog.NewSQLiteCatalog(cfg.Catalog.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open catalog: %v\n", err)
		os.Exit(1)
	}
	defer cat.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sets, cards, products, setProducts, err := cat.Counts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read catalog counts: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Config:       %s\n", resolvedConfigPath)
	fmt.Printf("Database:     %s\n", cfg.Catalog.DatabasePath)
	fmt.Printf("Server:       %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Sets:         %d\n", sets)
	fmt.Printf("Cards:        %d\n", cards)
	fmt.Printf("Set products: %d\n", setProducts)
	fmt.Printf("Products:     %d\n", products)
}

func printUsage() {
	fmt.Printf(`collectsearch - incremental search for a collectibles catalog

Usage:
  collectsearch server [-config path] [-debug]     Start the HTTP API server
  collectsearch suggest [flags] <query>            Run a one-shot suggestion query
  collectsearch seed -file <seed.json>             Load catalog data from a seed file
  collectsearch status                             Show catalog counts and config
  collectsearch version                            Show version
  collectsearch help                               Show this help
`)
}

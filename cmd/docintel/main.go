// Package main implements the docintel CLI for extracting financial
// parameters from pre-parsed documents and managing the parse cache.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docintel/internal/config"
	"github.com/fyrsmithlabs/docintel/internal/document"
	"github.com/fyrsmithlabs/docintel/internal/embeddings"
	"github.com/fyrsmithlabs/docintel/internal/extraction"
	"github.com/fyrsmithlabs/docintel/internal/gstr"
	"github.com/fyrsmithlabs/docintel/internal/llm"
	"github.com/fyrsmithlabs/docintel/internal/logging"
	"github.com/fyrsmithlabs/docintel/internal/parsecache"
	"github.com/fyrsmithlabs/docintel/internal/rag"
	"github.com/fyrsmithlabs/docintel/internal/service"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "docintel",
	Short:   "Extract credit-bureau and GST parameters from parsed documents",
	Version: version,
}

var (
	bureauPath string
	gstPath    string
	paramList  string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run parameter extraction over a bureau report and optional GSTR-3B return",
	Long: `Run the extraction pipeline over pre-parsed documents.

Examples:
  # Extract every registered bureau parameter plus sales
  docintel extract --bureau crif.json --gst gstr.json

  # Extract selected parameters only
  docintel extract --bureau crif.json --params bureau_credit_score,bureau_dpd_30`,
	RunE: runExtract,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the parse cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show parse cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all parse cache entries",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/docintel.yaml", "config file path")

	extractCmd.Flags().StringVar(&bureauPath, "bureau", "", "pre-parsed bureau report (JSON)")
	extractCmd.Flags().StringVar(&gstPath, "gst", "", "pre-parsed GSTR-3B return (JSON)")
	extractCmd.Flags().StringVar(&paramList, "params", "", "comma-separated parameter ids (default: all registered)")
	_ = extractCmd.MarkFlagRequired("bureau")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(cacheCmd)
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, logger, nil
}

func runExtract(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	bureauData, err := os.ReadFile(bureauPath)
	if err != nil {
		return fmt.Errorf("reading bureau document: %w", err)
	}

	var gstData []byte
	if gstPath != "" {
		gstData, err = os.ReadFile(gstPath)
		if err != nil {
			return fmt.Errorf("reading GST document: %w", err)
		}
	}

	parameterIDs := parseParamList(paramList)

	resp, err := svc.Extract(ctx, bureauData, bureauPath, gstData, gstPath, parameterIDs)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

func buildService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*service.Service, error) {
	provider, err := embeddings.NewService(cfg.Embedding, nil)
	if err != nil {
		return nil, fmt.Errorf("creating embedding service: %w", err)
	}

	generator, err := llm.NewFromConfig(cfg.LLM, logger.Named("llm"))
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}

	var knowledge extraction.KnowledgeRetriever = extraction.NoOpRetriever{}
	if cfg.RAG.Enabled {
		retriever := rag.NewRetriever(cfg.RAG, provider, logger.Named("rag"))
		if retriever.Initialize(ctx) {
			knowledge = retriever
		} else {
			logger.Warn("knowledge base unavailable, continuing without RAG")
		}
	}

	cache, err := parsecache.New(cfg.Cache.Dir, logger.Named("cache"))
	if err != nil {
		return nil, fmt.Errorf("creating parse cache: %w", err)
	}

	extractor := extraction.New(
		extraction.DefaultSpecs(),
		provider,
		generator,
		knowledge,
		extraction.NewConfidenceModel(cfg.Confidence),
		cfg.Retrieval,
		logger.Named("extraction"),
	)

	return service.New(
		document.NewJSONConverter(),
		cache,
		extractor,
		gstr.New(logger.Named("gstr")),
		logger,
	), nil
}

func parseParamList(list string) []string {
	if list == "" {
		specs := extraction.DefaultSpecs()
		ids := make([]string, 0, len(specs))
		for id := range specs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return ids
	}

	var ids []string
	for _, id := range strings.Split(list, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

func runCacheStats(_ *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cache, err := parsecache.New(cfg.Cache.Dir, logger)
	if err != nil {
		return err
	}

	stats, err := cache.GetStats()
	if err != nil {
		return fmt.Errorf("reading cache stats: %w", err)
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cache, err := parsecache.New(cfg.Cache.Dir, logger)
	if err != nil {
		return err
	}

	removed, err := cache.Clear()
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	fmt.Fprintf(os.Stdout, "removed %d cache entries\n", removed)
	return nil
}

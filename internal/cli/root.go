// Package cli implements the command-line interface for ragserve.
package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ncarver/ragserve/internal/config"
	"github.com/ncarver/ragserve/internal/embeddings"
	"github.com/ncarver/ragserve/internal/llm"
	"github.com/ncarver/ragserve/internal/retrieval"
	"github.com/ncarver/ragserve/internal/store"
	"github.com/ncarver/ragserve/internal/ui"
)

var (
	// Version information set at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile string
	debug   bool
)

// SetVersionInfo sets the version information from build flags.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ragserve",
	Short: "Retrieval-augmented question answering over your documents",
	Long: `ragserve ingests text documents, embeds them into a vector space,
and answers natural-language questions grounded in the most relevant
documents.

Examples:
  # Run the HTTP API
  ragserve serve

  # Load documents from files or directories
  ragserve ingest ./papers

  # Ask a question from the terminal
  ragserve query "What are the latest findings on BRCA1 mutations?"

  # Show store statistics
  ragserve status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			log.SetLevel(log.DebugLevel)
			log.Debug("Debug logging enabled")
		}

		if err := config.Load(cfgFile); err != nil {
			log.Warn("Failed to load config", "error", err)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	ui.InitLogger()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/ragserve/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ragserve %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

// openStore opens the vector store at the configured path, sized to the
// embedding service's dimension so the two can never disagree.
func openStore(cfg *config.Config, emb embeddings.Service) (*store.Store, error) {
	dimensions := emb.Dimensions()
	if dimensions <= 0 {
		dimensions = cfg.Store.Dimensions
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimension unknown for model %q; set store.dimensions in config", emb.ModelName())
	}

	st, err := store.Open(cfg.Store.Path, dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// buildOrchestrator assembles the full pipeline from configuration. When
// withGenerator is false the LLM service is not constructed, so commands
// that never generate answers work without LLM credentials.
func buildOrchestrator(cfg *config.Config, withGenerator bool) (*retrieval.Orchestrator, error) {
	emb, err := embeddings.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}

	st, err := openStore(cfg, emb)
	if err != nil {
		return nil, err
	}

	var generator *llm.Generator
	if withGenerator {
		llmSvc, err := llm.NewService(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM service: %w", err)
		}
		generator = llm.NewGenerator(llmSvc)
	}

	return retrieval.New(st, emb, generator, retrieval.Options{
		DefaultTopK: cfg.Retrieval.TopK,
		ArchiveDir:  cfg.Store.ArchivePath,
	}), nil
}

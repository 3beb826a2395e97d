package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ncarver/ragserve/internal/config"
	"github.com/ncarver/ragserve/internal/ui"
)

var configShowPath bool

// configCmd shows the effective configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long: `Display current configuration settings and config file locations.

Examples:
  # Show current configuration
  ragserve config

  # Show config file paths
  ragserve config --path`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configShowPath, "path", false, "show config file paths")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	if configShowPath {
		fmt.Println(ui.SectionTitle.Render("Configuration Paths"))
		fmt.Println()
		fmt.Printf("Config dir:    %s\n", config.DefaultConfigDir())
		fmt.Printf("Active config: %s\n", configFileOrDefault())
		fmt.Printf("Store path:    %s\n", cfg.Store.Path)
		fmt.Printf("Archive path:  %s\n", cfg.Store.ArchivePath)
		return nil
	}

	fmt.Println(ui.SectionTitle.Render("Current Configuration"))
	fmt.Println()

	fmt.Println(ui.Bold.Render("Server:"))
	fmt.Printf("  Host: %s\n", cfg.Server.Host)
	fmt.Printf("  Port: %d\n", cfg.Server.Port)
	fmt.Println()

	fmt.Println(ui.Bold.Render("Store:"))
	fmt.Printf("  Path: %s\n", cfg.Store.Path)
	fmt.Printf("  Dimensions: %d\n", cfg.Store.Dimensions)
	fmt.Printf("  Archive Path: %s\n", cfg.Store.ArchivePath)
	fmt.Println()

	fmt.Println(ui.Bold.Render("Embeddings:"))
	fmt.Printf("  Provider: %s\n", cfg.Embeddings.Provider)
	fmt.Printf("  Ollama URL: %s\n", cfg.Embeddings.Ollama.URL)
	fmt.Printf("  Ollama Model: %s\n", cfg.Embeddings.Ollama.Model)
	fmt.Printf("  OpenAI Model: %s\n", cfg.Embeddings.OpenAI.Model)
	if cfg.Embeddings.OpenAI.BaseURL != "" {
		fmt.Printf("  OpenAI Base URL: %s\n", cfg.Embeddings.OpenAI.BaseURL)
	}
	fmt.Println()

	fmt.Println(ui.Bold.Render("LLM:"))
	fmt.Printf("  Provider: %s\n", cfg.LLM.Provider)
	fmt.Printf("  Ollama URL: %s\n", cfg.LLM.Ollama.URL)
	fmt.Printf("  Ollama Model: %s\n", cfg.LLM.Ollama.Model)
	fmt.Printf("  OpenAI Model: %s\n", cfg.LLM.OpenAI.Model)
	fmt.Printf("  Anthropic Model: %s\n", cfg.LLM.Anthropic.Model)
	fmt.Println()

	fmt.Println(ui.Bold.Render("Retrieval:"))
	fmt.Printf("  Top K: %d\n", cfg.Retrieval.TopK)

	return nil
}

func configFileOrDefault() string {
	if path := config.ConfigFilePath(); path != "" {
		return path
	}
	return "(none; using defaults)"
}

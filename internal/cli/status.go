package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ncarver/ragserve/internal/config"
	"github.com/ncarver/ragserve/internal/embeddings"
	"github.com/ncarver/ragserve/internal/ui"
)

// statusCmd shows store statistics.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store status and statistics",
	Long: `Display information about the vector store:
- Number of stored documents
- Embedding dimension
- On-disk artifact paths and sizes

Examples:
  ragserve status`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	emb, err := embeddings.NewService(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedding service: %w", err)
	}

	st, err := openStore(cfg, emb)
	if err != nil {
		return err
	}

	fmt.Println(ui.SectionTitle.Render("Vector Store"))
	fmt.Println()
	fmt.Printf("  Documents: %d\n", st.Len())
	fmt.Printf("  Dimension: %d\n", st.Dimensions())
	fmt.Printf("  Path:      %s\n", st.Path())
	printArtifact("Vectors", st.Path()+".vec")
	printArtifact("Records", st.Path()+".docs.json")
	fmt.Println()

	fmt.Println(ui.Bold.Render("Embeddings:"))
	fmt.Printf("  Provider: %s\n", emb.Provider())
	fmt.Printf("  Model:    %s\n", emb.ModelName())

	if cfg.Store.ArchivePath != "" {
		fmt.Println()
		fmt.Println(ui.Bold.Render("Archive:"))
		fmt.Printf("  Path: %s\n", cfg.Store.ArchivePath)
	}

	return nil
}

func printArtifact(label, path string) {
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("  %s:   %s\n", label, ui.Dim.Render("(not yet written)"))
		return
	}
	fmt.Printf("  %s:   %s (%s)\n", label, path, formatBytes(info.Size()))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

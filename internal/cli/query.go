package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/ncarver/ragserve/internal/config"
	"github.com/ncarver/ragserve/internal/ui"
)

var (
	queryTopK      int
	queryElaborate bool
	queryJSON      bool
)

// queryCmd answers a question from the terminal.
var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Answer a question from stored documents",
	Long: `Embed the question, retrieve the most relevant stored documents,
and generate a grounded answer.

Examples:
  ragserve query "What are the latest findings on BRCA1 mutations?"

  # Retrieve more context
  ragserve query "How is tamoxifen metabolized?" -k 5

  # Detailed answer
  ragserve query "What is CRISPR?" --elaborate`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of documents to retrieve (default from config)")
	queryCmd.Flags().BoolVar(&queryElaborate, "elaborate", false, "generate a detailed answer")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the full response as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	orch, err := buildOrchestrator(cfg, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted")
		cancel()
	}()

	resp, err := orch.AnswerQuery(ctx, args[0], queryTopK, queryElaborate)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Println(ui.Header.Render("Answer"))
	fmt.Println()

	rendered, err := renderMarkdown(resp.Answer)
	if err != nil {
		fmt.Println(resp.Answer)
	} else {
		fmt.Print(rendered)
	}

	if len(resp.RetrievedDocuments) > 0 {
		fmt.Println(ui.Dim.Render("Sources:"))
		for i, doc := range resp.RetrievedDocuments {
			title := doc.Title
			if title == "" {
				title = doc.ID
			}
			fmt.Printf("  [%d] %s (distance %s)\n", i+1, title, ui.FormatScore(doc.Score))
		}
	}

	fmt.Println()
	fmt.Println(ui.Dim.Render(fmt.Sprintf("Answered in %.2fs", resp.ProcessingTime)))
	return nil
}

// renderMarkdown renders markdown content using glamour.
func renderMarkdown(content string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	out, err := renderer.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

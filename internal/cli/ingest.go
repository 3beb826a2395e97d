package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/cobra"

	"github.com/ncarver/ragserve/internal/config"
	"github.com/ncarver/ragserve/internal/retrieval"
	"github.com/ncarver/ragserve/internal/ui"
)

var ingestBatchSize int

// ingestCmd loads documents from files or directories into the store.
var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Load documents from files or directories",
	Long: `Load documents into the vector store.

Supported inputs:
  .json   a single document object or an array of documents, each with
          "title", "content", and optional "id" and "metadata" fields
  .txt    plain text; the filename becomes the title
  .md     markdown; the filename becomes the title

Directories are walked recursively. A .gitignore at the directory root is
honored.

Examples:
  ragserve ingest ./papers
  ragserve ingest abstracts.json notes.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 32, "documents per embedding batch")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	inputs, err := collectDocuments(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	orch, err := buildOrchestrator(cfg, false)
	if err != nil {
		return err
	}

	if ingestBatchSize <= 0 {
		ingestBatchSize = 32
	}

	ctx := context.Background()
	total := 0
	for start := 0; start < len(inputs); start += ingestBatchSize {
		end := start + ingestBatchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		ids, err := orch.Ingest(ctx, inputs[start:end])
		if err != nil {
			return fmt.Errorf("ingestion failed after %d documents: %w", total, err)
		}
		total += len(ids)
	}

	fmt.Println(ui.Success.Render(fmt.Sprintf("Ingested %d documents (%d total in store).", total, orch.DocumentCount())))
	return nil
}

// collectDocuments gathers document inputs from the given files and
// directories.
func collectDocuments(paths []string) ([]retrieval.DocumentInput, error) {
	var inputs []retrieval.DocumentInput

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}

		if info.IsDir() {
			docs, err := collectFromDirectory(path)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, docs...)
			continue
		}

		docs, err := readDocumentFile(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, docs...)
	}

	return inputs, nil
}

// collectFromDirectory walks a directory tree, honoring a root .gitignore.
func collectFromDirectory(root string) ([]retrieval.DocumentInput, error) {
	var ignorer *gitignore.GitIgnore
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		ignorer, err = gitignore.CompileIgnoreFile(gitignorePath)
		if err != nil {
			log.Warn("Failed to parse .gitignore", "path", gitignorePath, "error", err)
		}
	}

	var inputs []retrieval.DocumentInput
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Debug("Error accessing path", "path", path, "error", err)
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			relPath = path
		}

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if ignorer != nil && ignorer.MatchesPath(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if ignorer != nil && ignorer.MatchesPath(relPath) {
			return nil
		}
		if !supportedDocumentFile(path) {
			return nil
		}

		docs, err := readDocumentFile(path)
		if err != nil {
			log.Warn("Skipping unreadable document file", "path", path, "error", err)
			return nil
		}
		inputs = append(inputs, docs...)
		return nil
	})
	return inputs, err
}

func supportedDocumentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".txt", ".md":
		return true
	}
	return false
}

// readDocumentFile parses one file into document inputs. JSON files may hold
// a single document object or an array; text files become one document with
// the filename as title.
func readDocumentFile(path string) ([]retrieval.DocumentInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return parseJSONDocuments(path, data)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, nil
	}

	name := filepath.Base(path)
	title := strings.TrimSuffix(name, filepath.Ext(name))
	return []retrieval.DocumentInput{{Title: title, Content: content}}, nil
}

func parseJSONDocuments(path string, data []byte) ([]retrieval.DocumentInput, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var docs []retrieval.DocumentInput
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return docs, nil
	}

	var doc retrieval.DocumentInput
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return []retrieval.DocumentInput{doc}, nil
}

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/forgeleaf/jewelgen/pkg/match"
	"github.com/forgeleaf/jewelgen/pkg/metadata"
)

var infoCmd = &cobra.Command{
	Use:   "info [design-id]",
	Short: "Show stored design metadata",
	Long: `Show metadata for stored designs.

With a design id, prints the full metadata document as JSON. Without one,
lists all stored designs; --match narrows the list with a glob pattern on
design ids, and attribute flags narrow it further.

Example:
  jewelgen info 2f1c9a1e-...-8d2b
  jewelgen info
  jewelgen info --match 'batch_20260828*'
  jewelgen info --material gold --created-after 2026-08-01
  jewelgen info 2f1c9a1e-...-8d2b --open`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInfo,
}

var (
	infoMatch         string
	infoOpen          bool
	infoMaterial      string
	infoType          string
	infoBatch         string
	infoCreatedAfter  string
	infoCreatedBefore string
	infoNameRegex     string
)

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().StringVar(&infoMatch, "match", "", "Glob pattern on design ids when listing")
	infoCmd.Flags().BoolVar(&infoOpen, "open", false, "Open the design's thumbnail")
	infoCmd.Flags().StringVar(&infoMaterial, "material", "", "Only list designs with this material")
	infoCmd.Flags().StringVar(&infoType, "type", "", "Only list designs of this jewelry type")
	infoCmd.Flags().StringVar(&infoBatch, "batch", "", "Only list designs from this batch id")
	infoCmd.Flags().StringVar(&infoCreatedAfter, "created-after", "", "Only list designs created on or after this date (ISO 8601)")
	infoCmd.Flags().StringVar(&infoCreatedBefore, "created-before", "", "Only list designs created before this date (ISO 8601)")
	infoCmd.Flags().StringVar(&infoNameRegex, "name-regex", "", "Only list designs whose name matches this regex")
}

func runInfo(_ *cobra.Command, args []string) error {
	store := metadata.NewStore(cfg.Paths.MetadataDir)

	if len(args) == 1 {
		return showDesign(store, args[0])
	}

	filterCfg := &match.FilterConfig{
		Material:    infoMaterial,
		JewelryType: infoType,
		Batch:       infoBatch,
		NameRegex:   infoNameRegex,
	}
	if infoCreatedAfter != "" || infoCreatedBefore != "" {
		filterCfg.Created = &match.DateFilterConfig{
			After:  infoCreatedAfter,
			Before: infoCreatedBefore,
		}
	}
	filter, err := match.NewFilterFromConfig(filterCfg)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid filter", err)
	}

	return listDesigns(store, infoMatch, filter)
}

func showDesign(store *metadata.Store, id string) error {
	doc, err := store.Load(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(foundry.ExitFileNotFound, "No such design", fmt.Errorf("no metadata for id %s", id))
		}
		return exitError(foundry.ExitFileReadError, "Failed to read design metadata", err)
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return exitError(foundry.ExitFileReadError, "Failed to render design metadata", err)
	}
	fmt.Println(string(b))

	if infoOpen {
		if err := openDesignThumbnail(doc.ID, doc.ThumbnailURL); err != nil {
			return exitError(foundry.ExitFileNotFound, "Failed to open thumbnail", err)
		}
	}
	return nil
}

func listDesigns(store *metadata.Store, pattern string, filter *match.CompositeFilter) error {
	docs, err := store.List(pattern)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid match pattern", err)
	}

	filtered := docs[:0]
	for _, doc := range docs {
		if filter.Match(&doc.Record) {
			filtered = append(filtered, doc)
		}
	}
	docs = filtered

	if len(docs) == 0 {
		fmt.Println("No designs found.")
		return nil
	}

	fmt.Printf("%-38s %-28s %-10s %-20s %s\n", "ID", "NAME", "BATCH", "CREATED", "ASSETS")
	for _, doc := range docs {
		batch := doc.BatchID
		if batch == "" {
			batch = "-"
		}
		assets := "-"
		if len(doc.ModelURLs) > 0 {
			assets = fmt.Sprintf("%d formats", len(doc.ModelURLs))
		}
		fmt.Printf("%-38s %-28s %-10s %-20s %s\n",
			doc.ID,
			truncate(doc.DisplayName(), 28),
			truncate(batch, 10),
			doc.CreatedAt.Format("2006-01-02 15:04:05"),
			assets)
	}
	fmt.Printf("\n%d design(s) in %s\n", len(docs), filepath.Clean(store.Dir()))
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

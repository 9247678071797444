package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Foundup/Foundups-Agent-sub010/internal/indexer"
	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

var flagIndexDocType string

var indexCmd = &cobra.Command{
	Use:   "index [roots...]",
	Short: "Index corpus roots into the vector store",
	Long: `Index walks the given roots (or the configured corpus roots when none are
given), classifies files into collections, and embeds changed content. Safe to
re-run: unchanged files are skipped by content hash.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&flagIndexDocType, "doc-type", "",
		"classify every file as this type (code, protocol_doc, test, skill) instead of applying the extension rules")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	job := indexer.Job{Roots: args}
	if flagIndexDocType != "" {
		dt, err := types.ParseDocType(flagIndexDocType)
		if err != nil {
			return err
		}
		job.ForceType = dt
	}

	stats, err := a.indexer.Run(cmd.Context(), job)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

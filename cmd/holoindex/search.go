package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

var (
	flagSearchLimit    int
	flagSearchDocTypes []string
	flagSearchContext  map[string]string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one query cycle and print the result bundle as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&flagSearchLimit, "limit", 0, "maximum hits per doc type (default 10)")
	searchCmd.Flags().StringSliceVar(&flagSearchDocTypes, "doc-types", nil,
		"restrict retrieval to these collections (code, protocol_doc, test, skill)")
	searchCmd.Flags().StringToStringVar(&flagSearchContext, "context", nil,
		"caller-supplied hints as key=value pairs")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	q := &types.Query{
		RawText: strings.Join(args, " "),
		Limit:   flagSearchLimit,
		Context: flagSearchContext,
	}
	for _, name := range flagSearchDocTypes {
		dt, err := types.ParseDocType(name)
		if err != nil {
			return err
		}
		q.DocTypeFilter = append(q.DocTypeFilter, dt)
	}

	bundle, err := a.engine.Search(cmd.Context(), q)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(bundle)
}

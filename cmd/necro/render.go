package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/necronomicon/backend/pkg/annotation"
	"github.com/necronomicon/backend/pkg/entity"
	"github.com/necronomicon/backend/pkg/graph"

	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "render <payload.json>",
		Short: "Build a graph from a saved annotation payload",
		Long:  "Reads an annotation service response from disk, builds the dependency graph and materializes entities without contacting the service.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading payload: %w", err)
			}
			var payload annotation.Payload
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("decoding payload: %w", err)
			}

			res, err := newGraphClient(nil).Load(cmd.Context(), &payload)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), res, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entities as JSON")
	return cmd
}

func writeResult(w io.Writer, res *graph.Result, asJSON bool) error {
	fmt.Fprintln(w, res.Graph.String())
	fmt.Fprintf(w, "\nSentences: %d\n", len(res.Sentences))
	fmt.Fprintf(w, "Entities: %d\n", res.Entities.Len())

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Entities)
	}

	for _, obj := range res.Entities.All() {
		raw, err := entity.MarshalObject(obj)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s\n", raw)
	}
	return nil
}

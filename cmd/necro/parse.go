package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/necronomicon/backend/internal/util"
	"github.com/necronomicon/backend/pkg/annotation"
	"github.com/necronomicon/backend/pkg/graph"

	"github.com/spf13/cobra"
)

func newAnnotationClient() (*annotation.Client, error) {
	return annotation.NewClient(annotation.NewClientParams{
		BaseURL: util.GetEnv("NLP_SERVICE_URL"),
		ApiKey:  util.GetEnv("NLP_SERVICE_KEY"),
		Timeout: util.GetEnvSeconds("NLP_TIMEOUT_SECONDS", 60*time.Second),
	})
}

func newGraphClient(a annotation.Annotator) *graph.GraphClient {
	return graph.NewGraphClient(graph.NewGraphClientParams{
		Annotator:     a,
		ParallelEdges: util.GetEnvInt("GRAPH_PARALLEL_EDGES", 4),
		BatchSize:     util.GetEnvInt("GRAPH_BATCH_SIZE", 4096),
	})
}

func newParseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Annotate a text file and print its graph",
		Long:  "Sends the file to the annotation service configured by NLP_SERVICE_URL and prints the resulting dependency graph and entities.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading document: %w", err)
			}
			nlp, err := newAnnotationClient()
			if err != nil {
				return err
			}

			res, err := newGraphClient(nlp).Process(cmd.Context(), string(text))
			if err != nil {
				return err
			}
			if err := writeResult(cmd.OutOrStdout(), res, asJSON); err != nil {
				return err
			}

			m := nlp.GetMetrics()
			fmt.Fprintf(cmd.ErrOrStderr(), "annotated %d tokens in %dms\n", m.Tokens, m.DurationMs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entities as JSON")
	return cmd
}

func newFeaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "List the labels the annotation service supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nlp, err := newAnnotationClient()
			if err != nil {
				return err
			}
			f, err := nlp.Features(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, section := range []struct {
				title  string
				labels map[string]string
			}{
				{"Entities", f.Entities},
				{"Parts of speech", f.PartsOfSpeech},
				{"Dependencies", f.Dependencies},
			} {
				fmt.Fprintf(w, "%s (%d)\n", section.title, len(section.labels))
				keys := make([]string, 0, len(section.labels))
				for k := range section.labels {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(w, "  %-8s %s\n", k, section.labels[k])
				}
			}
			return nil
		},
	}
}

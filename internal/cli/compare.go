package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/similarity"
)

func newCompareCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "compare <a.json> <b.json>",
		Short: "Cosine similarity between two stored embeddings",
		Long: "Each file holds either a JSON number array or an enroll response " +
			"with an \"embedding\" field.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := readEmbedding(args[0])
			if err != nil {
				return err
			}
			b, err := readEmbedding(args[1])
			if err != nil {
				return err
			}

			score, err := similarity.Compare(a, b)
			if err != nil {
				return err
			}

			verdict := "no match"
			if score > threshold {
				verdict = "match"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "similarity: %.4f (%s at threshold %.2f)\n", score, verdict, threshold)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0.7, "Identity threshold (strictly greater matches)")
	return cmd
}

func readEmbedding(path string) (domain.Embedding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var e domain.Embedding
	if err := json.Unmarshal(data, &e); err == nil {
		return e, nil
	}

	var wrapped struct {
		Embedding domain.Embedding `json:"embedding"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(wrapped.Embedding) == 0 {
		return nil, fmt.Errorf("%s: no embedding field", path)
	}
	return wrapped.Embedding, nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/presenca/internal/config"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/face"
	"github.com/saturnino-fabrica-de-software/presenca/internal/liveness"
	"github.com/saturnino-fabrica-de-software/presenca/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/presenca/internal/service"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// AnalyzeOptions holds the analyze command flags
type AnalyzeOptions struct {
	Thresholds  liveness.Thresholds
	DeepFaceURL string
	CropMargin  float64
	JSON        bool
	Strict      bool
}

// AnalyzeResult is one analysed file. Error is set instead of the verdict
// when the file could not be processed.
type AnalyzeResult struct {
	File        string                  `json:"file"`
	Verdict     *domain.LivenessVerdict `json:"liveness,omitempty"`
	BoundingBox *domain.BoundingBox     `json:"face_location,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

func newAnalyzeCmd() *cobra.Command {
	opts := AnalyzeOptions{Thresholds: liveness.DefaultThresholds()}

	cmd := &cobra.Command{
		Use:   "analyze <file|dir>",
		Short: "Run the passive liveness gate over images",
		Long: "Analyzes every jpeg, png or webp under the path. Without --deepface-url the whole " +
			"frame is analysed; with it, the most prominent detected face is cropped first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&opts.Thresholds.MinSharpness, "sharpness", opts.Thresholds.MinSharpness, "Minimum Laplacian variance")
	f.Float64Var(&opts.Thresholds.MaxMoireMagnitude, "moire", opts.Thresholds.MaxMoireMagnitude, "Maximum spectral log-magnitude")
	f.Float64Var(&opts.Thresholds.MinColorDispersion, "dispersion", opts.Thresholds.MinColorDispersion, "Minimum saturation and value standard deviation")
	f.Float64Var(&opts.Thresholds.MinContrast, "contrast", opts.Thresholds.MinContrast, "Minimum standard deviation over every R, G and B sample")
	f.StringVar(&opts.DeepFaceURL, "deepface-url", "", "DeepFace service used to locate faces (default: analyse whole frame)")
	f.Float64Var(&opts.CropMargin, "margin", pipeline.DefaultOptions().CropMargin, "Crop margin as a fraction of face width")
	f.BoolVar(&opts.JSON, "json", false, "Print results as JSON")
	f.BoolVar(&opts.Strict, "strict", false, "Exit with an error when any image is not live")

	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, opts AnalyzeOptions) error {
	files, err := collectImages(path)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found under %s", path)
	}

	extractor, wholeFrame, err := analyzeExtractor(opts)
	if err != nil {
		return err
	}

	popts := pipeline.DefaultOptions()
	popts.CropMargin = opts.CropMargin
	svc := service.NewFaceService(extractor, liveness.NewAnalyzer(opts.Thresholds), popts, stderrLogger(cmd.ErrOrStderr()))

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Analyzing"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	results := make([]AnalyzeResult, 0, len(files))
	spoofs := 0
	for _, file := range files {
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		res := AnalyzeResult{File: file}
		data, err := os.ReadFile(file)
		if err == nil {
			var report *domain.LivenessReport
			report, err = svc.CheckLiveness(cmd.Context(), data, wholeFrame)
			if err == nil {
				res.Verdict = report.Verdict
				res.BoundingBox = report.BoundingBox
			}
		}
		if err != nil {
			res.Error = err.Error()
		}
		if res.Verdict == nil || !res.Verdict.IsLive {
			spoofs++
		}

		results = append(results, res)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if opts.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else if err := printTable(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if opts.Strict && spoofs > 0 {
		return fmt.Errorf("%d of %d images did not pass liveness", spoofs, len(results))
	}
	return nil
}

// analyzeExtractor returns the extractor and whether whole frames are analysed.
func analyzeExtractor(opts AnalyzeOptions) (provider.FaceExtractor, bool, error) {
	if opts.DeepFaceURL == "" {
		return mock.New(), true, nil
	}

	extractor, err := face.NewExtractor(&config.Config{
		ProviderType:       string(face.ProviderTypeDeepFace),
		DeepFaceURL:        opts.DeepFaceURL,
		DeepFaceRetryCount: 1,
	})
	if err != nil {
		return nil, false, err
	}
	return extractor, false, nil
}

// collectImages returns the image files under path in lexical order.
func collectImages(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(p))] {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}

	sort.Strings(files)
	return files, nil
}

func printTable(w io.Writer, results []AnalyzeResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLIVE\tSHARPNESS\tMOIRE\tSAT_STD\tVAL_STD\tCONTRAST\tREASONS")
	for _, r := range results {
		if r.Verdict == nil {
			fmt.Fprintf(tw, "%s\terror\t-\t-\t-\t-\t-\t%s\n", r.File, r.Error)
			continue
		}
		m := r.Verdict.Measurements
		fmt.Fprintf(tw, "%s\t%t\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%s\n",
			r.File, r.Verdict.IsLive,
			m.Sharpness, m.MoireMagnitude, m.SaturationStdDev, m.ValueStdDev, m.Contrast,
			strings.Join(r.Verdict.Reasons, "; "))
	}
	return tw.Flush()
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/verifyhub/internal/model"
	"github.com/ppiankov/verifyhub/internal/worker"
)

var (
	batchTimeout time.Duration
	batchOutput  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify many requests from a file in parallel",
	Long: `Batch verifies every line of the input file concurrently.

Each line is either a JSON request object or a stored submission id to
re-verify. Blank lines and lines starting with # are skipped.

  {"certificateUrl":"https://www.coursera.org/account/accomplishments/verify/ABC","socialPostUrl":"https://www.linkedin.com/posts/jane_x","claimedFullName":"Jane Doe"}
  6f1c0b7e-2d1a-4c55-9f0e-0c8e5b1d2a33

Example:
  verifyhub batch requests.txt
  verifyhub batch requests.txt --workers 8 --out results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("workers", 4, "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
	batchCmd.Flags().StringVar(&batchOutput, "out", "", "write all results to this JSON file")
	_ = viper.BindPFlag("batch.workers", batchCmd.Flags().Lookup("workers"))
}

// batchRecord is one entry of the --out file
type batchRecord struct {
	Line         int                       `json:"line"`
	SubmissionID string                    `json:"submissionId,omitempty"`
	Result       *model.VerificationResult `json:"result,omitempty"`
	Error        string                    `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	cfg := appConfig

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	svc, err := buildService(cfg, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  VerifyHub Batch\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Batch.Workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchProcessor(svc, cfg.Batch.Workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	var verified, rejected, failed int
	records := make([]batchRecord, 0, len(results))

	for _, r := range results {
		rec := batchRecord{Line: r.Item.Line, SubmissionID: r.SubmissionID}
		switch {
		case r.Error != nil:
			failed++
			rec.Error = r.Error.Error()
			fmt.Fprintf(os.Stderr, "✗ line %d: %v\n", r.Item.Line, r.Error)
		case r.Result.Valid:
			verified++
			rec.Result = r.Result
			fmt.Fprintf(os.Stderr, "✓ line %d: %s\n", r.Item.Line, orDash(r.Result.ExtractedCourseTitle))
		default:
			rejected++
			rec.Result = r.Result
			fmt.Fprintf(os.Stderr, "✗ line %d: %s\n", r.Item.Line, strings.Join(r.Result.Errors, " | "))
		}
		records = append(records, rec)
	}

	if batchOutput != "" {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		if err := os.WriteFile(batchOutput, data, 0o644); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:      %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Verified:   %d\n", verified)
	fmt.Fprintf(os.Stderr, "  Rejected:   %d\n", rejected)
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", failed)
	if batchOutput != "" {
		fmt.Fprintf(os.Stderr, "  Output:     %s\n", batchOutput)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

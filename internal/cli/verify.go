package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verifyhub/internal/model"
)

// ErrRejected is returned when verification ran but the evidence failed.
// The reasons have already been printed.
var ErrRejected = errors.New("verification failed")

var (
	claimedName string
	requesterID string
	recordID    string
	jsonOutput  bool
	verifyWait  time.Duration
)

var verifyCmd = &cobra.Command{
	Use:   "verify <certificate-url> <post-url>",
	Short: "Verify one certificate and social post pair",
	Long: `Verify fetches the certificate page and the social post, checks both,
and matches the claimed name against the certificate.

Example:
  verifyhub verify https://www.coursera.org/account/accomplishments/verify/ABC123 \
    https://www.linkedin.com/posts/jane-doe_python-activity-123 --name "Jane Doe"
  verifyhub verify --record 6f1c0b7e-... --json`,
	Args: func(cmd *cobra.Command, args []string) error {
		if recordID != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&claimedName, "name", "", "full name the certificate should carry")
	verifyCmd.Flags().StringVar(&requesterID, "requester", "", "requester id; the submission is stored when set")
	verifyCmd.Flags().StringVar(&recordID, "record", "", "re-verify a stored submission instead")
	verifyCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	verifyCmd.Flags().DurationVar(&verifyWait, "timeout", 90*time.Second, "overall timeout")
}

func runVerify(cmd *cobra.Command, args []string) error {
	svc, err := buildService(appConfig, nil)
	if err != nil {
		return err
	}

	req := model.VerificationRequest{
		ClaimedFullName:  claimedName,
		RequesterID:      requesterID,
		ExistingRecordID: recordID,
	}
	if len(args) == 2 {
		req.CertificateURL = args[0]
		req.SocialPostURL = args[1]
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), verifyWait)
	defer cancel()

	out, err := svc.Verify(ctx, req)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out.Result); err != nil {
			return err
		}
	} else {
		printResult(w, out.Result)
		if out.Submission != nil {
			_, _ = fmt.Fprintf(w, "  Submission:  %s (%s)\n", out.Submission.ID, out.Submission.Status)
		}
	}

	if !out.Result.Valid {
		return ErrRejected
	}
	return nil
}

func printResult(w io.Writer, r *model.VerificationResult) {
	if r.Valid {
		_, _ = fmt.Fprintln(w, "✓ Evidence verified")
	} else {
		_, _ = fmt.Fprintln(w, "✗ Evidence rejected")
		for _, e := range r.Errors {
			_, _ = fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  Course:      %s\n", orDash(r.ExtractedCourseTitle))
	_, _ = fmt.Fprintf(w, "  Handle:      %s\n", orDash(r.ExtractedSocialHandle))
	_, _ = fmt.Fprintf(w, "  Name match:  %s\n", r.StudentNameMatch)
	_, _ = fmt.Fprintf(w, "  Recipient:   %s\n", orDash(r.RecipientName))
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

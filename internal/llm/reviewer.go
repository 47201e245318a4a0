package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/verifyhub/internal/model"
	"github.com/ppiankov/verifyhub/internal/submission"
)

const reviewerSystem = "You assist a human reviewer checking course-completion evidence. " +
	"You only restate what the automated checks found. You never decide whether a submission is valid."

var urlPattern = regexp.MustCompile(`https?://[^\s)\]>"']+`)

// Reviewer writes a short advisory note for a verified submission
type Reviewer struct {
	provider Provider
}

// NewReviewer wraps p. A nil provider yields a nil reviewer.
func NewReviewer(p Provider) *Reviewer {
	if p == nil {
		return nil
	}
	return &Reviewer{provider: p}
}

// Review asks the provider for a note. A note that cites any link other than
// the two submitted ones is rejected.
func (r *Reviewer) Review(ctx context.Context, sub *submission.Submission, result *model.VerificationResult) (string, error) {
	resp, err := r.provider.Complete(ctx, CompletionRequest{
		System: reviewerSystem,
		Prompt: BuildPrompt(sub, result),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", r.provider.Name(), err)
	}

	allowed := []string{sub.CertificateURL, sub.SocialPostURL}
	for _, cited := range CitedURLs(resp.Text) {
		if !contains(allowed, cited) {
			return "", fmt.Errorf("%s: note cited a link that was not submitted: %s", r.provider.Name(), cited)
		}
	}
	return resp.Text, nil
}

// BuildPrompt describes the verification outcome for the model
func BuildPrompt(sub *submission.Submission, result *model.VerificationResult) string {
	var b strings.Builder

	b.WriteString("Summarize these automated check results for a reviewer in 2-3 sentences.\n")
	b.WriteString("Only mention these links, if any:\n")
	fmt.Fprintf(&b, "- %s\n- %s\n\n", sub.CertificateURL, sub.SocialPostURL)

	fmt.Fprintf(&b, "Automated verdict: %s\n", verdict(result.Valid))
	fmt.Fprintf(&b, "Name on certificate: %s\n", result.StudentNameMatch)
	fmt.Fprintf(&b, "Course title found: %s\n", orNone(result.ExtractedCourseTitle))
	fmt.Fprintf(&b, "Social handle: %s\n", orNone(result.ExtractedSocialHandle))

	if len(result.Errors) == 0 {
		b.WriteString("Problems: none\n")
	} else {
		b.WriteString("Problems:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	b.WriteString("\nDo not state that the evidence is authentic or fake; describe only what was checked.")
	return b.String()
}

// CitedURLs extracts the distinct URLs mentioned in text
func CitedURLs(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range urlPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?")
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

func verdict(valid bool) string {
	if valid {
		return "passed"
	}
	return "failed"
}

func orNone(s *string) string {
	if s == nil || *s == "" {
		return "(none)"
	}
	return *s
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

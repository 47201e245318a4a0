package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/verifyhub/internal/model"
	"github.com/ppiankov/verifyhub/internal/submission"
)

// Runner verifies one request. *submission.Service satisfies it.
type Runner interface {
	Verify(ctx context.Context, req model.VerificationRequest) (*submission.Outcome, error)
}

// Item is one line of a batch file
type Item struct {
	Line    int
	Request model.VerificationRequest
}

// VerifyJob verifies a single batch item
type VerifyJob struct {
	Item   Item
	Runner Runner
}

// Execute runs the verification. A panicking runner becomes an error on the
// item's own result so the input line is kept.
func (j *VerifyJob) Execute(ctx context.Context) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = &VerifyResult{Item: j.Item, Error: fmt.Errorf("verification panicked: %v", r)}
		}
	}()

	out, err := j.Runner.Verify(ctx, j.Item.Request)
	res := &VerifyResult{Item: j.Item, Error: err}
	if err == nil {
		res.Result = out.Result
		if out.Submission != nil {
			res.SubmissionID = out.Submission.ID
		}
	}
	return res
}

// VerifyResult is the outcome of one batch item
type VerifyResult struct {
	Item         Item
	Result       *model.VerificationResult
	SubmissionID string
	Error        error
}

// GetError returns the error from the verification call
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies many requests concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// Process verifies items and returns results in input order
func (b *BatchProcessor) Process(ctx context.Context, items []Item) []*VerifyResult {
	if len(items) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, item := range items {
		pool.Submit(&VerifyJob{Item: item, Runner: b.runner})
	}

	results := pool.Wait()

	out := make([]*VerifyResult, 0, len(results))
	for _, r := range results {
		if vr, ok := r.(*VerifyResult); ok {
			out = append(out, vr)
			continue
		}
		out = append(out, &VerifyResult{Error: r.GetError()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Item.Line < out[j].Item.Line })
	return out
}

// ProcessFile reads a batch file and verifies every item in it
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*VerifyResult, error) {
	items, err := ReadItemsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	return b.Process(ctx, items), nil
}

// ReadItemsFromFile reads batch items from a file
func ReadItemsFromFile(filePath string) ([]Item, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadItems(file)
}

// ReadItems parses batch input. Each non-empty, non-comment line is either a
// JSON request object or a bare submission id to re-verify. Repeated lines
// are verified once.
func ReadItems(r io.Reader) ([]Item, error) {
	var items []Item
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true

		var req model.VerificationRequest
		if strings.HasPrefix(line, "{") {
			if err := json.Unmarshal([]byte(line), &req); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		} else {
			req.ExistingRecordID = line
		}
		items = append(items, Item{Line: lineNo, Request: req})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}

	return items, nil
}

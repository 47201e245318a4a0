package submission

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/verifyhub/internal/model"
	"github.com/ppiankov/verifyhub/internal/store"
)

const (
	certURL   = "https://www.coursera.org/account/accomplishments/verify/ABC123"
	socialURL = "https://www.linkedin.com/posts/jane-doe_python-activity-123"
)

// stubVerifier returns a fixed result and records the requests it saw
type stubVerifier struct {
	mu     sync.Mutex
	result *model.VerificationResult
	err    error
	seen   []model.VerificationRequest
}

func (v *stubVerifier) Verify(_ context.Context, req model.VerificationRequest) (*model.VerificationResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seen = append(v.seen, req)
	if v.err != nil {
		return nil, v.err
	}
	r := *v.result
	return &r, nil
}

func (v *stubVerifier) calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}

type stubReviewer struct {
	note string
	err  error
}

func (r *stubReviewer) Review(context.Context, *Submission, *model.VerificationResult) (string, error) {
	return r.note, r.err
}

func validResult() *model.VerificationResult {
	r := model.NewResult()
	r.ExtractedCourseTitle = model.StringPtr("Introduction to Python")
	r.RecipientName = model.StringPtr("Jane Doe")
	r.StudentNameMatch = model.Confirmed
	r.CourseMatch = model.Confirmed
	return r.Finalize()
}

func invalidResult(errs ...string) *model.VerificationResult {
	r := model.NewResult()
	for _, e := range errs {
		r.AddError(e)
	}
	return r.Finalize()
}

func newTestService(v Verifier, opts ...Option) (*Service, *Repository) {
	repo := NewRepository(store.NewMemoryStore())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return fixed })}, opts...)
	return NewService(repo, v, opts...), repo
}

func TestService_AnonymousRequestIsNotPersisted(t *testing.T) {
	v := &stubVerifier{result: validResult()}
	svc, _ := newTestService(v)

	out, err := svc.Verify(context.Background(), model.VerificationRequest{
		CertificateURL: certURL,
		SocialPostURL:  socialURL,
	})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !out.Result.Valid || out.Submission != nil {
		t.Errorf("expected valid unpersisted result, got %+v", out)
	}
}

func TestService_PersistsAndGuardsDuplicates(t *testing.T) {
	v := &stubVerifier{result: validResult()}
	svc, _ := newTestService(v)
	req := model.VerificationRequest{
		CertificateURL:  certURL,
		SocialPostURL:   socialURL,
		ClaimedFullName: "Jane Doe",
		RequesterID:     "user-1",
	}

	first, err := svc.Verify(context.Background(), req)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if first.Submission == nil || first.Submission.Status != StatusCorrect {
		t.Fatalf("expected correct submission, got %+v", first.Submission)
	}

	stored, err := svc.Submission(first.Submission.ID)
	if err != nil {
		t.Fatalf("Submission: %v", err)
	}
	if stored.CourseTitle == nil || *stored.CourseTitle != "Introduction to Python" {
		t.Errorf("unexpected stored course title %v", stored.CourseTitle)
	}

	req.CertificateURL = "  " + certURL + " "
	second, err := svc.Verify(context.Background(), req)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if second.Result.Valid || len(second.Result.Errors) != 1 || second.Result.Errors[0] != DuplicateMessage {
		t.Errorf("expected duplicate rejection, got %+v", second.Result)
	}
	if v.calls() != 1 {
		t.Errorf("duplicate should not reach the verifier, got %d calls", v.calls())
	}

	req.RequesterID = "user-2"
	third, _ := svc.Verify(context.Background(), req)
	if !third.Result.Valid {
		t.Errorf("another requester may submit the same link, got %v", third.Result.Errors)
	}
}

func TestService_WrongSubmissionDoesNotBlockRetry(t *testing.T) {
	v := &stubVerifier{result: invalidResult("Coursera certificate is private. Make it publicly accessible.", "Name mismatch")}
	svc, _ := newTestService(v)
	req := model.VerificationRequest{CertificateURL: certURL, SocialPostURL: socialURL, RequesterID: "user-1"}

	out, _ := svc.Verify(context.Background(), req)
	if out.Submission.Status != StatusWrong {
		t.Fatalf("expected wrong status, got %s", out.Submission.Status)
	}
	if out.Submission.ErrorMessage != "Coursera certificate is private. Make it publicly accessible. | Name mismatch" {
		t.Errorf("unexpected error message %q", out.Submission.ErrorMessage)
	}

	v.result = validResult()
	retry, _ := svc.Verify(context.Background(), req)
	if !retry.Result.Valid {
		t.Errorf("expected retry to be verified, got %v", retry.Result.Errors)
	}
}

func TestService_ProfileNameFallback(t *testing.T) {
	v := &stubVerifier{result: validResult()}
	svc, _ := newTestService(v)
	if _, err := svc.PutProfile("user-1", "  Jane Doe "); err != nil {
		t.Fatalf("PutProfile: %v", err)
	}

	_, _ = svc.Verify(context.Background(), model.VerificationRequest{
		CertificateURL: certURL, SocialPostURL: socialURL, RequesterID: "user-1",
	})
	if got := v.seen[0].ClaimedFullName; got != "Jane Doe" {
		t.Errorf("expected profile name to be used, got %q", got)
	}
}

func TestService_Reverify(t *testing.T) {
	v := &stubVerifier{result: invalidResult("LinkedIn post is unavailable or private.")}
	svc, repo := newTestService(v)

	out, _ := svc.Verify(context.Background(), model.VerificationRequest{
		CertificateURL: certURL, SocialPostURL: socialURL, RequesterID: "user-1",
	})
	id := out.Submission.ID

	if _, err := svc.PutProfile("user-1", "Jane Doe"); err != nil {
		t.Fatalf("PutProfile: %v", err)
	}
	v.result = validResult()

	again, err := svc.Verify(context.Background(), model.VerificationRequest{ExistingRecordID: id})
	if err != nil {
		t.Fatalf("Reverify: %v", err)
	}
	if !again.Result.Valid || again.Submission.ID != id {
		t.Fatalf("expected same submission verified, got %+v", again)
	}

	last := v.seen[len(v.seen)-1]
	if last.CertificateURL != certURL || last.ClaimedFullName != "Jane Doe" {
		t.Errorf("unexpected re-verify request %+v", last)
	}

	stored, _ := repo.Submission(id)
	if stored.Status != StatusCorrect || stored.ErrorMessage != "" {
		t.Errorf("expected stored record updated, got %+v", stored)
	}
	if _, err := repo.AcceptedSubmission("user-1", certURL); err != nil {
		t.Errorf("expected accepted index after re-verify, got %v", err)
	}
}

func TestService_ReverifyUnknownRecord(t *testing.T) {
	svc, _ := newTestService(&stubVerifier{result: validResult()})
	_, err := svc.Verify(context.Background(), model.VerificationRequest{ExistingRecordID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ReverifyRestoresStatusOnError(t *testing.T) {
	v := &stubVerifier{result: invalidResult("x")}
	svc, repo := newTestService(v)
	out, _ := svc.Verify(context.Background(), model.VerificationRequest{
		CertificateURL: certURL, SocialPostURL: socialURL, RequesterID: "user-1",
	})

	v.err = errors.New("boom")
	if _, err := svc.Reverify(context.Background(), out.Submission.ID); err == nil {
		t.Fatal("expected error")
	}
	stored, _ := repo.Submission(out.Submission.ID)
	if stored.Status != StatusWrong {
		t.Errorf("expected status restored to wrong, got %s", stored.Status)
	}
}

func TestService_ReviewerNote(t *testing.T) {
	v := &stubVerifier{result: validResult()}
	svc, _ := newTestService(v, WithReviewer(&stubReviewer{note: "Looks consistent."}))

	out, _ := svc.Verify(context.Background(), model.VerificationRequest{
		CertificateURL: certURL, SocialPostURL: socialURL, RequesterID: "user-1",
	})
	if out.Submission.ReviewerNote != "Looks consistent." {
		t.Errorf("expected reviewer note, got %q", out.Submission.ReviewerNote)
	}
	if !out.Result.Valid {
		t.Error("reviewer must not change the verdict")
	}
}

func TestService_ReviewerFailureIsIgnored(t *testing.T) {
	v := &stubVerifier{result: validResult()}
	svc, _ := newTestService(v, WithReviewer(&stubReviewer{err: errors.New("rate limited")}))

	out, err := svc.Verify(context.Background(), model.VerificationRequest{
		CertificateURL: certURL, SocialPostURL: socialURL, RequesterID: "user-1",
	})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if out.Submission.ReviewerNote != "" || out.Submission.Status != StatusCorrect {
		t.Errorf("unexpected submission %+v", out.Submission)
	}
}

func TestService_PutProfileRequiresID(t *testing.T) {
	svc, _ := newTestService(&stubVerifier{result: validResult()})
	if _, err := svc.PutProfile(" ", "Jane"); !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), "requester id") {
		t.Errorf("expected requester id error, got %v", err)
	}
}

func TestService_VerifierErrorPropagates(t *testing.T) {
	want := errors.New("missing links")
	svc, _ := newTestService(&stubVerifier{err: want})
	_, err := svc.Verify(context.Background(), model.VerificationRequest{RequesterID: "user-1"})
	if !errors.Is(err, want) {
		t.Errorf("expected verifier error, got %v", err)
	}
}

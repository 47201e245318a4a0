package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/verifyhub/internal/logger"
	"github.com/ppiankov/verifyhub/internal/model"
)

// DuplicateMessage is the single error returned for an already accepted certificate
const DuplicateMessage = "This Coursera certificate link has already been submitted. Use a different certificate."

// Verifier runs one verification. *pipeline.Pipeline satisfies it.
type Verifier interface {
	Verify(ctx context.Context, req model.VerificationRequest) (*model.VerificationResult, error)
}

// Reviewer writes an advisory note for a human reviewer. It never changes the verdict.
type Reviewer interface {
	Review(ctx context.Context, sub *Submission, result *model.VerificationResult) (string, error)
}

// Outcome is what a verification call produced
type Outcome struct {
	Result     *model.VerificationResult
	Submission *Submission // nil when nothing was persisted
}

// Service is the storage-aware entry point used by the HTTP server and CLI
type Service struct {
	repo     *Repository
	verifier Verifier
	reviewer Reviewer
	now      func() time.Time
	newID    func() string
	log      logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithReviewer attaches an advisory reviewer
func WithReviewer(r Reviewer) Option {
	return func(s *Service) { s.reviewer = r }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service over repo and v
func NewService(repo *Repository, v Verifier, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		verifier: v,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		log:      logger.Named("submission"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify dispatches req: ExistingRecordID re-verifies a stored submission,
// otherwise the link pair is checked fresh.
func (s *Service) Verify(ctx context.Context, req model.VerificationRequest) (*Outcome, error) {
	if id := strings.TrimSpace(req.ExistingRecordID); id != "" {
		return s.Reverify(ctx, id)
	}
	return s.verifyFresh(ctx, req)
}

// verifyFresh checks a new link pair. Requests carrying a requester id are
// guarded against resubmitting an accepted certificate and are persisted.
func (s *Service) verifyFresh(ctx context.Context, req model.VerificationRequest) (*Outcome, error) {
	req.CertificateURL = strings.TrimSpace(req.CertificateURL)
	req.SocialPostURL = strings.TrimSpace(req.SocialPostURL)
	requester := strings.TrimSpace(req.RequesterID)

	if requester == "" {
		result, err := s.verifier.Verify(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Outcome{Result: result}, nil
	}

	if req.CertificateURL != "" {
		if prior, err := s.repo.AcceptedSubmission(requester, req.CertificateURL); err == nil {
			s.log.Info().Str("requester", requester).Str("submission", prior.ID).Msg("duplicate certificate rejected")
			return &Outcome{Result: model.RejectedResult(DuplicateMessage)}, nil
		} else if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("duplicate check: %w", err)
		}
	}

	if strings.TrimSpace(req.ClaimedFullName) == "" {
		if p, err := s.repo.Profile(requester); err == nil {
			req.ClaimedFullName = p.FullName
		}
	}

	now := s.now()
	sub := &Submission{
		ID:             s.newID(),
		RequesterID:    requester,
		CertificateURL: req.CertificateURL,
		SocialPostURL:  req.SocialPostURL,
		Status:         StatusProcessing,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	result, err := s.verifier.Verify(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.record(ctx, sub, result); err != nil {
		return nil, err
	}
	return &Outcome{Result: result, Submission: sub}, nil
}

// Reverify checks a stored submission again, using the requester's profile
// name, and updates the record with the new verdict.
func (s *Service) Reverify(ctx context.Context, id string) (*Outcome, error) {
	sub, err := s.repo.Submission(id)
	if err != nil {
		return nil, err
	}

	req := model.VerificationRequest{
		CertificateURL: sub.CertificateURL,
		SocialPostURL:  sub.SocialPostURL,
		RequesterID:    sub.RequesterID,
	}
	if sub.RequesterID != "" {
		if p, err := s.repo.Profile(sub.RequesterID); err == nil {
			req.ClaimedFullName = p.FullName
		}
	}

	prev := sub.Status
	sub.Status = StatusProcessing
	sub.UpdatedAt = s.now()
	if err := s.repo.SaveSubmission(sub); err != nil {
		return nil, err
	}

	result, err := s.verifier.Verify(ctx, req)
	if err != nil {
		sub.Status = prev
		if saveErr := s.repo.SaveSubmission(sub); saveErr != nil {
			s.log.Error().Err(saveErr).Str("submission", sub.ID).Msg("restore status failed")
		}
		return nil, err
	}
	if err := s.record(ctx, sub, result); err != nil {
		return nil, err
	}
	return &Outcome{Result: result, Submission: sub}, nil
}

// record applies result to sub, adds the reviewer note when configured and saves
func (s *Service) record(ctx context.Context, sub *Submission, result *model.VerificationResult) error {
	sub.Apply(result, s.now())

	if s.reviewer != nil {
		note, err := s.reviewer.Review(ctx, sub, result)
		if err != nil {
			s.log.Warn().Err(err).Str("submission", sub.ID).Msg("reviewer note failed")
		} else {
			sub.ReviewerNote = note
		}
	}

	if err := s.repo.SaveSubmission(sub); err != nil {
		return err
	}
	s.log.Info().
		Str("submission", sub.ID).
		Str("status", string(sub.Status)).
		Msg("submission recorded")
	return nil
}

// Submission returns a stored submission
func (s *Service) Submission(id string) (*Submission, error) {
	return s.repo.Submission(id)
}

// PutProfile stores the full name re-verification matches against
func (s *Service) PutProfile(requesterID, fullName string) (*Profile, error) {
	p := &Profile{
		RequesterID: strings.TrimSpace(requesterID),
		FullName:    strings.TrimSpace(fullName),
		UpdatedAt:   s.now(),
	}
	if p.RequesterID == "" {
		return nil, fmt.Errorf("%w: requester id is required", ErrInvalid)
	}
	if err := s.repo.SaveProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

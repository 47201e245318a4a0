// Package submission persists verification attempts and runs re-verification
// of stored records. The verifier itself stays stateless; this package is the
// storage layer around it.
package submission

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/verifyhub/internal/model"
	"github.com/ppiankov/verifyhub/internal/store"
)

var (
	// ErrNotFound is returned when a submission or profile does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for input the store cannot key
	ErrInvalid = errors.New("invalid input")
)

// Status is the review state of a stored submission
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCorrect    Status = "correct"
	StatusWrong      Status = "wrong"
)

// Submission is one stored pair of evidence links and its latest verdict
type Submission struct {
	ID               string         `json:"id"`
	RequesterID      string         `json:"requesterId,omitempty"`
	CertificateURL   string         `json:"certificateUrl"`
	SocialPostURL    string         `json:"socialPostUrl"`
	Status           Status         `json:"status"`
	ErrorMessage     string         `json:"errorMessage,omitempty"`
	RecipientName    *string        `json:"recipientName"`
	CourseTitle      *string        `json:"courseTitle"`
	SocialHandle     *string        `json:"socialHandle"`
	StudentNameMatch model.TriState `json:"studentNameMatch"`
	CourseMatch      model.TriState `json:"courseMatch"`
	ReviewerNote     string         `json:"reviewerNote,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Apply copies a verdict onto the submission
func (s *Submission) Apply(r *model.VerificationResult, now time.Time) {
	if r.Valid {
		s.Status = StatusCorrect
		s.ErrorMessage = ""
	} else {
		s.Status = StatusWrong
		s.ErrorMessage = strings.Join(r.Errors, " | ")
	}
	s.RecipientName = r.RecipientName
	s.CourseTitle = r.ExtractedCourseTitle
	s.SocialHandle = r.ExtractedSocialHandle
	s.StudentNameMatch = r.StudentNameMatch
	s.CourseMatch = r.CourseMatch
	s.UpdatedAt = now
}

// Profile holds the name a requester is verified against
type Profile struct {
	RequesterID string    `json:"requesterId"`
	FullName    string    `json:"fullName" validate:"required,max=200"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Repository reads and writes submissions and profiles in a store
type Repository struct {
	store store.Store
}

// NewRepository wraps st
func NewRepository(st store.Store) *Repository {
	return &Repository{store: st}
}

// Submission loads a submission by id
func (r *Repository) Submission(id string) (*Submission, error) {
	var sub Submission
	if err := r.get(store.Key("submission", id), &sub); err != nil {
		return nil, fmt.Errorf("submission %s: %w", id, err)
	}
	return &sub, nil
}

// SaveSubmission writes sub. A correct submission also claims the duplicate
// index entry for its requester and certificate link.
func (r *Repository) SaveSubmission(sub *Submission) error {
	if err := r.put(store.Key("submission", sub.ID), sub); err != nil {
		return fmt.Errorf("save submission %s: %w", sub.ID, err)
	}
	if sub.Status == StatusCorrect && sub.RequesterID != "" {
		if err := r.store.Put(duplicateKey(sub.RequesterID, sub.CertificateURL), []byte(`"`+sub.ID+`"`)); err != nil {
			return fmt.Errorf("index submission %s: %w", sub.ID, err)
		}
	}
	return nil
}

// AcceptedSubmission returns the correct submission already recorded for the
// requester and certificate link, or ErrNotFound.
func (r *Repository) AcceptedSubmission(requesterID, certificateURL string) (*Submission, error) {
	var id string
	if err := r.get(duplicateKey(requesterID, certificateURL), &id); err != nil {
		return nil, err
	}
	sub, err := r.Submission(id)
	if err != nil {
		return nil, err
	}
	if sub.Status != StatusCorrect {
		return nil, ErrNotFound
	}
	return sub, nil
}

// Profile loads a requester's profile
func (r *Repository) Profile(requesterID string) (*Profile, error) {
	var p Profile
	if err := r.get(store.Key("profile", requesterID), &p); err != nil {
		return nil, fmt.Errorf("profile %s: %w", requesterID, err)
	}
	return &p, nil
}

// SaveProfile writes p
func (r *Repository) SaveProfile(p *Profile) error {
	if err := r.put(store.Key("profile", p.RequesterID), p); err != nil {
		return fmt.Errorf("save profile %s: %w", p.RequesterID, err)
	}
	return nil
}

func (r *Repository) get(key string, v any) error {
	data, ok := r.store.Get(key)
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (r *Repository) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.store.Put(key, data)
}

func duplicateKey(requesterID, certificateURL string) string {
	return store.HashKey("accepted", requesterID, strings.TrimSpace(certificateURL))
}

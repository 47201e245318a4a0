package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VerificationRequest is the input to a single verification call.
// Either ExistingRecordID or the CertificateURL/SocialPostURL pair must be set.
type VerificationRequest struct {
	CertificateURL   string `json:"certificateUrl,omitempty" validate:"required_without=ExistingRecordID,max=2048"`
	SocialPostURL    string `json:"socialPostUrl,omitempty" validate:"required_without=ExistingRecordID,max=2048"`
	ClaimedFullName  string `json:"claimedFullName,omitempty" validate:"max=200"`
	RequesterID      string `json:"requesterId,omitempty" validate:"max=128"`
	ExistingRecordID string `json:"existingRecordId,omitempty" validate:"max=128"`
}

// TriState is a three-valued match outcome
type TriState int

const (
	Unknown   TriState = iota // No signal either way
	Confirmed                 // Evidence supports the claim
	Refuted                   // Evidence contradicts the claim
)

func (t TriState) String() string {
	switch t {
	case Confirmed:
		return "confirmed"
	case Refuted:
		return "refuted"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the tri-state as its lowercase name
func (t TriState) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the lowercase name produced by MarshalJSON
func (t *TriState) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tri-state: %w", err)
	}
	switch strings.ToLower(s) {
	case "confirmed":
		*t = Confirmed
	case "refuted":
		*t = Refuted
	case "unknown", "":
		*t = Unknown
	default:
		return fmt.Errorf("tri-state: unknown value %q", s)
	}
	return nil
}

// FailureKind classifies why a fetch did not produce a usable page
type FailureKind int

const (
	FailureNone             FailureKind = iota
	FailureTimeout                      // Deadline expired before the body was read
	FailureNetworkError                 // DNS, connection, TLS or body read failure
	FailureNonSuccessStatus             // Response arrived with a non-2xx status
	FailureDisallowed                   // Blocked by robots.txt (only when robots checks are enabled)
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTimeout:
		return "timeout"
	case FailureNetworkError:
		return "network_error"
	case FailureNonSuccessStatus:
		return "non_success_status"
	case FailureDisallowed:
		return "disallowed"
	default:
		return "unknown"
	}
}

// IsTransport reports whether the fetch never produced an HTTP response
func (k FailureKind) IsTransport() bool {
	return k == FailureTimeout || k == FailureNetworkError
}

// FetchOutcome is the immutable result of one page fetch
type FetchOutcome struct {
	URL         string      `json:"url"`
	FinalURL    string      `json:"final_url,omitempty"`
	Succeeded   bool        `json:"succeeded"`
	HTTPStatus  int         `json:"http_status,omitempty"`
	Body        string      `json:"-"`
	FailureKind FailureKind `json:"failure_kind"`
	Err         string      `json:"error,omitempty"`
}

// VerificationResult is the verdict for one request.
// Valid is derived from Errors; use Finalize rather than setting it directly.
type VerificationResult struct {
	Valid                 bool     `json:"valid"`
	Errors                []string `json:"errors"`
	ExtractedCourseTitle  *string  `json:"extractedCourseTitle"`
	ExtractedSocialHandle *string  `json:"extractedSocialHandle"`
	RecipientName         *string  `json:"recipientName"`
	StudentNameMatch      TriState `json:"studentNameMatch"`
	CourseMatch           TriState `json:"courseMatch"`
}

// NewResult returns an empty result with a non-nil error list
func NewResult() *VerificationResult {
	return &VerificationResult{Errors: []string{}}
}

// AddError appends a human-readable error
func (r *VerificationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Finalize derives Valid from the error list
func (r *VerificationResult) Finalize() *VerificationResult {
	if r.Errors == nil {
		r.Errors = []string{}
	}
	r.Valid = len(r.Errors) == 0
	return r
}

// RejectedResult builds an invalid result carrying a single error, used for
// short-circuit paths such as duplicate submissions.
func RejectedResult(msg string) *VerificationResult {
	r := NewResult()
	r.AddError(msg)
	return r.Finalize()
}

// StringPtr returns nil for the empty string
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

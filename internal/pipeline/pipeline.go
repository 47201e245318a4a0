package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ppiankov/verifyhub/internal/classify"
	"github.com/ppiankov/verifyhub/internal/extract"
	"github.com/ppiankov/verifyhub/internal/logger"
	"github.com/ppiankov/verifyhub/internal/match"
	"github.com/ppiankov/verifyhub/internal/model"
	"github.com/ppiankov/verifyhub/internal/validate"
)

// ErrMissingLinks is returned when a request lacks either evidence link
var ErrMissingLinks = errors.New("certificate and social post links are both required")

// Generic messages used when a fetch never produced a response
const (
	msgTimedOut    = "Verification timed out. Please try again."
	msgUnreachable = "Verification failed: the submitted links could not be reached. Please try again."
)

// Phase names the orchestrator's progress through one request, for logging
type Phase string

const (
	PhaseValidatingURLs Phase = "validating_urls"
	PhaseFetching       Phase = "fetching"
	PhaseClassifying    Phase = "classifying"
	PhaseMatching       Phase = "matching"
	PhaseDone           Phase = "done"
)

// Pipeline verifies one certificate/social-post pair per call.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	fetcher    PageFetcher
	urls       *validate.URLValidator
	classifier *classify.Classifier
	courses    *extract.CourseExtractor
	matcher    *match.Matcher
	config     *model.Config
	log        logger.Logger
}

// NewPipeline wires the verification stages from cfg.
// A nil fetcher means a real HTTP fetcher built from cfg.HTTP.
func NewPipeline(cfg *model.Config, fetcher PageFetcher) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	urls, err := validate.NewURLValidator(cfg.Links)
	if err != nil {
		return nil, fmt.Errorf("url validator: %w", err)
	}
	classifier, err := classify.NewClassifier(cfg.Markers, cfg.Links)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	matcher, err := match.NewMatcher(cfg.Markers.Ownership, cfg.Links.CertificateLabel)
	if err != nil {
		return nil, fmt.Errorf("name matcher: %w", err)
	}
	if fetcher == nil {
		fetcher = NewFetcher(cfg.HTTP)
	}

	return &Pipeline{
		fetcher:    fetcher,
		urls:       urls,
		classifier: classifier,
		courses:    extract.NewCourseExtractor(cfg.Links.CertificateSite),
		matcher:    matcher,
		config:     cfg,
		log:        logger.Named("pipeline"),
	}, nil
}

// Verify runs the full check for req and returns the verdict.
// Problems with the evidence itself are reported in the result's Errors;
// the returned error is reserved for malformed requests.
func (p *Pipeline) Verify(ctx context.Context, req model.VerificationRequest) (*model.VerificationResult, error) {
	certURL := strings.TrimSpace(req.CertificateURL)
	socialURL := strings.TrimSpace(req.SocialPostURL)
	if certURL == "" || socialURL == "" {
		return nil, ErrMissingLinks
	}

	log := p.log.With().Str("certificate_url", certURL).Str("social_url", socialURL).Logger()
	result := model.NewResult()

	log.Debug().Str("phase", string(PhaseValidatingURLs)).Msg("checking link domains")
	if errs := p.urls.Check(certURL, socialURL); len(errs) > 0 {
		for _, e := range errs {
			result.AddError(e)
		}
		log.Info().Strs("errors", errs).Msg("rejected before fetch")
		return result.Finalize(), nil
	}

	log.Debug().Str("phase", string(PhaseFetching)).Msg("fetching both pages")
	cert, social, panicked := p.fetchBoth(ctx, certURL, socialURL)

	log.Debug().Str("phase", string(PhaseClassifying)).
		Str("certificate_fetch", cert.FailureKind.String()).
		Int("certificate_status", cert.HTTPStatus).
		Str("social_fetch", social.FailureKind.String()).
		Int("social_status", social.HTTPStatus).
		Msg("fetches finished")

	var certText string
	collapse := panicked || (!p.config.Verify.PreserveFetchDetail &&
		(cert.FailureKind.IsTransport() || social.FailureKind.IsTransport()))

	if collapse {
		result.AddError(genericFetchError(cert, social, panicked))
	} else {
		if msg := p.checkCertificate(cert); msg != "" {
			result.AddError(msg)
		}
		if cert.Succeeded {
			certText = cert.Body
		}
		if msg := p.checkSocial(social); msg != "" {
			result.AddError(msg)
		}
	}

	log.Debug().Str("phase", string(PhaseMatching)).Msg("matching name and course")
	nameMatch := p.matcher.Match(req.ClaimedFullName, certText)
	if nameMatch == model.Refuted {
		result.AddError(p.matcher.MismatchError())
	}
	result.StudentNameMatch = nameMatch
	if nameMatch == model.Confirmed {
		result.RecipientName = model.StringPtr(strings.TrimSpace(req.ClaimedFullName))
	}

	if title := p.courses.Extract(certText); title != "" {
		result.ExtractedCourseTitle = &title
		result.CourseMatch = model.Confirmed
	}
	result.ExtractedSocialHandle = model.StringPtr(extract.SocialHandle(socialURL))

	result.Finalize()
	log.Info().
		Str("phase", string(PhaseDone)).
		Bool("valid", result.Valid).
		Int("errors", len(result.Errors)).
		Str("name_match", result.StudentNameMatch.String()).
		Msg("verification complete")

	return result, nil
}

// fetchBoth fetches the two pages concurrently and waits for both.
// A panicking fetch is recovered and reported through the third return.
func (p *Pipeline) fetchBoth(ctx context.Context, certURL, socialURL string) (model.FetchOutcome, model.FetchOutcome, bool) {
	var (
		wg       sync.WaitGroup
		outcomes [2]model.FetchOutcome
		panicked [2]bool
	)
	for i, u := range []string{certURL, socialURL} {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					p.log.Error().Interface("panic", r).Str("url", u).Msg("fetch panicked")
					outcomes[i] = model.FetchOutcome{URL: u, FailureKind: model.FailureNetworkError, Err: fmt.Sprint(r)}
					panicked[i] = true
				}
			}()
			outcomes[i] = p.fetcher.Fetch(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return outcomes[0], outcomes[1], panicked[0] || panicked[1]
}

// checkCertificate turns the certificate fetch into at most one error
func (p *Pipeline) checkCertificate(o model.FetchOutcome) string {
	label := p.config.Links.CertificateLabel
	switch o.FailureKind {
	case model.FailureNone:
		return p.classifier.Certificate(o.Body).Error
	case model.FailureNonSuccessStatus:
		if o.HTTPStatus == 404 || o.HTTPStatus == 410 {
			return fmt.Sprintf("%s certificate not found (HTTP %d). Check the URL is correct and public.", label, o.HTTPStatus)
		}
		return fmt.Sprintf("%s link returned status %d. Make sure the certificate URL is correct and public.", label, o.HTTPStatus)
	default:
		return p.fetchFailure(label, o)
	}
}

// checkSocial turns the social post fetch into at most one error
func (p *Pipeline) checkSocial(o model.FetchOutcome) string {
	label := p.config.Links.SocialLabel
	switch o.FailureKind {
	case model.FailureNone:
		return p.classifier.Social(o.Body).Error
	case model.FailureNonSuccessStatus:
		return fmt.Sprintf("%s link returned status %d. Make sure the post URL is correct.", label, o.HTTPStatus)
	default:
		return p.fetchFailure(label, o)
	}
}

func (p *Pipeline) fetchFailure(label string, o model.FetchOutcome) string {
	switch o.FailureKind {
	case model.FailureTimeout:
		return fmt.Sprintf("%s link timed out after %s. Please try again.", label, p.config.HTTP.Timeout)
	case model.FailureDisallowed:
		return fmt.Sprintf("%s link could not be checked: fetching it is disallowed by the site's robots.txt.", label)
	default:
		return fmt.Sprintf("%s link could not be reached. Please try again.", label)
	}
}

// genericFetchError picks the single message reported when either fetch
// failed at the transport level. Timeouts win over other network errors.
func genericFetchError(cert, social model.FetchOutcome, panicked bool) string {
	if panicked || cert.FailureKind == model.FailureTimeout || social.FailureKind == model.FailureTimeout {
		return msgTimedOut
	}
	return msgUnreachable
}

// Package classify decides what kind of page an evidence link returned,
// using the substring markers in a model.MarkerSet.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/verifyhub/internal/extract"
	"github.com/ppiankov/verifyhub/internal/model"
)

// Kind is the classification of a fetched page
type Kind string

const (
	KindCertificate       Kind = "certificate"        // Passed every certificate gate
	KindNotFound          Kind = "not_found"          // Not-found marker present
	KindPrivate           Kind = "private"            // Access-restricted marker present
	KindNotCertificate    Kind = "not_certificate"    // No certificate marker, or a generic homepage title
	KindSocialAvailable   Kind = "social_available"   // No unavailability marker
	KindSocialUnavailable Kind = "social_unavailable" // Post removed or private
)

// Outcome is the classification and, for failing kinds, the error to report
type Outcome struct {
	Kind  Kind
	Error string
}

// OK reports whether the page passed classification
func (o Outcome) OK() bool { return o.Error == "" }

// Classifier applies a MarkerSet to page text. It holds no per-call state.
type Classifier struct {
	markers      model.MarkerSet
	genericTitle *regexp.Regexp
	links        model.LinksConfig
}

// NewClassifier compiles the marker set. Marker strings are matched
// case-insensitively, so they are lowercased once here.
func NewClassifier(markers model.MarkerSet, links model.LinksConfig) (*Classifier, error) {
	c := &Classifier{
		markers: model.MarkerSet{
			Version:           markers.Version,
			NotFound:          lowerAll(markers.NotFound),
			Restricted:        lowerAll(markers.Restricted),
			Certificate:       lowerAll(markers.Certificate),
			GenericTitle:      markers.GenericTitle,
			SocialUnavailable: lowerAll(markers.SocialUnavailable),
			Ownership:         lowerAll(markers.Ownership),
		},
		links: links,
	}

	if markers.GenericTitle != "" {
		re, err := regexp.Compile("(?i)" + markers.GenericTitle)
		if err != nil {
			return nil, fmt.Errorf("compile generic title pattern: %w", err)
		}
		c.genericTitle = re
	}

	return c, nil
}

// Version returns the marker set version in use
func (c *Classifier) Version() string {
	return c.markers.Version
}

// Certificate classifies a certificate page. Checks run in priority order and
// the first that fires wins: not-found, then restricted, then the positive
// certificate gate.
func (c *Classifier) Certificate(page string) Outcome {
	lower := strings.ToLower(page)
	label := c.links.CertificateLabel

	if hasAny(lower, c.markers.NotFound) {
		return Outcome{
			Kind:  KindNotFound,
			Error: fmt.Sprintf("%s certificate not found. Check the URL is correct.", label),
		}
	}

	if hasAny(lower, c.markers.Restricted) {
		return Outcome{
			Kind:  KindPrivate,
			Error: fmt.Sprintf("%s certificate is private. Make it publicly accessible.", label),
		}
	}

	if !hasAny(lower, c.markers.Certificate) || c.isGenericTitle(page) {
		return Outcome{
			Kind: KindNotCertificate,
			Error: fmt.Sprintf("This does not appear to be a valid %s certificate. "+
				"Please use the direct certificate/accomplishment share link.", label),
		}
	}

	return Outcome{Kind: KindCertificate}
}

// Social checks a social post page for its own unavailability markers only
func (c *Classifier) Social(page string) Outcome {
	if hasAny(strings.ToLower(page), c.markers.SocialUnavailable) {
		return Outcome{
			Kind:  KindSocialUnavailable,
			Error: fmt.Sprintf("%s post is unavailable or private.", c.links.SocialLabel),
		}
	}
	return Outcome{Kind: KindSocialAvailable}
}

func (c *Classifier) isGenericTitle(page string) bool {
	if c.genericTitle == nil {
		return false
	}
	return c.genericTitle.MatchString(extract.PageTitle(page))
}

// hasAny reports whether lowerText contains any of the (already lowercased) markers
func hasAny(lowerText string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(lowerText, m) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}

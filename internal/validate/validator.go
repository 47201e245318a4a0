package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/verifyhub/internal/model"
)

// Outcome is the result of checking one link. Domain and path are checked
// independently so both problems can be reported in one pass.
type Outcome struct {
	DomainOK bool
	PathOK   bool
}

// OK reports whether the link passed every check
func (o Outcome) OK() bool { return o.DomainOK && o.PathOK }

// URLValidator checks link shape before any network access
type URLValidator struct {
	links     model.LinksConfig
	postPaths []*regexp.Regexp
}

// NewURLValidator compiles the configured social post path patterns.
// Invalid patterns are reported rather than silently skipped.
func NewURLValidator(links model.LinksConfig) (*URLValidator, error) {
	v := &URLValidator{links: links}
	for _, p := range links.SocialPostPaths {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile social path pattern %q: %w", p, err)
		}
		v.postPaths = append(v.postPaths, re)
	}
	return v, nil
}

// Validate checks a URL against a required domain and, when pathPatterns is
// non-nil, a set of accepted path shapes.
func Validate(rawURL, requiredDomain string, pathPatterns []*regexp.Regexp) Outcome {
	out := Outcome{
		DomainOK: DomainMatches(rawURL, requiredDomain),
		PathOK:   true,
	}
	if pathPatterns != nil {
		out.PathOK = PathMatches(rawURL, pathPatterns)
	}
	return out
}

// Check validates both links and returns the human-readable errors, in order:
// certificate domain, social domain, social path.
func (v *URLValidator) Check(certificateURL, socialURL string) []string {
	var errs []string

	cert := Validate(certificateURL, v.links.CertificateDomain, nil)
	if !cert.DomainOK {
		errs = append(errs, fmt.Sprintf("Invalid URL: %s link must be from %s",
			v.links.CertificateLabel, v.links.CertificateDomain))
	}

	social := Validate(socialURL, v.links.SocialDomain, v.postPaths)
	if !social.DomainOK {
		errs = append(errs, fmt.Sprintf("Invalid URL: %s link must be from %s",
			v.links.SocialLabel, v.links.SocialDomain))
	}
	if !social.PathOK {
		errs = append(errs, fmt.Sprintf("Invalid %s link: must be a public post URL (e.g. %s/posts/...)",
			v.links.SocialLabel, v.links.SocialDomain))
	}

	return errs
}

// DomainMatches reports whether the URL's host is domain or a subdomain of it.
// Unparseable URLs never match.
func DomainMatches(rawURL, domain string) bool {
	host := hostOf(rawURL)
	if host == "" || domain == "" {
		return false
	}
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// PathMatches reports whether the URL path matches any of the patterns.
// An empty pattern list accepts every parseable URL.
func PathMatches(rawURL string, patterns []*regexp.Regexp) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	if len(patterns) == 0 {
		return true
	}
	for _, re := range patterns {
		if re.MatchString(parsed.Path) {
			return true
		}
	}
	return false
}

// hostOf returns the lowercased hostname without port, or "" if the URL
// does not parse or names no host. The scheme is not checked.
func hostOf(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
}

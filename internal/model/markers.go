package model

// MarkerSet holds the substring and pattern lists the classifiers run against.
// It is plain data so a page redesign only needs a new set, not new code.
type MarkerSet struct {
	Version string `yaml:"version" mapstructure:"version" json:"version"`

	// Certificate page
	NotFound     []string `yaml:"not_found" mapstructure:"not_found" json:"not_found"`
	Restricted   []string `yaml:"restricted" mapstructure:"restricted" json:"restricted"`
	Certificate  []string `yaml:"certificate" mapstructure:"certificate" json:"certificate"`
	GenericTitle string   `yaml:"generic_title" mapstructure:"generic_title" json:"generic_title"` // Regex, matched case-insensitively against the page <title>

	// Social post page
	SocialUnavailable []string `yaml:"social_unavailable" mapstructure:"social_unavailable" json:"social_unavailable"`

	// Phrases showing the certificate names some recipient
	Ownership []string `yaml:"ownership" mapstructure:"ownership" json:"ownership"`
}

// DefaultMarkers returns the built-in marker set for Coursera certificates and LinkedIn posts
func DefaultMarkers() MarkerSet {
	return MarkerSet{
		Version: "2024-06",
		NotFound: []string{
			"sorry, we couldn't find the page",
			"the page you were looking for doesn't exist",
			"404 not found",
			"page not found",
		},
		Restricted: []string{
			"to view this page, log in",
			"log in to view",
			"you do not have access",
		},
		Certificate: []string{
			"has successfully completed",
			"verify this certificate",
			"an online non-credit course authorized by",
			"completed the online",
			"certificate recipient",
			"accomplishment",
		},
		GenericTitle: `^coursera\s*\|?\s*(online courses|learn)`,
		SocialUnavailable: []string{
			"this post is unavailable",
			"this page doesn't exist",
			"content isn't available",
		},
		Ownership: []string{
			"awarded to",
			"completed by",
			"certificate recipient",
			"presented to",
			"has successfully",
		},
	}
}

package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// minCourseTitleLen is the shortest title accepted as a course name
const minCourseTitleLen = 4

// PageTitle returns the trimmed text of the first <title> element that has
// any text, or "". Empty <title></title> elements are skipped. Entities are decoded.
func PageTitle(page string) string {
	z := html.NewTokenizer(strings.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) != "title" {
				continue
			}
			if z.Next() != html.TextToken {
				continue
			}
			return strings.TrimSpace(string(z.Text()))
		}
	}
}

// CourseExtractor pulls a course name out of a certificate page title
type CourseExtractor struct {
	site   string
	suffix *regexp.Regexp
}

// NewCourseExtractor creates an extractor that strips a trailing "| <site>"
func NewCourseExtractor(site string) *CourseExtractor {
	return &CourseExtractor{
		site:   site,
		suffix: regexp.MustCompile(`(?i)\s*\|?\s*` + regexp.QuoteMeta(site) + `\s*$`),
	}
}

// Extract returns the course title, or "" when the page title is missing,
// too short, or just the site name.
func (e *CourseExtractor) Extract(page string) string {
	title := PageTitle(page)
	if title == "" {
		return ""
	}

	course := title
	if e.site != "" {
		course = e.suffix.ReplaceAllString(course, "")
	}
	course = strings.TrimSpace(course)

	if utf8.RuneCountInString(course) < minCourseTitleLen {
		return ""
	}
	if e.site != "" && strings.EqualFold(course, e.site) {
		return ""
	}
	return course
}

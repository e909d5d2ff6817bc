package resolver

import (
	"regexp"
	"strings"
)

// The cache stores one canonical URL per identity and contextual ID:
// full-size, default format. Format and size are request-time concerns
// rewritten onto the canonical URL, so one cached entry serves every
// variant. The rewrites below are pure and independent of caching.

// formatSuffixRe matches a trailing @<token> format suffix on a CDN URL.
var formatSuffixRe = regexp.MustCompile(`@[^/@]+$`)

// sizePair is a pair of size-token path segments for one CDN namespace.
type sizePair struct {
	full  string
	thumb string
}

var (
	avatarSize = sizePair{full: "/avatar/", thumb: "/avatar_thumbnail/"}
	feedSize   = sizePair{full: "/feed_fullsize/", thumb: "/feed_thumbnail/"}
)

// rewriteFormat replaces the trailing @<token> of a CDN URL with the
// requested format. URLs without a format suffix pass through unchanged.
func rewriteFormat(url, format string) string {
	if format == "" || !formatSuffixRe.MatchString(url) {
		return url
	}
	return formatSuffixRe.ReplaceAllString(url, "@"+format)
}

// rewriteSize swaps the size-token path segment of a CDN URL to the
// requested variant. URLs without either segment pass through unchanged.
func rewriteSize(url string, pair sizePair, fullSize bool) string {
	from, to := pair.thumb, pair.full
	if !fullSize {
		from, to = pair.full, pair.thumb
	}
	return strings.Replace(url, from, to, 1)
}

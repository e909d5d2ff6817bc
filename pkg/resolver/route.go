// Package resolver implements the request routing and resolution
// pipeline: URL parsing, route descriptor building, identity resolution,
// per-section media resolution with a shared cache-aside template, and
// the dispatcher tying them together.
package resolver

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultFormat is assumed when the path carries no @<format> suffix.
const DefaultFormat = "jpeg"

// thumbSuffix is the size modifier recognized on the actor and section
// tokens. The legacy ":sm" convention is not supported.
const thumbSuffix = "-thumb"

// Section is the route category owning one slice of the route space.
type Section int

const (
	// SectionNone is the bare-actor route, served as the avatar.
	SectionNone Section = iota
	SectionAvatar
	SectionBanner
	SectionPost
	SectionVideo
	SectionLink
	SectionBlob
	SectionUnknown
)

// String implements fmt.Stringer.
func (s Section) String() string {
	switch s {
	case SectionNone:
		return "none"
	case SectionAvatar:
		return "avatar"
	case SectionBanner:
		return "banner"
	case SectionPost:
		return "post"
	case SectionVideo:
		return "video"
	case SectionLink:
		return "link"
	case SectionBlob:
		return "blob"
	default:
		return "unknown"
	}
}

var sectionTokens = map[string]Section{
	"avatar": SectionAvatar,
	"banner": SectionBanner,
	"post":   SectionPost,
	"video":  SectionVideo,
	"link":   SectionLink,
	"blob":   SectionBlob,
}

// subTokenIndex marks a numeric sub-index in the fourth segment, so the
// route table can key post-image routes without enumerating numbers.
const subTokenIndex = "index"

// ParsedURL is the output of ParseURL: a lowercased format token and the
// ordered path segments.
type ParsedURL struct {
	Format   string
	Segments []string
}

// ParseURL decodes the raw request path, strips leading slashes, peels an
// optional trailing @<format> suffix, and splits the rest on "/".
//
// An entirely empty path yields a single empty segment; callers treat
// that as the root route, not an error. A leading @ on the first segment
// is an actor sigil and is left for the route builder to strip, so the
// format suffix is only recognized when the @ does not start a segment.
func ParseURL(rawPath string) ParsedURL {
	path := rawPath
	if unescaped, err := url.PathUnescape(rawPath); err == nil {
		path = unescaped
	}
	path = strings.TrimLeft(path, "/")

	format := DefaultFormat
	if idx := strings.LastIndex(path, "@"); idx > 0 && path[idx-1] != '/' && !strings.Contains(path[idx+1:], "/") {
		if token := path[idx+1:]; token != "" {
			format = strings.ToLower(token)
		}
		path = path[:idx]
	}

	return ParsedURL{
		Format:   format,
		Segments: strings.Split(path, "/"),
	}
}

// Route is the canonical route descriptor built once per request.
type Route struct {
	// Actor is the raw actor reference: a handle or an already-canonical DID.
	Actor string

	Section      Section
	ContextualID string

	// SubIndex selects one image of a multi-image post. Defaults to 0.
	SubIndex int

	// SubToken is the literal video sub-route token (thumb, poster,
	// playlist), or subTokenIndex for a numeric post sub-index.
	SubToken string

	// FullSize selects the full-resolution variant; thumbnail otherwise.
	FullSize bool

	Format   string
	Segments int

	// Root marks the empty path, which short-circuits to the homepage.
	Root bool

	// NotFound marks unknown sections and malformed segment shapes.
	// Malformed routes are values, never errors.
	NotFound bool
}

// BuildRoute interprets a parsed segment list into a route descriptor.
func BuildRoute(p ParsedURL) Route {
	segs := p.Segments
	route := Route{
		Format:   p.Format,
		FullSize: true,
		SubIndex: 0,
		Segments: len(segs),
	}

	if len(segs) == 1 && segs[0] == "" {
		route.Root = true
		return route
	}
	if len(segs) > 4 {
		route.NotFound = true
		return route
	}

	actor := strings.TrimPrefix(segs[0], "@")
	if strings.HasSuffix(actor, thumbSuffix) {
		actor = strings.TrimSuffix(actor, thumbSuffix)
		route.FullSize = false
	}
	if actor == "" {
		route.NotFound = true
		return route
	}
	route.Actor = actor

	if len(segs) == 1 {
		route.Section = SectionNone
		return route
	}

	token := segs[1]
	if strings.HasSuffix(token, thumbSuffix) {
		token = strings.TrimSuffix(token, thumbSuffix)
		route.FullSize = false
	}
	section, ok := sectionTokens[token]
	if !ok {
		route.Section = SectionUnknown
		route.NotFound = true
		return route
	}
	route.Section = section

	if len(segs) >= 3 {
		if segs[2] == "" {
			route.NotFound = true
			return route
		}
		route.ContextualID = segs[2]
	}

	if len(segs) == 4 {
		switch section {
		case SectionPost:
			n, err := strconv.Atoi(segs[3])
			if err != nil || n < 0 {
				route.NotFound = true
				return route
			}
			route.SubIndex = n
			route.SubToken = subTokenIndex
		case SectionVideo:
			route.SubToken = segs[3]
		default:
			route.NotFound = true
		}
	}

	return route
}

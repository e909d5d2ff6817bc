package resolver

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Variant identifies one concrete media resolver.
type Variant int

const (
	VariantAvatar Variant = iota
	VariantBanner
	VariantPostImage
	VariantVideoBlob
	VariantVideoThumb
	VariantVideoPlaylist
	VariantLink
	VariantBlob
)

type routeKey struct {
	section  Section
	segments int
	subToken string
}

// routeTable is the declarative route map. Any (section, segment count,
// sub-token) combination not listed here is not-found; there is no
// fallthrough.
var routeTable = map[routeKey]Variant{
	{SectionNone, 1, ""}:            VariantAvatar,
	{SectionAvatar, 2, ""}:          VariantAvatar,
	{SectionBanner, 2, ""}:          VariantBanner,
	{SectionPost, 3, ""}:            VariantPostImage,
	{SectionPost, 4, subTokenIndex}: VariantPostImage,
	{SectionVideo, 3, ""}:           VariantVideoBlob,
	{SectionVideo, 4, "thumb"}:      VariantVideoThumb,
	{SectionVideo, 4, "poster"}:     VariantVideoThumb,
	{SectionVideo, 4, "playlist"}:   VariantVideoPlaylist,
	{SectionLink, 3, ""}:            VariantLink,
	{SectionBlob, 3, ""}:            VariantBlob,
}

// Result is the terminal outcome of a dispatch: exactly one redirect or
// one not-found response.
type Result struct {
	Status   int
	Location string
	Message  string
}

func redirect(location string) Result {
	return Result{Status: http.StatusFound, Location: location}
}

func notFound(message string) Result {
	return Result{Status: http.StatusNotFound, Message: message}
}

// Dispatcher composes the pipeline: parse, build route, resolve
// identity, dispatch to the matching resolver. It holds no state across
// requests.
type Dispatcher struct {
	resolvers *Resolvers
	homepage  string
	logger    zerolog.Logger
}

// NewDispatcher creates a dispatcher. homepageURL is where the bare root
// path redirects to.
func NewDispatcher(resolvers *Resolvers, homepageURL string) *Dispatcher {
	return &Dispatcher{
		resolvers: resolvers,
		homepage:  homepageURL,
		logger:    log.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch runs one request path through the pipeline and returns the
// terminal result. Transitions are linear: Parsed, RouteBuilt,
// IdentityResolved, Dispatched; the root path short-circuits after
// parsing and skips identity resolution entirely.
func (d *Dispatcher) Dispatch(ctx context.Context, rawPath string) Result {
	route := BuildRoute(ParseURL(rawPath))

	if route.Root {
		return redirect(d.homepage)
	}
	if route.NotFound {
		d.logger.Debug().Str("path", rawPath).Msg("Malformed route")
		return notFound("not found")
	}

	variant, ok := routeTable[routeKey{route.Section, route.Segments, route.SubToken}]
	if !ok {
		d.logger.Debug().
			Str("path", rawPath).
			Stringer("section", route.Section).
			Int("segments", route.Segments).
			Msg("Route not covered by route table")
		return notFound("not found")
	}

	did, err := d.resolvers.ResolveIdentity(ctx, route.Actor)
	if err != nil {
		return d.failure(err)
	}

	var target string
	switch variant {
	case VariantAvatar:
		target, err = d.resolvers.ResolveAvatar(ctx, did, route)
	case VariantBanner:
		target, err = d.resolvers.ResolveBanner(ctx, did, route)
	case VariantPostImage:
		target, err = d.resolvers.ResolvePostImage(ctx, did, route)
	case VariantVideoBlob:
		target, err = d.resolvers.ResolveVideoBlob(ctx, did, route)
	case VariantVideoThumb:
		target, err = d.resolvers.ResolveVideoThumb(ctx, did, route)
	case VariantVideoPlaylist:
		target, err = d.resolvers.ResolveVideoPlaylist(ctx, did, route)
	case VariantLink:
		target, err = d.resolvers.ResolveLink(ctx, did, route)
	case VariantBlob:
		target, err = d.resolvers.ResolveBlob(ctx, did, route)
	}
	if err != nil {
		return d.failure(err)
	}

	return redirect(target)
}

// failure maps a pipeline error to the 404 response. Every failure path
// is a value; nothing escapes the dispatcher.
func (d *Dispatcher) failure(err error) Result {
	if errors.Is(err, ErrNotFound) {
		return notFound(err.Error())
	}
	return notFound("not found")
}

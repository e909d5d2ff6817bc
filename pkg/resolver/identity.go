package resolver

import (
	"context"
	"strings"

	"github.com/federationstudio/blob-direct/pkg/cache"
)

// didPrefix marks an already-canonical identifier. Such input passes
// through untouched, with no cache lookup and no upstream call.
const didPrefix = "did:"

// ResolveIdentity turns an actor reference into its canonical DID.
// Non-canonical references go through the cache-aside path with the
// identity TTL tier; upstream failure is a not-found value and leaves no
// cache write behind.
func (r *Resolvers) ResolveIdentity(ctx context.Context, actor string) (string, error) {
	if strings.HasPrefix(actor, didPrefix) {
		return actor, nil
	}

	key := cache.Key("identity", actor)
	return r.lookup(ctx, "identity", key, r.config.IdentityTTL, func(ctx context.Context) (string, error) {
		did, err := r.appview.ResolveHandle(ctx, actor)
		if err != nil {
			r.logger.Debug().Err(err).Str("actor", actor).Msg("Handle resolution failed")
			return "", notFoundf("identity not found for %s", actor)
		}
		return did, nil
	})
}

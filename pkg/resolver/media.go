package resolver

import (
	"context"
	"strconv"
	"time"

	"github.com/federationstudio/blob-direct/pkg/appview"
	"github.com/federationstudio/blob-direct/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blobdirect_resolutions_total",
	Help: "Total resolutions by resolver and outcome",
}, []string{"resolver", "outcome"})

// Config holds the TTL tiers for cached resolutions. Identity bindings
// and post media are effectively immutable; profile images churn more.
type Config struct {
	IdentityTTL time.Duration
	ProfileTTL  time.Duration
	PostTTL     time.Duration
}

// DefaultConfig returns the default TTL tiers.
func DefaultConfig() Config {
	return Config{
		IdentityTTL: 24 * time.Hour,
		ProfileTTL:  6 * time.Hour,
		PostTTL:     24 * time.Hour,
	}
}

// Resolvers owns identity resolution and every media resolver. All state
// is shared configuration; per-request state lives on the stack, so one
// Resolvers value serves concurrent requests.
type Resolvers struct {
	appview *appview.Client
	store   cache.Store
	config  Config
	logger  zerolog.Logger
}

// New creates the resolver set on top of an upstream client and a cache
// store.
func New(client *appview.Client, store cache.Store, cfg Config) *Resolvers {
	return &Resolvers{
		appview: client,
		store:   store,
		config:  cfg,
		logger:  log.With().Str("component", "resolver").Logger(),
	}
}

// lookup is the cache-aside template shared by every resolver: check the
// cache, compute and populate on miss. Cache get errors are handled as
// misses (fail open to upstream); nothing is ever cached on a failed
// compute, so there is no negative caching.
func (r *Resolvers) lookup(ctx context.Context, name, key string, ttl time.Duration, compute func(context.Context) (string, error)) (string, error) {
	value, err := r.store.Get(ctx, key)
	if err == nil {
		r.logger.Debug().Str("key", key).Msg("Cache hit")
		resolutionsTotal.WithLabelValues(name, "hit").Inc()
		return value, nil
	}
	if err != cache.ErrCacheMiss {
		r.logger.Warn().Err(err).Str("key", key).Msg("Cache get failed, treating as miss")
	}

	canonical, err := compute(ctx)
	if err != nil {
		resolutionsTotal.WithLabelValues(name, "not_found").Inc()
		return "", err
	}

	if err := r.store.Put(ctx, key, canonical, ttl); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Cache put failed")
	}
	r.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cached canonical value")
	resolutionsTotal.WithLabelValues(name, "miss").Inc()

	return canonical, nil
}

// ResolveAvatar resolves the avatar route to a CDN URL.
func (r *Resolvers) ResolveAvatar(ctx context.Context, did string, route Route) (string, error) {
	key := cache.Key("avatar", did)
	canonical, err := r.lookup(ctx, "avatar", key, r.config.ProfileTTL, func(ctx context.Context) (string, error) {
		profile, err := r.appview.GetProfile(ctx, did)
		if err != nil || profile.Avatar == "" {
			return "", notFoundf("avatar not found for %s", did)
		}
		return profile.Avatar, nil
	})
	if err != nil {
		return "", err
	}
	return rewriteSize(rewriteFormat(canonical, route.Format), avatarSize, route.FullSize), nil
}

// ResolveBanner resolves the banner route to a CDN URL. The CDN serves
// banners in a single size, so only the format is rewritten.
func (r *Resolvers) ResolveBanner(ctx context.Context, did string, route Route) (string, error) {
	key := cache.Key("banner", did)
	canonical, err := r.lookup(ctx, "banner", key, r.config.ProfileTTL, func(ctx context.Context) (string, error) {
		profile, err := r.appview.GetProfile(ctx, did)
		if err != nil || profile.Banner == "" {
			return "", notFoundf("banner not found for %s", did)
		}
		return profile.Banner, nil
	})
	if err != nil {
		return "", err
	}
	return rewriteFormat(canonical, route.Format), nil
}

// ResolvePostImage resolves one image of a post's images embed.
func (r *Resolvers) ResolvePostImage(ctx context.Context, did string, route Route) (string, error) {
	postID := route.ContextualID
	key := cache.Key("post_image", did, postID, strconv.Itoa(route.SubIndex))
	canonical, err := r.lookup(ctx, "post_image", key, r.config.PostTTL, func(ctx context.Context) (string, error) {
		embed, err := r.postEmbed(ctx, did, postID)
		if err != nil {
			return "", err
		}
		if embed.Type != appview.EmbedTypeImagesView || route.SubIndex >= len(embed.Images) {
			return "", notFoundf("image not found in post %s for %s", postID, did)
		}
		return embed.Images[route.SubIndex].Fullsize, nil
	})
	if err != nil {
		return "", err
	}
	return rewriteSize(rewriteFormat(canonical, route.Format), feedSize, route.FullSize), nil
}

// ResolveVideoBlob resolves the raw video blob of a video embed to its
// sync getBlob URL.
func (r *Resolvers) ResolveVideoBlob(ctx context.Context, did string, route Route) (string, error) {
	postID := route.ContextualID
	key := cache.Key("post_video", did, postID)
	return r.lookup(ctx, "post_video", key, r.config.PostTTL, func(ctx context.Context) (string, error) {
		embed, err := r.postEmbed(ctx, did, postID)
		if err != nil {
			return "", err
		}
		if embed.Type != appview.EmbedTypeVideo || embed.CID == "" {
			return "", notFoundf("video not found in post %s for %s", postID, did)
		}
		return r.appview.SyncBlobURL(did, embed.CID), nil
	})
}

// ResolveVideoThumb resolves the thumbnail of a video view embed.
func (r *Resolvers) ResolveVideoThumb(ctx context.Context, did string, route Route) (string, error) {
	postID := route.ContextualID
	key := cache.Key("video_thumbnail", did, postID)
	canonical, err := r.lookup(ctx, "video_thumbnail", key, r.config.PostTTL, func(ctx context.Context) (string, error) {
		embed, err := r.postEmbed(ctx, did, postID)
		if err != nil {
			return "", err
		}
		if embed.Type != appview.EmbedTypeVideoView || embed.Thumbnail == "" {
			return "", notFoundf("video thumbnail not found in post %s for %s", postID, did)
		}
		return embed.Thumbnail, nil
	})
	if err != nil {
		return "", err
	}
	return rewriteFormat(canonical, route.Format), nil
}

// ResolveVideoPlaylist resolves the HLS playlist of a video view embed.
func (r *Resolvers) ResolveVideoPlaylist(ctx context.Context, did string, route Route) (string, error) {
	postID := route.ContextualID
	key := cache.Key("playlist", did, postID)
	return r.lookup(ctx, "playlist", key, r.config.PostTTL, func(ctx context.Context) (string, error) {
		embed, err := r.postEmbed(ctx, did, postID)
		if err != nil {
			return "", err
		}
		if embed.Type != appview.EmbedTypeVideoView || embed.Playlist == "" {
			return "", notFoundf("video playlist not found in post %s for %s", postID, did)
		}
		return embed.Playlist, nil
	})
}

// ResolveLink resolves the link-preview thumbnail of an external embed.
// The upstream thumb is served from feed_thumbnail; the canonical cached
// form is normalized to feed_fullsize like every other entry.
func (r *Resolvers) ResolveLink(ctx context.Context, did string, route Route) (string, error) {
	postID := route.ContextualID
	key := cache.Key("link", did, postID)
	canonical, err := r.lookup(ctx, "link", key, r.config.PostTTL, func(ctx context.Context) (string, error) {
		embed, err := r.postEmbed(ctx, did, postID)
		if err != nil {
			return "", err
		}
		if embed.Type != appview.EmbedTypeExternalView || embed.External == nil || embed.External.Thumb == "" {
			return "", notFoundf("link preview not found in post %s for %s", postID, did)
		}
		return rewriteSize(embed.External.Thumb, feedSize, true), nil
	})
	if err != nil {
		return "", err
	}
	return rewriteSize(rewriteFormat(canonical, route.Format), feedSize, route.FullSize), nil
}

// ResolveBlob resolves a raw content-addressed blob to its storage URL,
// verifying existence via the PDS sync endpoint on miss.
func (r *Resolvers) ResolveBlob(ctx context.Context, did string, route Route) (string, error) {
	cid := route.ContextualID
	key := cache.Key("blob", did, cid)
	return r.lookup(ctx, "blob", key, r.config.PostTTL, func(ctx context.Context) (string, error) {
		blobURL, err := r.appview.ResolveBlob(ctx, did, cid)
		if err != nil {
			return "", notFoundf("blob not found for %s", did)
		}
		return blobURL, nil
	})
}

// postEmbed fetches a post thread and returns its embed, collapsing
// upstream failures and embed-less posts into not-found.
func (r *Resolvers) postEmbed(ctx context.Context, did, postID string) (*appview.Embed, error) {
	thread, err := r.appview.GetPostThread(ctx, did, postID)
	if err != nil {
		return nil, notFoundf("post %s not found for %s", postID, did)
	}
	if thread.Thread.Post.Embed == nil {
		return nil, notFoundf("post %s has no media for %s", postID, did)
	}
	return thread.Thread.Post.Embed, nil
}

package appview

// Embed $type tags as returned by getPostThread.
const (
	EmbedTypeImagesView   = "app.bsky.embed.images#view"
	EmbedTypeVideo        = "app.bsky.embed.video"
	EmbedTypeVideoView    = "app.bsky.embed.video#view"
	EmbedTypeExternalView = "app.bsky.embed.external#view"
)

// Profile is the subset of app.bsky.actor.getProfile used by the proxy.
type Profile struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
	Avatar string `json:"avatar"`
	Banner string `json:"banner"`
}

// Embed is the tagged union of post attachment payloads. Which fields are
// populated depends on Type; callers must check the tag before reading
// type-specific fields.
type Embed struct {
	Type string `json:"$type"`

	// app.bsky.embed.video (record embed): raw video blob reference
	CID string `json:"cid"`

	// app.bsky.embed.video#view
	Playlist  string `json:"playlist"`
	Thumbnail string `json:"thumbnail"`

	// app.bsky.embed.images#view
	Images []EmbedImage `json:"images"`

	// app.bsky.embed.external#view
	External *EmbedExternal `json:"external"`
}

// EmbedImage is one entry of an images-type embed.
type EmbedImage struct {
	Thumb    string `json:"thumb"`
	Fullsize string `json:"fullsize"`
	Alt      string `json:"alt"`
}

// EmbedExternal is the link-preview payload of an external-link embed.
type EmbedExternal struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumb       string `json:"thumb"`
}

// Post is a single post within a thread view.
type Post struct {
	URI   string `json:"uri"`
	CID   string `json:"cid"`
	Embed *Embed `json:"embed"`
}

// PostThread is the subset of app.bsky.feed.getPostThread used by the proxy.
type PostThread struct {
	Thread struct {
		Post Post `json:"post"`
	} `json:"thread"`
}

type resolveHandleResponse struct {
	DID string `json:"did"`
}

package cache

import "testing"

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		resolver string
		parts    []string
		want     string
	}{
		{
			name:     "resolver only",
			resolver: "identity",
			parts:    nil,
			want:     "identity",
		},
		{
			name:     "identity key",
			resolver: "identity",
			parts:    []string{"alice.bsky.social"},
			want:     "identity:alice.bsky.social",
		},
		{
			name:     "did keeps its own colons",
			resolver: "avatar",
			parts:    []string{"did:plc:abc123"},
			want:     "avatar:did:plc:abc123",
		},
		{
			name:     "post image key with index",
			resolver: "post_image",
			parts:    []string{"did:plc:abc123", "3kabc", "0"},
			want:     "post_image:did:plc:abc123:3kabc:0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.resolver, tt.parts...); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	a := Key("post_image", "did:plc:abc123", "3kabc", "0")
	b := Key("post_image", "did:plc:abc123", "3kabc", "0")
	if a != b {
		t.Errorf("Key() not deterministic: %q vs %q", a, b)
	}
}

package cache

import "strings"

// Key builds a deterministic composite cache key from a resolver name and
// its route parameters.
//
// Format: resolver:part1:part2:...
//
// Example:
//
//	post_image:did:plc:abc123:3kabc:0
func Key(resolver string, parts ...string) string {
	return strings.Join(append([]string{resolver}, parts...), ":")
}

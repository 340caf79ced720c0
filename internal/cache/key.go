package cache

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key hashes text and text type into a cache key. The text is hashed verbatim
// because cached span offsets refer to it; the text type is trimmed and
// lower-cased. A NUL separator keeps ("ab", "c") and ("a", "bc") apart.
//
// Collisions are not detected: a colliding lookup returns the other entry.
// The cache memoizes heuristics and is not an integrity store.
func Key(text, textType string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(text)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(strings.ToLower(strings.TrimSpace(textType)))
	return d.Sum64()
}

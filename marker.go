package livebind

import (
	"crypto/rand"
	"encoding/hex"
)

// marker is substituted for every dynamic value when a literal is joined for
// parsing. It is lowercase so it survives attribute-name folding.
var marker = generateMarker()

// generateMarker generates the per-process binding marker
func generateMarker() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "{{lb-" + hex.EncodeToString(b) + "}}"
}

package dataset

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a stable hex digest of an upload and the parameters it
// was processed with. Equal inputs always yield equal keys.
func Fingerprint(content []byte, params ...string) string {
	h := sha256.New()
	h.Write(content)
	for _, p := range params {
		// NUL separators keep ("ab","c") and ("a","bc") apart.
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

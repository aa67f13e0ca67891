package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// CacheKey returns a content hash of (product, weights). Results are a
// deterministic function of these inputs, so equal keys imply equal results.
func CacheKey(p Product, w ScoreWeights) string {
	return HashKey("score", struct {
		Product Product      `json:"product"`
		Weights ScoreWeights `json:"weights"`
	}{p, w})
}

// HashKey hashes the JSON encoding of v under a namespace prefix.
func HashKey(namespace string, v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// NaN and Inf are not encodable; such inputs are never cached.
		return ""
	}
	sum := sha256.Sum256(data)
	return namespace + ":" + hex.EncodeToString(sum[:])
}

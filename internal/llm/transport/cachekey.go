package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// CurrentCacheKeyVersion is mixed into every key. Increment it when the key
// derivation changes so stale cache entries are never read.
const CurrentCacheKeyVersion = "v1"

// Validation errors for cache key derivation.
var (
	ErrProviderRequired = errors.New("provider is required")
	ErrModelRequired    = errors.New("model is required")
	ErrPromptRequired   = errors.New("prompt is required")
)

// canonicalRequest is the stable form of a request used for hashing.
// Only fields that influence the generated text are included.
type canonicalRequest struct {
	Version  string `json:"version"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
}

// CacheKey returns a deterministic SHA-256 hex key for req. Provider and model
// are case-normalized; the prompt is used verbatim.
func CacheKey(req *Request) (string, error) {
	c := canonicalRequest{
		Version:  CurrentCacheKeyVersion,
		Provider: strings.ToLower(strings.TrimSpace(req.Provider)),
		Model:    strings.ToLower(strings.TrimSpace(req.Model)),
		Prompt:   req.Prompt,
	}

	switch {
	case c.Provider == "":
		return "", ErrProviderRequired
	case c.Model == "":
		return "", ErrModelRequired
	case c.Prompt == "":
		return "", ErrPromptRequired
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

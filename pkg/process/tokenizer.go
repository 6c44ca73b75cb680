package process

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultEncoding is used when no tokenizer_encoding is configured.
const DefaultEncoding = "cl100k_base"

// ErrUnknownEncoding is returned for a tokenizer_encoding outside the
// supported set.
var ErrUnknownEncoding = errors.New("unknown tokenizer encoding")

// encodings maps configuration names to tiktoken codecs. Completion splitting
// and manifest token totals are only comparable across runs that use the same
// entry.
var encodings = map[string]tokenizer.Encoding{
	"cl100k_base": tokenizer.Cl100kBase, // GPT-4, GPT-3.5
	"o200k_base":  tokenizer.O200kBase,  // GPT-4o
	"p50k_base":   tokenizer.P50kBase,
	"p50k_edit":   tokenizer.P50kEdit,
	"r50k_base":   tokenizer.R50kBase,
}

var (
	codec      tokenizer.Codec
	codecMu    sync.RWMutex
	activeName string
)

// SupportedEncodings lists the accepted tokenizer_encoding values, sorted.
func SupportedEncodings() []string {
	names := make([]string, 0, len(encodings))
	for name := range encodings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSupportedEncoding reports whether name is an accepted tokenizer_encoding.
func IsSupportedEncoding(name string) bool {
	_, ok := encodings[name]
	return ok
}

// InitTokenizer loads the codec used by CountTokens and completion splitting.
// An empty name selects DefaultEncoding. An unsupported name returns
// ErrUnknownEncoding and leaves the current codec in place.
func InitTokenizer(encoding string) error {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, ok := encodings[encoding]
	if !ok {
		return fmt.Errorf("%w %q (supported: %s)", ErrUnknownEncoding, encoding,
			strings.Join(SupportedEncodings(), ", "))
	}

	c, err := tokenizer.Get(enc)
	if err != nil {
		return fmt.Errorf("load tokenizer %q: %w", encoding, err)
	}

	codecMu.Lock()
	defer codecMu.Unlock()
	codec = c
	activeName = encoding
	return nil
}

// ActiveEncoding returns the name of the loaded codec, or "" before a
// successful InitTokenizer.
func ActiveEncoding() string {
	codecMu.RLock()
	defer codecMu.RUnlock()
	return activeName
}

// CountTokens returns the token count of a prompt or completion. Without a
// loaded codec, or when encoding fails, it falls back to a len/4 estimate.
func CountTokens(text string) int {
	codecMu.RLock()
	defer codecMu.RUnlock()

	if codec == nil {
		return estimateTokens(text)
	}

	ids, _, err := codec.Encode(text)
	if err != nil {
		return estimateTokens(text)
	}
	return len(ids)
}

// estimateTokens approximates English text at four bytes per token.
func estimateTokens(text string) int {
	return len(text) / 4
}

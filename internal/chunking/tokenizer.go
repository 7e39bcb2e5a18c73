package chunking

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const defaultModel = "text-embedding-3-large"
const defaultEncoding = "cl100k_base"

var (
	encodingMu sync.Mutex
	encoders   = map[string]*tiktoken.Tiktoken{}
)

// CountTokens returns the BPE token count of text under the encoding for
// model. The encoder is expensive to build and immutable once built, so
// it's cached per model behind a plain mutex: tiktoken-go's own
// construction has no cheap existence check to make a read/write-locked
// fast path worthwhile, unlike the tree-sitter grammar cache.
func CountTokens(text, model string) int {
	if model == "" {
		model = defaultModel
	}
	enc, err := encoderForModel(model)
	if err != nil {
		// Fall back to a rough four-characters-per-token estimate rather than
		// fail the whole pipeline over a missing encoding table.
		return len(text)/4 + 1
	}
	return len(enc.Encode(text, nil, nil))
}

func encoderForModel(model string) (*tiktoken.Tiktoken, error) {
	encodingMu.Lock()
	defer encodingMu.Unlock()

	if enc, ok := encoders[model]; ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("load tiktoken encoding %q: %w", defaultEncoding, err)
		}
	}
	encoders[model] = enc
	return enc, nil
}

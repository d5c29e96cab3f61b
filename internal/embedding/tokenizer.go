package embedding

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

const defaultMaxTokens = 256

// Tokenizer produces fixed-length BERT-style model inputs (input_ids,
// attention_mask, token_type_ids) padded to maxTokens.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64, err error)
}

// WordPieceTokenizer encodes text with the vocabulary, normalizer and special
// tokens of a Hugging Face tokenizer.json, as shipped with sentence-transformers
// exports such as all-MiniLM-L6-v2.
type WordPieceTokenizer struct {
	encode func(text string) (*tokenizer.Encoding, error)
}

var _ Tokenizer = (*WordPieceTokenizer)(nil)

// NewWordPieceTokenizer loads the tokenizer.json at path.
func NewWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	return &WordPieceTokenizer{
		encode: func(text string) (*tokenizer.Encoding, error) {
			return tk.EncodeSingle(text, true)
		},
	}, nil
}

// Tokenize encodes text with [CLS] and [SEP]. Longer sequences are cut to
// maxTokens keeping the final [SEP]; shorter ones are zero-padded.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64, err error) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	en, err := t.encode(text)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("tokenize: %w", err)
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	n := len(en.Ids)
	truncated := n > maxTokens
	if truncated {
		n = maxTokens
	}
	for i := 0; i < n; i++ {
		inputIDs[i] = int64(en.Ids[i])
		attentionMask[i] = 1
		if i < len(en.TypeIds) {
			tokenTypeIDs[i] = int64(en.TypeIds[i])
		}
	}
	if truncated {
		inputIDs[n-1] = int64(en.Ids[len(en.Ids)-1])
	}
	return inputIDs, attentionMask, tokenTypeIDs, nil
}

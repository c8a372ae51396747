package streamgen

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates the number of tokens in a piece of streamed text.
// The estimate is used for usage and progress reporting only; it is not
// required to match the provider's own tokenization.
type TokenCounter interface {
	CountTokens(text string) int
}

// WordCounter approximates tokens as whitespace-delimited words. It is the
// default TokenCounter and needs no setup.
type WordCounter struct{}

func (WordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

// TiktokenCounter counts tokens with a real BPE encoding via the tiktoken
// library. Use it when the approximate word count is not good enough, e.g.
// when comparing against provider-reported usage.
//
// Constructing a TiktokenCounter may download the encoding's vocabulary on
// first use, so it is not suitable for offline environments.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a TiktokenCounter for a named encoding, such
// as "cl100k_base".
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

// NewTiktokenCounterForModel creates a TiktokenCounter using the encoding
// associated with the given model name.
func NewTiktokenCounterForModel(model string) (*TiktokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

var _ TokenCounter = WordCounter{}
var _ TokenCounter = (*TiktokenCounter)(nil)

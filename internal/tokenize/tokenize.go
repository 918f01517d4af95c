// Package tokenize turns note text into the padded id/mask batches the
// reference encoder expects. Tokens are hashed into a fixed vocabulary, so no
// vocabulary file is needed.
package tokenize

import (
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/varalys/clinprep/internal/encoder"
	"github.com/varalys/clinprep/internal/tensor"
)

// Reserved ids.
const (
	PadID      = 0
	CLSID      = 1
	SEPID      = 2
	UnknownID  = 3
	firstToken = 4
)

const phiToken = "@@PHI@@"

// Tokenizer lowercases, splits on whitespace and punctuation, and hashes
// each piece into [firstToken, VocabSize).
type Tokenizer struct {
	VocabSize int
	MaxLen    int
}

// New returns a tokenizer for a model with the given vocabulary and maximum
// sequence length.
func New(vocabSize, maxLen int) (*Tokenizer, error) {
	if vocabSize <= firstToken {
		return nil, errors.Errorf("tokenize: vocabulary of %d leaves no room for tokens", vocabSize)
	}
	if maxLen < 2 {
		return nil, errors.Errorf("tokenize: max length %d cannot hold [CLS] and [SEP]", maxLen)
	}
	return &Tokenizer{VocabSize: vocabSize, MaxLen: maxLen}, nil
}

// Split breaks text into lowercase word and punctuation pieces. The PHI
// placeholder is kept as a single piece.
func Split(text string) []string {
	var out []string
	for _, field := range strings.Fields(text) {
		for i, part := range strings.Split(field, phiToken) {
			if i > 0 {
				out = append(out, phiToken)
			}
			out = splitWord(out, part)
		}
	}
	return out
}

func splitWord(out []string, word string) []string {
	start := -1
	for i, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, strings.ToLower(word[start:i]))
			start = -1
		}
		out = append(out, string(r))
	}
	if start >= 0 {
		out = append(out, strings.ToLower(word[start:]))
	}
	return out
}

// ID maps a piece to its vocabulary id.
func (t *Tokenizer) ID(piece string) int {
	if piece == "" {
		return UnknownID
	}
	span := uint64(t.VocabSize - firstToken)
	return firstToken + int(xxhash.Sum64String(piece)%span)
}

// Encode returns [CLS] pieces... [SEP], truncated to MaxLen.
func (t *Tokenizer) Encode(text string) []int {
	pieces := Split(text)
	if len(pieces) > t.MaxLen-2 {
		pieces = pieces[:t.MaxLen-2]
	}
	ids := make([]int, 0, len(pieces)+2)
	ids = append(ids, CLSID)
	for _, p := range pieces {
		ids = append(ids, t.ID(p))
	}
	return append(ids, SEPID)
}

// Batch pads the encoded texts to the longest one and returns input ids and
// attention mask tensors on the host.
func (t *Tokenizer) Batch(texts []string) (tensor.Batch, error) {
	if len(texts) == 0 {
		return nil, errors.New("tokenize: empty batch")
	}
	enc := make([][]int, len(texts))
	seq := 0
	for i, s := range texts {
		enc[i] = t.Encode(s)
		if len(enc[i]) > seq {
			seq = len(enc[i])
		}
	}
	ids := tensor.Zeros(len(texts), seq)
	mask := tensor.Zeros(len(texts), seq)
	for i, e := range enc {
		for j, id := range e {
			ids.Set(float64(id), i, j)
			mask.Set(1, i, j)
		}
	}
	return tensor.Batch{encoder.InputIDs: ids, encoder.AttentionMask: mask}, nil
}

// Dataset splits texts into batches of batchSize in order. The final batch
// holds the remainder.
func (t *Tokenizer) Dataset(texts []string, batchSize int) (*tensor.SliceDataset, error) {
	if batchSize <= 0 {
		return nil, errors.Errorf("tokenize: batch size must be positive, got %d", batchSize)
	}
	var batches []tensor.Batch
	for lo := 0; lo < len(texts); lo += batchSize {
		hi := lo + batchSize
		if hi > len(texts) {
			hi = len(texts)
		}
		b, err := t.Batch(texts[lo:hi])
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return tensor.NewSliceDataset(batches...), nil
}

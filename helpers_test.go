package dagbok

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// Fixture vocabulary used across tests. Line number = token id.
var testVocabTokens = []string{
	"[PAD]",  // 0
	"[UNK]",  // 1
	"[CLS]",  // 2
	"[SEP]",  // 3
	"hello",  // 4
	"world",  // 5
	"how",    // 6
	"are",    // 7
	"you",    // 8
	"fine",   // 9
	"today",  // 10
	"feel",   // 11
	"##ing",  // 12
	"happy",  // 13
	"sad",    // 14
	".",      // 15
	"?",      // 16
	"!",      // 17
	",",      // 18
	"good",   // 19
	"great",  // 20
}

func writeVocabFile(t *testing.T, tokens ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(tokens, "\n")+"\n"), 0o644))
	return path
}

func newTestVocab(t *testing.T) *Vocabulary {
	t.Helper()
	v, err := LoadVocabulary(writeVocabFile(t, testVocabTokens...))
	require.NoError(t, err)
	return v
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEngine is a scripted Engine: the i-th Forward call is answered by
// respond[i]. It mirrors the real engine's buffer discipline by counting
// acquisitions and releases, so tests can assert the balance holds across
// successful and failed passes alike.
type fakeEngine struct {
	respond []func(ids []int64) (*Logits, error)

	calls     int
	allocated int
	released  int
	closed    bool
}

func (f *fakeEngine) Forward(ctx context.Context, ids, mask, extra []int64) (*Logits, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i := f.calls
	f.calls++

	// Three input buffers per pass, reclaimed on every exit path.
	f.allocated += 3
	f.released += 3

	if i >= len(f.respond) {
		return nil, newError(ErrInference, "forward pass", errors.New("unscripted call"))
	}
	out, err := f.respond[i](ids)
	if out != nil {
		// Output buffer: copied out, then reclaimed.
		f.allocated++
		f.released++
	}
	return out, err
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

// classLogits builds a [1, n] classification output.
func classLogits(values ...float32) *Logits {
	return &Logits{Data: values, Shape: []int64{1, int64(len(values))}}
}

// nextTokenLogits builds a [1, seqLen, vocabSize] generation output whose
// final-position argmax is next.
func nextTokenLogits(seqLen, vocabSize int, next int64) *Logits {
	data := make([]float32, seqLen*vocabSize)
	data[(seqLen-1)*vocabSize+int(next)] = 5
	return &Logits{Data: data, Shape: []int64{1, int64(seqLen), int64(vocabSize)}}
}

// scriptTokens scripts one forward response per token, each picking that
// token at the final position of the current sequence.
func scriptTokens(vocabSize int, tokens ...int64) []func(ids []int64) (*Logits, error) {
	script := make([]func(ids []int64) (*Logits, error), len(tokens))
	for i, tok := range tokens {
		tok := tok
		script[i] = func(ids []int64) (*Logits, error) {
			return nextTokenLogits(len(ids), vocabSize, tok), nil
		}
	}
	return script
}

func failForward(msg string) func(ids []int64) (*Logits, error) {
	return func(ids []int64) (*Logits, error) {
		return nil, newError(ErrInference, "forward pass", errors.New(msg))
	}
}

func newTestClassifier(t *testing.T, engine Engine, opts ...Option) *Classifier {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	return newClassifierWithEngine(engine, newTestVocab(t), applyOptions(opts))
}

func newTestGenerator(t *testing.T, engine Engine, opts ...Option) *Generator {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	return newGeneratorWithEngine(engine, newTestVocab(t), applyOptions(opts))
}

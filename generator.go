package dagbok

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// generationState is the mutable state of one decode loop: the growing token
// sequence, the step counter and the stop flag. Owned exclusively by a single
// Generate call and discarded at loop exit.
type generationState struct {
	ids       []int64
	promptLen int
	steps     int
	done      bool
}

func (s *generationState) append(id int64) {
	s.ids = append(s.ids, id)
	s.steps++
}

// generated returns the ids produced after the prompt.
func (s *generationState) generated() []int64 {
	return s.ids[s.promptLen:]
}

// Generator produces short text (titles, reflective questions) from a prompt
// using greedy autoregressive decoding. At most one forward pass is in
// flight per Generator; concurrent calls queue on an internal mutex.
type Generator struct {
	engine       Engine
	tokenizer    *WordPieceTokenizer
	vocab        *Vocabulary
	maxNewTokens int
	log          *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewGenerator creates a generative session from raw ONNX model bytes, a
// newline-delimited vocabulary file, and an optional merge-rule file. Merge
// rules are validated at load but not yet consumed by decoding; subword
// decoding works from the vocabulary alone.
func NewGenerator(modelBytes []byte, vocabPath, mergesPath string, opts ...Option) (*Generator, error) {
	o := applyOptions(opts)

	vocab, err := LoadVocabulary(vocabPath)
	if err != nil {
		return nil, newError(ErrInit, "initialize generator", err)
	}

	if mergesPath != "" {
		rules, err := loadMergeRules(mergesPath)
		if err != nil {
			return nil, newError(ErrInit, "initialize generator", err)
		}
		o.log.Debug("merge rules loaded", "count", rules, "applied", false)
	}

	engine, err := newONNXEngine(modelBytes, []string{"input_ids", "attention_mask", "position_ids"}, o)
	if err != nil {
		return nil, newError(ErrInit, "initialize generator", err)
	}

	g := newGeneratorWithEngine(engine, vocab, o)
	g.log.Debug("generator initialized",
		"vocab_size", vocab.Size(),
		"max_new_tokens", g.maxNewTokens)
	return g, nil
}

func newGeneratorWithEngine(engine Engine, vocab *Vocabulary, o options) *Generator {
	return &Generator{
		engine:       engine,
		tokenizer:    NewWordPieceTokenizer(vocab),
		vocab:        vocab,
		maxNewTokens: o.maxNewTokens,
		log:          o.log,
	}
}

// Generate runs greedy decoding from the given prompt and returns the
// generated text. Generation is best-effort: once decoding has started, an
// engine failure stops the loop and returns whatever was produced so far.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return "", newError(ErrNotInitialized, "generate", nil)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", newError(ErrEmptyInput, "generate", nil)
	}

	st := &generationState{ids: g.tokenizer.EncodePrompt(prompt)}
	st.promptLen = len(st.ids)

	for st.steps < g.maxNewTokens && !st.done {
		if ctx.Err() != nil {
			g.log.Debug("generation cancelled", "steps", st.steps)
			break
		}

		// Every iteration re-runs the full growing sequence; no KV cache.
		logits, err := g.engine.Forward(ctx, st.ids, onesLike(st.ids), positionsLike(st.ids))
		if err != nil {
			g.log.Warn("forward pass failed, stopping generation",
				"steps", st.steps, "error", err)
			break
		}

		next, err := lastPositionArgmax(logits, len(st.ids))
		if err != nil {
			g.log.Warn("invalid generation output, stopping",
				"steps", st.steps, "error", err)
			break
		}
		if next == g.vocab.eosID {
			st.done = true
			break
		}
		st.append(next)
	}

	return g.tokenizer.Decode(st.generated()), nil
}

// GenerateTitle produces a short title for the note content.
func (g *Generator) GenerateTitle(ctx context.Context, note string) (string, error) {
	if strings.TrimSpace(note) == "" {
		return "", newError(ErrEmptyInput, "generate title", nil)
	}
	out, err := g.Generate(ctx, buildTitlePrompt(note))
	if err != nil {
		return "", err
	}
	return firstLine(out), nil
}

// GenerateQuestion produces one reflective question about the note content.
func (g *Generator) GenerateQuestion(ctx context.Context, note string) (string, error) {
	if strings.TrimSpace(note) == "" {
		return "", newError(ErrEmptyInput, "generate question", nil)
	}
	out, err := g.Generate(ctx, buildQuestionPrompt(note))
	if err != nil {
		return "", err
	}
	return firstLine(out), nil
}

// Close releases the model session. Safe to call multiple times.
func (g *Generator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	return g.engine.Close()
}

// lastPositionArgmax picks the greedy next token from the logits at the
// final sequence position. Accepts [1, seqLen, vocab] or [1, vocab] outputs.
func lastPositionArgmax(logits *Logits, seqLen int) (int64, error) {
	if logits == nil || len(logits.Data) == 0 {
		return 0, errors.New("empty logits")
	}
	switch len(logits.Shape) {
	case 3:
		vocabSize := int(logits.Shape[2])
		if vocabSize <= 0 || int(logits.Shape[1]) != seqLen || len(logits.Data) < seqLen*vocabSize {
			return 0, errors.Errorf("unexpected logits shape %v for sequence length %d", logits.Shape, seqLen)
		}
		row := logits.Data[(seqLen-1)*vocabSize : seqLen*vocabSize]
		return int64(argmax(row)), nil
	case 2:
		return int64(argmax(logits.Data)), nil
	default:
		return 0, errors.Errorf("unexpected logits shape %v", logits.Shape)
	}
}

func onesLike(ids []int64) []int64 {
	mask := make([]int64, len(ids))
	for i := range mask {
		mask[i] = 1
	}
	return mask
}

func positionsLike(ids []int64) []int64 {
	pos := make([]int64, len(ids))
	for i := range pos {
		pos[i] = int64(i)
	}
	return pos
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// loadMergeRules counts the subword merge rules in a merges.txt-style file.
func loadMergeRules(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open merge rules")
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, errors.Wrap(err, "read merge rules")
	}
	return count, nil
}

package dagbok

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// DefaultEmotionLabels is the emotion category set the bundled journaling
// model was trained on, in output order.
var DefaultEmotionLabels = []string{
	"joy",
	"gratitude",
	"love",
	"hope",
	"calm",
	"surprise",
	"sadness",
	"anger",
	"fear",
	"anxiety",
	"frustration",
	"disgust",
	"neutral",
}

// ClassifyResult holds the output of one classification. Label and Score
// contain the top prediction. AllScores contains scores for every mapped label.
type ClassifyResult struct {
	Label     string
	Score     float32
	AllScores []LabelScore
}

// LabelScore is a single label with its probability.
type LabelScore struct {
	Label string
	Score float32
}

// String returns the result as "label (score%)".
func (r *ClassifyResult) String() string {
	return fmt.Sprintf("%s (%.1f%%)", r.Label, r.Score*100)
}

// SentenceAnnotation pairs a sentence with its classification result.
type SentenceAnnotation struct {
	Sentence string
	Result   ClassifyResult
}

// Classifier runs per-sentence emotion classification using a pre-trained
// model. At most one forward pass is in flight per Classifier; concurrent
// calls queue on an internal mutex.
type Classifier struct {
	engine    Engine
	tokenizer *WordPieceTokenizer
	labels    []string
	maxSeqLen int
	log       *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewClassifier creates a classification session from raw ONNX model bytes
// and a newline-delimited WordPiece vocabulary file. The session owns the
// loaded model until Close; re-initialization means constructing a new value.
func NewClassifier(modelBytes []byte, vocabPath string, opts ...Option) (*Classifier, error) {
	o := applyOptions(opts)

	vocab, err := LoadVocabulary(vocabPath)
	if err != nil {
		return nil, newError(ErrInit, "initialize classifier", err)
	}

	engine, err := newONNXEngine(modelBytes, []string{"input_ids", "attention_mask", "token_type_ids"}, o)
	if err != nil {
		return nil, newError(ErrInit, "initialize classifier", err)
	}

	c := newClassifierWithEngine(engine, vocab, o)
	c.log.Debug("classifier initialized",
		"vocab_size", vocab.Size(),
		"labels", len(c.labels),
		"max_seq_len", c.maxSeqLen)
	return c, nil
}

func newClassifierWithEngine(engine Engine, vocab *Vocabulary, o options) *Classifier {
	labels := o.labels
	if len(labels) == 0 {
		labels = DefaultEmotionLabels
	}
	return &Classifier{
		engine:    engine,
		tokenizer: NewWordPieceTokenizer(vocab),
		labels:    labels,
		maxSeqLen: o.maxSeqLen,
		log:       o.log,
	}
}

// Classify runs the model on one sentence and returns scored labels.
func (c *Classifier) Classify(ctx context.Context, sentence string) (*ClassifyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classifyLocked(ctx, sentence)
}

func (c *Classifier) classifyLocked(ctx context.Context, sentence string) (*ClassifyResult, error) {
	if c.closed {
		return nil, newError(ErrNotInitialized, "classify", nil)
	}
	if strings.TrimSpace(sentence) == "" {
		return nil, newError(ErrEmptyInput, "classify", nil)
	}

	enc := c.tokenizer.Encode(sentence, c.maxSeqLen)
	logits, err := c.engine.Forward(ctx, enc.IDs, enc.Mask, enc.TypeIDs)
	if err != nil {
		return nil, err
	}

	row, err := classificationRow(logits)
	if err != nil {
		return nil, err
	}
	probs := softmax(row)

	// Width mismatch between model output and label set is recoverable: map
	// the overlapping prefix and drop the excess.
	width := len(probs)
	if len(c.labels) < width {
		width = len(c.labels)
	}
	if len(probs) != len(c.labels) {
		c.log.Warn("label count mismatch",
			"labels", len(c.labels),
			"model_outputs", len(probs))
	}

	allScores := make([]LabelScore, width)
	for i := 0; i < width; i++ {
		allScores[i] = LabelScore{Label: c.labels[i], Score: probs[i]}
	}

	best := argmax(probs[:width])
	return &ClassifyResult{
		Label:     allScores[best].Label,
		Score:     allScores[best].Score,
		AllScores: allScores,
	}, nil
}

// AnalyzeSentences segments text and classifies each sentence independently,
// preserving order. A sentence whose classification fails is skipped and
// logged; precondition failures and cancellation abort the whole call.
func (c *Classifier) AnalyzeSentences(ctx context.Context, text string) ([]SentenceAnnotation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, newError(ErrNotInitialized, "analyze sentences", nil)
	}
	if strings.TrimSpace(text) == "" {
		return nil, newError(ErrEmptyInput, "analyze sentences", nil)
	}

	sentences := SplitSentences(text)
	annotations := make([]SentenceAnnotation, 0, len(sentences))
	for i, s := range sentences {
		res, err := c.classifyLocked(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return annotations, err
			}
			c.log.Warn("sentence classification failed", "index", i, "error", err)
			continue
		}
		annotations = append(annotations, SentenceAnnotation{Sentence: s, Result: *res})
	}
	return annotations, nil
}

// NumLabels returns the size of the configured label set.
func (c *Classifier) NumLabels() int {
	return len(c.labels)
}

// Close releases the model session. Safe to call multiple times.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.engine.Close()
}

// classificationRow validates a [1, numClasses] logits tensor and returns
// its single row.
func classificationRow(logits *Logits) ([]float32, error) {
	if logits == nil || len(logits.Data) == 0 {
		return nil, newError(ErrInference, "classify", errors.New("empty logits"))
	}
	if len(logits.Shape) != 2 || logits.Shape[0] != 1 {
		return nil, newError(ErrInference, "classify",
			errors.Errorf("unexpected logits shape %v", logits.Shape))
	}
	return logits.Data, nil
}

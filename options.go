package dagbok

import "log/slog"

// Defaults for session options.
const (
	defaultMaxSequenceLength = 128
	defaultMaxNewTokens      = 40
)

type options struct {
	maxSeqLen    int
	maxNewTokens int
	labels       []string
	log          *slog.Logger
	libraryPath  string
	intraThreads int
	interThreads int
}

type Option func(*options)

// WithMaxSequenceLength sets the fixed encoder sequence length for
// classification inputs.
func WithMaxSequenceLength(n int) Option {
	return func(o *options) {
		if n > 2 {
			o.maxSeqLen = n
		}
	}
}

// WithMaxNewTokens bounds how many tokens one generate call may produce.
func WithMaxNewTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxNewTokens = n
		}
	}
}

// WithLabels overrides the classifier's emotion label set.
func WithLabels(labels []string) Option {
	return func(o *options) {
		if len(labels) > 0 {
			o.labels = labels
		}
	}
}

// WithLogger sets the structured logger for the session.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithRuntimeLibrary sets an explicit path to the onnxruntime shared library.
func WithRuntimeLibrary(path string) Option {
	return func(o *options) {
		o.libraryPath = path
	}
}

// WithThreads sets the intra-op and inter-op thread counts for the
// execution session. Zero keeps the runtime default.
func WithThreads(intra, inter int) Option {
	return func(o *options) {
		o.intraThreads = intra
		o.interThreads = inter
	}
}

func applyOptions(opts []Option) options {
	o := options{
		maxSeqLen:    defaultMaxSequenceLength,
		maxNewTokens: defaultMaxNewTokens,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

package dagbok

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config describes a full pipeline: both model sessions and the runtime
// settings they share.
type Config struct {
	Classifier ClassifierConfig `yaml:"classifier"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Runtime    RuntimeConfig    `yaml:"runtime"`
}

// ClassifierConfig locates the classification model and its artifacts.
type ClassifierConfig struct {
	Model     string   `yaml:"model"`
	Vocab     string   `yaml:"vocab"`
	Labels    []string `yaml:"labels"`
	MaxLength int      `yaml:"max_length"`
}

// GeneratorConfig locates the generative model and its artifacts.
type GeneratorConfig struct {
	Model        string `yaml:"model"`
	Vocab        string `yaml:"vocab"`
	Merges       string `yaml:"merges"`
	MaxNewTokens int    `yaml:"max_new_tokens"`
}

// RuntimeConfig holds ONNX Runtime settings shared by both sessions.
type RuntimeConfig struct {
	LibraryPath  string `yaml:"library_path"`
	IntraThreads int    `yaml:"intra_threads"`
	InterThreads int    `yaml:"inter_threads"`
}

// LoadConfig reads and validates a pipeline config YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if cfg.Classifier.Model == "" || cfg.Classifier.Vocab == "" {
		return nil, errors.New("config: classifier model and vocab are required")
	}
	if cfg.Generator.Model == "" || cfg.Generator.Vocab == "" {
		return nil, errors.New("config: generator model and vocab are required")
	}
	return &cfg, nil
}

// Pipeline bundles the two sessions behind the journaling app's API surface.
// The caller owns the lifecycle: construct, use, Close.
type Pipeline struct {
	classifier *Classifier
	generator  *Generator
}

// LoadPipeline builds a Pipeline from a config file. Extra options apply to
// both sessions after the config-derived ones.
func LoadPipeline(configPath string, opts ...Option) (*Pipeline, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, newError(ErrInit, "load pipeline", err)
	}
	return NewPipeline(cfg, opts...)
}

// NewPipeline builds a Pipeline from an already-loaded config.
func NewPipeline(cfg *Config, opts ...Option) (*Pipeline, error) {
	shared := []Option{
		WithRuntimeLibrary(cfg.Runtime.LibraryPath),
		WithThreads(cfg.Runtime.IntraThreads, cfg.Runtime.InterThreads),
	}

	clsOpts := append([]Option{}, shared...)
	if len(cfg.Classifier.Labels) > 0 {
		clsOpts = append(clsOpts, WithLabels(cfg.Classifier.Labels))
	}
	if cfg.Classifier.MaxLength > 0 {
		clsOpts = append(clsOpts, WithMaxSequenceLength(cfg.Classifier.MaxLength))
	}
	clsOpts = append(clsOpts, opts...)

	clsModel, err := os.ReadFile(cfg.Classifier.Model)
	if err != nil {
		return nil, newError(ErrInit, "load classifier model", err)
	}
	classifier, err := NewClassifier(clsModel, cfg.Classifier.Vocab, clsOpts...)
	if err != nil {
		return nil, err
	}

	genOpts := append([]Option{}, shared...)
	if cfg.Generator.MaxNewTokens > 0 {
		genOpts = append(genOpts, WithMaxNewTokens(cfg.Generator.MaxNewTokens))
	}
	genOpts = append(genOpts, opts...)

	genModel, err := os.ReadFile(cfg.Generator.Model)
	if err != nil {
		classifier.Close()
		return nil, newError(ErrInit, "load generator model", err)
	}
	generator, err := NewGenerator(genModel, cfg.Generator.Vocab, cfg.Generator.Merges, genOpts...)
	if err != nil {
		classifier.Close()
		return nil, err
	}

	return &Pipeline{classifier: classifier, generator: generator}, nil
}

// Classify classifies one sentence.
func (p *Pipeline) Classify(ctx context.Context, sentence string) (*ClassifyResult, error) {
	return p.classifier.Classify(ctx, sentence)
}

// AnalyzeSentences classifies each sentence of a note in order.
func (p *Pipeline) AnalyzeSentences(ctx context.Context, text string) ([]SentenceAnnotation, error) {
	return p.classifier.AnalyzeSentences(ctx, text)
}

// GenerateTitle produces a short title for a note.
func (p *Pipeline) GenerateTitle(ctx context.Context, note string) (string, error) {
	return p.generator.GenerateTitle(ctx, note)
}

// GenerateQuestion produces one reflective question about a note.
func (p *Pipeline) GenerateQuestion(ctx context.Context, note string) (string, error) {
	return p.generator.GenerateQuestion(ctx, note)
}

// Close releases both sessions. Safe to call multiple times.
func (p *Pipeline) Close() error {
	err := p.classifier.Close()
	if gerr := p.generator.Close(); err == nil {
		err = gerr
	}
	return err
}

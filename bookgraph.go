// Package bookgraph infers a social and geographic relationship graph from
// narrative text. Tagged entity mentions are normalized into canonical
// entities, typed relations are inferred between them from lexical proximity
// to fixed keyword tables, every relation gains its mirror edge, and the
// result is aggregated into a queryable ontology with statistics.
package bookgraph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bookgraph/bookgraph/entity"
	"github.com/bookgraph/bookgraph/ontology"
	"github.com/bookgraph/bookgraph/parser"
	"github.com/bookgraph/bookgraph/relation"
	"github.com/bookgraph/bookgraph/store"
)

// Engine is the main entry point for the analysis pipeline.
type Engine interface {
	// Analyze runs the pipeline over text with pre-recognized mentions.
	Analyze(ctx context.Context, name, text string, mentions []entity.Mention) (*Result, error)

	// AnalyzeFile parses a book file, recognizes mentions, and runs the
	// pipeline.
	AnalyzeFile(ctx context.Context, path string) (*Result, error)

	// Analyses lists stored analyses, newest first.
	Analyses(ctx context.Context) ([]store.Analysis, error)

	// Delete removes a stored analysis and all associated data.
	Delete(ctx context.Context, analysisID int64) error

	// Store returns the underlying store, or nil when persistence is off.
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// Result is the outcome of one pipeline run.
type Result struct {
	AnalysisID      int64              `json:"analysis_id,omitempty"` // 0 when persistence is off
	Name            string             `json:"name"`
	Ontology        *ontology.Ontology `json:"ontology"`
	Stats           ontology.Stats     `json:"stats"`
	SkippedMentions int                `json:"skipped_mentions"`
	Elapsed         time.Duration      `json:"elapsed"`
}

// Option customizes engine construction.
type Option func(*engine)

// WithRecognizer replaces the built-in rule recognizer, typically with a
// client for an external NER model.
func WithRecognizer(r entity.Recognizer) Option {
	return func(e *engine) { e.recognizer = r }
}

// WithLemmatizer plugs in a morphological normalizer for location base
// forms and recognizer output.
func WithLemmatizer(l entity.Lemmatizer) Option {
	return func(e *engine) { e.lemma = l }
}

// WithKeywords substitutes the extractor's keyword tables.
func WithKeywords(kw relation.Keywords) Option {
	return func(e *engine) { e.keywords = kw }
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg        Config
	store      *store.Store
	recognizer entity.Recognizer
	lemma      entity.Lemmatizer
	keywords   relation.Keywords
	normalizer *entity.Normalizer
	extractor  *relation.Extractor
	parsers    *parser.Registry
}

// New creates a bookgraph engine with the given configuration.
func New(cfg Config, opts ...Option) (Engine, error) {
	e := &engine{
		cfg:      cfg,
		lemma:    entity.IdentityLemmatizer{},
		keywords: relation.DefaultKeywords(),
		parsers:  parser.NewRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.recognizer == nil {
		e.recognizer = entity.NewRuleRecognizer(e.lemma)
	}
	e.normalizer = entity.NewNormalizer(e.lemma)
	e.extractor = relation.NewExtractor(e.keywords, cfg.Workers)

	if cfg.Persist {
		s, err := store.New(cfg.resolveDBPath())
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		e.store = s
	}
	return e, nil
}

// Analyze runs normalization, extraction, synthesis, and aggregation over
// one text. The core stages are total over their input: empty mentions or a
// relation-free text yield a sparse ontology, never an error.
func (e *engine) Analyze(ctx context.Context, name, text string, mentions []entity.Mention) (*Result, error) {
	start := time.Now()

	valid, skipped := entity.ValidMentions(text, mentions)
	entities := e.normalizer.Normalize(valid)
	candidates := e.extractor.Extract(text, entities)
	relations := relation.Synthesize(candidates)
	onto := ontology.Build(entities, relations)
	stats := onto.Stats()

	res := &Result{
		Name:            name,
		Ontology:        onto,
		Stats:           stats,
		SkippedMentions: skipped,
		Elapsed:         time.Since(start),
	}

	if e.store != nil {
		id, err := e.store.SaveAnalysis(ctx, name, hashText(text), skipped, onto)
		if err != nil {
			return nil, fmt.Errorf("persisting analysis: %w", err)
		}
		res.AnalysisID = id
	}

	slog.Info("analysis complete",
		"name", name,
		"entities", stats.TotalEntities,
		"relations", stats.TotalRelations,
		"skipped_mentions", skipped,
		"elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// AnalyzeFile parses a book file with the format registry, recognizes
// mentions, and analyzes the text.
func (e *engine) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	text, format, err := e.parsers.ParseFile(ctx, path)
	if err != nil {
		var perr error = err
		if _, getErr := e.parsers.Get(format); getErr != nil {
			perr = fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
		}
		return nil, perr
	}
	if text == "" {
		return nil, ErrEmptyText
	}

	mentions, err := e.recognizer.Recognize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("recognizing entities: %w", err)
	}
	slog.Info("document parsed", "path", path, "format", format,
		"chars", len(text), "mentions", len(mentions))

	return e.Analyze(ctx, filepath.Base(path), text, mentions)
}

func (e *engine) Analyses(ctx context.Context) ([]store.Analysis, error) {
	if e.store == nil {
		return nil, ErrStoreDisabled
	}
	return e.store.ListAnalyses(ctx)
}

func (e *engine) Delete(ctx context.Context, analysisID int64) error {
	if e.store == nil {
		return ErrStoreDisabled
	}
	err := e.store.DeleteAnalysis(ctx, analysisID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: id %d", ErrAnalysisNotFound, analysisID)
	}
	return err
}

func (e *engine) Store() *store.Store { return e.store }

func (e *engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

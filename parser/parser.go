// Package parser turns book files into plain text for the analysis pipeline.
// Narrative sources arrive as .txt files in assorted Cyrillic encodings or as
// PDF; each format has a parser and the registry routes by file extension.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Parser reads one document format and returns its full plain text.
type Parser interface {
	Parse(ctx context.Context, path string) (string, error)
	SupportedFormats() []string
}

// Registry maps file extensions to parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a registry with the built-in parsers registered.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	for _, p := range []Parser{&TextParser{}, &PDFParser{}} {
		for _, f := range p.SupportedFormats() {
			r.parsers[f] = p
		}
	}
	return r
}

// Register adds or replaces the parser for a format.
func (r *Registry) Register(format string, p Parser) {
	r.parsers[strings.ToLower(format)] = p
}

// Get returns the parser for a format.
func (r *Registry) Get(format string) (Parser, error) {
	p, ok := r.parsers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("no parser for format: %s", format)
	}
	return p, nil
}

// ParseFile picks a parser by the path's extension and returns the text
// together with the resolved format.
func (r *Registry) ParseFile(ctx context.Context, path string) (text, format string, err error) {
	format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	p, err := r.Get(format)
	if err != nil {
		return "", format, err
	}
	text, err = p.Parse(ctx, path)
	if err != nil {
		return "", format, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return text, format, nil
}

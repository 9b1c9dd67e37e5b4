// Package store persists analysis results in SQLite: one row per pipeline
// run plus its canonical entities and relations.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bookgraph/bookgraph/entity"
	"github.com/bookgraph/bookgraph/ontology"
	"github.com/bookgraph/bookgraph/relation"
)

// ErrNotFound is returned when an analysis ID does not exist.
var ErrNotFound = errors.New("store: analysis not found")

// Analysis is a row in the analyses table.
type Analysis struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	TextHash        string `json:"text_hash"`
	TotalEntities   int    `json:"total_entities"`
	TotalRelations  int    `json:"total_relations"`
	SkippedMentions int    `json:"skipped_mentions"`
	CreatedAt       string `json:"created_at"`
}

// Entity is a row in the entities table.
type Entity struct {
	ID             int64       `json:"id"`
	AnalysisID     int64       `json:"analysis_id"`
	Name           string      `json:"name"`
	Kind           entity.Kind `json:"kind"`
	MentionCount   int         `json:"mention_count"`
	TotalRelations int         `json:"total_relations"`
}

// Relation is a row in the relations table.
type Relation struct {
	ID         int64         `json:"id"`
	AnalysisID int64         `json:"analysis_id"`
	Source     string        `json:"source"`
	Target     string        `json:"target"`
	Type       relation.Type `json:"type"`
	Confidence float64       `json:"confidence"`
	Context    string        `json:"context,omitempty"`
	IsReverse  bool          `json:"is_reverse"`
}

// Store wraps the SQLite database for all bookgraph persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and initialises
// the schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAnalysis stores one pipeline run: the analysis row plus every entity
// and relation of the ontology, in a single transaction.
func (s *Store) SaveAnalysis(ctx context.Context, name, textHash string, skippedMentions int, o *ontology.Ontology) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stats := o.Stats()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO analyses (name, text_hash, total_entities, total_relations, skipped_mentions)
		 VALUES (?, ?, ?, ?, ?)`,
		name, textHash, stats.TotalEntities, stats.TotalRelations, skippedMentions)
	if err != nil {
		return 0, fmt.Errorf("inserting analysis: %w", err)
	}
	analysisID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading analysis id: %w", err)
	}

	entStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entities (analysis_id, name, kind, mention_count, total_relations)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing entity insert: %w", err)
	}
	defer entStmt.Close()
	for _, entName := range o.EntityNames() {
		e := o.Entities[entName]
		if _, err := entStmt.ExecContext(ctx, analysisID, e.Name, string(e.Kind), e.MentionCount, e.TotalRelations); err != nil {
			return 0, fmt.Errorf("inserting entity %q: %w", e.Name, err)
		}
	}

	relStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO relations (analysis_id, source, target, relation_type, confidence, context, is_reverse)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing relation insert: %w", err)
	}
	defer relStmt.Close()
	for _, r := range o.Relations {
		if _, err := relStmt.ExecContext(ctx, analysisID, r.Source, r.Target, string(r.Type), r.Confidence, r.Context, r.IsReverse); err != nil {
			return 0, fmt.Errorf("inserting relation %s->%s: %w", r.Source, r.Target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing analysis: %w", err)
	}
	return analysisID, nil
}

// GetAnalysis returns one analysis row.
func (s *Store) GetAnalysis(ctx context.Context, id int64) (*Analysis, error) {
	var a Analysis
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, text_hash, total_entities, total_relations, skipped_mentions, created_at
		 FROM analyses WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.TextHash, &a.TotalEntities, &a.TotalRelations, &a.SkippedMentions, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying analysis: %w", err)
	}
	return &a, nil
}

// ListAnalyses returns all analyses, newest first.
func (s *Store) ListAnalyses(ctx context.Context) ([]Analysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, text_hash, total_entities, total_relations, skipped_mentions, created_at
		 FROM analyses ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.Name, &a.TextHash, &a.TotalEntities, &a.TotalRelations, &a.SkippedMentions, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAnalysis removes an analysis and all associated entities/relations.
func (s *Store) DeleteAnalysis(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Entities returns the stored entities of one analysis in insertion order.
func (s *Store) Entities(ctx context.Context, analysisID int64) ([]Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, analysis_id, name, kind, mention_count, total_relations
		 FROM entities WHERE analysis_id = ? ORDER BY id`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		var e Entity
		var kind string
		if err := rows.Scan(&e.ID, &e.AnalysisID, &e.Name, &kind, &e.MentionCount, &e.TotalRelations); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		e.Kind = entity.Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Relations returns the stored relations of one analysis in insertion order.
func (s *Store) Relations(ctx context.Context, analysisID int64) ([]Relation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, analysis_id, source, target, relation_type, confidence, COALESCE(context, ''), is_reverse
		 FROM relations WHERE analysis_id = ? ORDER BY id`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("querying relations: %w", err)
	}
	defer rows.Close()

	var out []Relation
	for rows.Next() {
		var r Relation
		var typ string
		if err := rows.Scan(&r.ID, &r.AnalysisID, &r.Source, &r.Target, &typ, &r.Confidence, &r.Context, &r.IsReverse); err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
		r.Type = relation.Type(typ)
		out = append(out, r)
	}
	return out, rows.Err()
}

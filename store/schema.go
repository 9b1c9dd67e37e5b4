package store

// schemaSQL is the DDL for all tables. An analysis is one pipeline run over
// one text; its entities and relations cascade on delete.
const schemaSQL = `
-- Analysis registry with hash-based change detection
CREATE TABLE IF NOT EXISTS analyses (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    text_hash TEXT NOT NULL,
    total_entities INTEGER NOT NULL DEFAULT 0,
    total_relations INTEGER NOT NULL DEFAULT 0,
    skipped_mentions INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Canonical entities of one analysis
CREATE TABLE IF NOT EXISTS entities (
    id INTEGER PRIMARY KEY,
    analysis_id INTEGER NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    kind TEXT NOT NULL,
    mention_count INTEGER NOT NULL DEFAULT 0,
    total_relations INTEGER NOT NULL DEFAULT 0,
    UNIQUE(analysis_id, name)
);

-- Directed typed relations of one analysis
CREATE TABLE IF NOT EXISTS relations (
    id INTEGER PRIMARY KEY,
    analysis_id INTEGER NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
    source TEXT NOT NULL,
    target TEXT NOT NULL,
    relation_type TEXT NOT NULL,
    confidence REAL NOT NULL,
    context TEXT,
    is_reverse INTEGER NOT NULL DEFAULT 0,
    UNIQUE(analysis_id, source, target, relation_type)
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_entities_analysis ON entities(analysis_id);
CREATE INDEX IF NOT EXISTS idx_relations_analysis ON relations(analysis_id);
CREATE INDEX IF NOT EXISTS idx_relations_source ON relations(analysis_id, source);
`

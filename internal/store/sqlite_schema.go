package store

const SchemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

const QuerySchema = `
CREATE TABLE IF NOT EXISTS queries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    query_id TEXT NOT NULL,
    start_ms INTEGER NOT NULL,
    finish_ms INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    queue TEXT NOT NULL,
    username TEXT NOT NULL,
    pending_ms INTEGER NOT NULL,
    metadata_ms INTEGER NOT NULL,
    planning_ms INTEGER NOT NULL,
    queued_ms INTEGER NOT NULL,
    running_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queries_outcome ON queries(outcome);
CREATE INDEX IF NOT EXISTS idx_queries_queue ON queries(queue);
`

const currentSchemaVersion = 1

package store

const schemaVersion = 1

// GetSchema returns the DDL for the compile-result index.
func GetSchema() string {
	return `
-- Compile results, one row per source path.
CREATE TABLE IF NOT EXISTS results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    content_hash TEXT NOT NULL,
    success INTEGER NOT NULL,
    error_count INTEGER NOT NULL DEFAULT 0,
    warning_count INTEGER NOT NULL DEFAULT 0,
    diagnostics TEXT NOT NULL DEFAULT '[]',
    compiled_at TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_results_hash ON results(content_hash);
CREATE INDEX IF NOT EXISTS idx_results_success ON results(success);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`
}

func GetSchemaVersion() int {
	return schemaVersion
}

package ledger

// migration holds a single sqlite schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// sqliteMigrations is the ordered list of sqlite schema migrations.
// Each migration's version must be sequential starting from 1.
var sqliteMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS received_documents (
	id          TEXT PRIMARY KEY,
	message_id  TEXT NOT NULL,
	sender      TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL,
	filename    TEXT NOT NULL,
	source_url  TEXT NOT NULL DEFAULT '',
	size_bytes  INTEGER NOT NULL DEFAULT 0,
	sha256      TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'new',
	received_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_received_documents_message_id
	ON received_documents(message_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_received_documents_status
	ON received_documents(status);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

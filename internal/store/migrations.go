package store

type migration struct {
	version int
	sql     string
}

// migrations must be sequential from 1. Each one records its own version.
// v2 adds the hidden calendar summary used by the weekly planner.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS emails (
	id           TEXT PRIMARY KEY,
	sender       TEXT NOT NULL,
	subject      TEXT NOT NULL DEFAULT '',
	body         TEXT NOT NULL DEFAULT '',
	received_at  DATETIME NOT NULL,
	is_read      INTEGER NOT NULL DEFAULT 0,
	category     TEXT NOT NULL DEFAULT '',
	action_items TEXT NOT NULL DEFAULT '',
	draft_reply  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS prompts (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_emails_received_at ON emails(received_at);
CREATE INDEX IF NOT EXISTS idx_emails_category ON emails(category);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE emails ADD COLUMN is_scheduled INTEGER NOT NULL DEFAULT 0;
ALTER TABLE emails ADD COLUMN calendar_summary TEXT NOT NULL DEFAULT '';

CREATE INDEX IF NOT EXISTS idx_emails_scheduled ON emails(is_scheduled);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

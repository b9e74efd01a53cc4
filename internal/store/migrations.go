package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
// Calendar dates are TEXT (YYYY-MM-DD) so the driver never turns them
// into time.Time values.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id    TEXT NOT NULL,
	text        TEXT NOT NULL CHECK(length(trim(text)) > 0),
	completed   INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	is_today    INTEGER NOT NULL DEFAULT 0 CHECK(is_today IN (0, 1)),
	today_date  TEXT,
	category    TEXT,
	due_date    TEXT,
	priority    TEXT CHECK(priority IS NULL OR priority IN ('low', 'medium', 'high')),
	parent_id   INTEGER REFERENCES tasks(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id);
CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);
CREATE INDEX IF NOT EXISTS idx_tasks_owner_position ON tasks(owner_id, position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS stats (
	owner_id           TEXT PRIMARY KEY,
	total_completed    INTEGER NOT NULL DEFAULT 0,
	streak             INTEGER NOT NULL DEFAULT 0,
	best_streak        INTEGER NOT NULL DEFAULT 0,
	last_complete_date TEXT,
	daily_counts       TEXT NOT NULL DEFAULT '{}',
	updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
	owner_id       TEXT PRIMARY KEY,
	theme          TEXT NOT NULL DEFAULT 'default',
	sound_enabled  INTEGER NOT NULL DEFAULT 1 CHECK(sound_enabled IN (0, 1)),
	show_completed INTEGER NOT NULL DEFAULT 1 CHECK(show_completed IN (0, 1)),
	categories     TEXT NOT NULL DEFAULT '[]',
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

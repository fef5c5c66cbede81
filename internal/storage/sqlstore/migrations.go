package sqlstore

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations. The SQL is portable between
// SQLite and Postgres; timestamps are declared TIMESTAMP so the sqlite3 driver scans
// them back into time.Time.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	email           TEXT NOT NULL UNIQUE,
	password_hash   TEXT,
	profile_picture TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS boards (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	owner_id   TEXT NOT NULL REFERENCES users(id),
	state      TEXT NOT NULL DEFAULT 'active' CHECK (state IN ('active', 'trashed')),
	trashed_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	CHECK ((state = 'active' AND trashed_at IS NULL) OR (state = 'trashed' AND trashed_at IS NOT NULL))
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	board_id    TEXT NOT NULL REFERENCES boards(id),
	owner_id    TEXT NOT NULL REFERENCES users(id),
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'To Do' CHECK (status IN ('To Do', 'In Progress', 'Done')),
	priority    TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
	due_date    TIMESTAMP,
	state       TEXT NOT NULL DEFAULT 'active' CHECK (state IN ('active', 'trashed')),
	trashed_at  TIMESTAMP,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL,
	CHECK ((state = 'active' AND trashed_at IS NULL) OR (state = 'trashed' AND trashed_at IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_boards_owner_state ON boards(owner_id, state, created_at);
CREATE INDEX IF NOT EXISTS idx_tasks_board ON tasks(board_id);
CREATE INDEX IF NOT EXISTS idx_tasks_owner_state ON tasks(owner_id, state, created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

package schema

// DDL creates the tables used by the submission history
const DDL = `
CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	variant      TEXT NOT NULL,
	started_at   TIMESTAMP NOT NULL,
	finished_at  TIMESTAMP NOT NULL,
	product_id   TEXT,
	step_reached INTEGER NOT NULL,
	image_count  INTEGER NOT NULL,
	status       TEXT NOT NULL,
	error        TEXT,
	orphaned     BOOLEAN NOT NULL
);

CREATE INDEX IF NOT EXISTS submissions_started_at_idx ON submissions (started_at);
CREATE INDEX IF NOT EXISTS submissions_orphaned_idx ON submissions (orphaned);
`

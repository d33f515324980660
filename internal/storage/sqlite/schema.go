package sqlite

// schema is applied on every open; all statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS tracked_issues (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	external_owner TEXT NOT NULL DEFAULT '',
	external_repo TEXT NOT NULL DEFAULT '',
	external_issue_number INTEGER,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tracked_external_number
	ON tracked_issues(external_issue_number)
	WHERE external_issue_number IS NOT NULL;

CREATE TABLE IF NOT EXISTS issue_sync_state (
	issue_id TEXT PRIMARY KEY REFERENCES tracked_issues(id),
	external_issue_number INTEGER NOT NULL,
	mirror_status TEXT NOT NULL,
	status_raw_snapshot TEXT,
	status_source TEXT,
	status_updated_at TIMESTAMP,
	last_sync_at TIMESTAMP NOT NULL,
	sync_error_code TEXT,
	sync_error_message TEXT
);

CREATE TABLE IF NOT EXISTS discovered_issues (
	repo TEXT NOT NULL,
	issue_number INTEGER NOT NULL,
	title TEXT NOT NULL,
	state TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP,
	first_seen_at TIMESTAMP NOT NULL,
	last_seen_at TIMESTAMP NOT NULL,
	PRIMARY KEY (repo, issue_number)
);

CREATE TABLE IF NOT EXISTS sync_runs (
	run_id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	status TEXT NOT NULL,
	total_count INTEGER NOT NULL DEFAULT 0,
	upserted_count INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at);
`

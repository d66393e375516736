// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	target TEXT NOT NULL,
	gap_policy TEXT NOT NULL,
	positions INTEGER NOT NULL,
	failures INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
	run_id TEXT NOT NULL,
	position_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	quantity REAL NOT NULL,
	status TEXT NOT NULL,
	error TEXT NOT NULL,
	total REAL NOT NULL,
	points INTEGER NOT NULL,
	PRIMARY KEY (run_id, position_id)
);

CREATE TABLE IF NOT EXISTS pnl (
	run_id TEXT NOT NULL,
	position_id TEXT NOT NULL,
	date TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run_id, position_id, date)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
`

// marketdata/schema.go
package marketdata

const Schema = `
CREATE TABLE IF NOT EXISTS factors (
	factor_id TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS observations (
	factor_id TEXT NOT NULL REFERENCES factors(factor_id),
	date TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (factor_id, date)
);

CREATE INDEX IF NOT EXISTS idx_observations_date ON observations(date);
`

// FXPrefix marks factor ids that hold FX pair histories, e.g. "FX:EUR_USD".
const FXPrefix = "FX:"

const dateLayout = "2006-01-02"

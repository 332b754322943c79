package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	record_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	qty INTEGER NOT NULL,
	price REAL NOT NULL,
	trail_percent REAL NOT NULL,
	time DATETIME NOT NULL,
	note TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_time ON trades(time);
`

package sqlite

const schema = `
-- Cached DNS records per domain
CREATE TABLE IF NOT EXISTS dns_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    domain TEXT NOT NULL UNIQUE,

    -- Address lists (JSON arrays of literals)
    ipv4 TEXT NOT NULL DEFAULT '[]',
    ipv6 TEXT NOT NULL DEFAULT '[]',

    -- Where the record came from: dns, web, static
    source TEXT NOT NULL DEFAULT 'dns',

    fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Latency measurement history
CREATE TABLE IF NOT EXISTS measurements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ip TEXT NOT NULL,
    hostname TEXT,
    latency_ms INTEGER,
    success BOOLEAN NOT NULL,
    error_message TEXT,
    strategy TEXT DEFAULT 'tcp',
    probed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_measurements_ip ON measurements(ip, probed_at DESC);

-- Application settings
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

func runMigrations(d *DB) error {
	_, err := d.db.Exec(schema)
	return err
}

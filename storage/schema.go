package storage

import (
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Timestamps are stored as fixed-width UTC text so lexicographic order
// is chronological on every backend.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS tracking_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		target_type TEXT NOT NULL,
		latitude REAL,
		longitude REAL,
		city TEXT,
		country TEXT,
		isp TEXT,
		timestamp TEXT NOT NULL,
		source TEXT,
		accuracy TEXT,
		notes TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS ip_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ip_address TEXT NOT NULL,
		city TEXT,
		country TEXT,
		latitude REAL,
		longitude REAL,
		timestamp TEXT NOT NULL,
		is_tracked BOOLEAN NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS tracking_history_timestamp ON tracking_history (timestamp)`,
}

var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS tracking_history (
		id BIGSERIAL PRIMARY KEY,
		target TEXT NOT NULL,
		target_type TEXT NOT NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		city TEXT,
		country TEXT,
		isp TEXT,
		timestamp TEXT NOT NULL,
		source TEXT,
		accuracy TEXT,
		notes TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS ip_history (
		id BIGSERIAL PRIMARY KEY,
		ip_address TEXT NOT NULL,
		city TEXT,
		country TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		timestamp TEXT NOT NULL,
		is_tracked BOOLEAN NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS tracking_history_timestamp ON tracking_history (timestamp)`,
}

const (
	queryInsertTracking = `INSERT INTO tracking_history
		(target, target_type, latitude, longitude, city, country, isp, timestamp, source, accuracy, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	queryInsertIP = `INSERT INTO ip_history
		(ip_address, city, country, latitude, longitude, timestamp, is_tracked)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	querySelectRecent = `SELECT id, target, target_type, latitude, longitude, city, country, isp, timestamp, source, accuracy, notes
		FROM tracking_history
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`
	queryCountIP       = `SELECT COUNT(*) FROM ip_history`
	queryClearTracking = `DELETE FROM tracking_history`
	queryClearIP       = `DELETE FROM ip_history`
)

// rebind converts ? placeholders into $N ones for PostgreSQL.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	builder := strings.Builder{}
	builder.Grow(len(query) + 8)

	counter := 0

	for _, r := range query {
		if r != '?' {
			builder.WriteRune(r)

			continue
		}

		counter++

		builder.WriteByte('$')
		builder.WriteString(strconv.Itoa(counter))
	}

	return builder.String()
}

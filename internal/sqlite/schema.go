// Package sqlite implements the SQLite storage engine for MemoNest.
package sqlite

// Schema DDL. Timestamps are TEXT in RFC 3339 form with nanoseconds, UTC.
const (
	createMemos = `CREATE TABLE IF NOT EXISTS memos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    create_date TEXT NOT NULL,
    update_date TEXT NOT NULL
);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createMemos,
}

// Memo statements.
const (
	insertMemo  = "INSERT INTO memos (title, create_date, update_date) VALUES (?, ?, ?)"
	updateMemo  = "UPDATE memos SET title = ?, update_date = ? WHERE id = ?"
	deleteMemo  = "DELETE FROM memos WHERE id = ?"
	selectMemo  = "SELECT id, title, create_date, update_date FROM memos WHERE id = ?"
	selectMemos = "SELECT id, title, create_date, update_date FROM memos ORDER BY id"
)

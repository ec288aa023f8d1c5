// Package dbtest はストアのテスト用に sqlite のインメモリDBを用意する。
// スキーマは sql/schema.sql の MySQL 定義を sqlite 向けに書き直したもの。
package dbtest

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE auth_accounts (
	id            TEXT PRIMARY KEY,
	display_name  TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	is_disabled   INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL
);

CREATE TABLE attendance_sessions (
	session_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id      TEXT NOT NULL,
	check_in_at  DATETIME NOT NULL,
	check_out_at DATETIME NULL,
	agenda       TEXT NULL,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE TABLE correction_requests (
	correction_id  TEXT PRIMARY KEY,
	session_id     INTEGER NOT NULL REFERENCES attendance_sessions(session_id),
	user_id        TEXT NOT NULL,
	work_date      TEXT NOT NULL,
	check_in_at    DATETIME NOT NULL,
	check_out_at   DATETIME NULL,
	corrects_check_in  INTEGER NOT NULL DEFAULT 0,
	corrects_check_out INTEGER NOT NULL DEFAULT 0,
	justification  TEXT NOT NULL,
	status         TEXT NOT NULL,
	reviewed_by    TEXT NULL,
	review_note    TEXT NULL,
	reviewed_at    DATETIME NULL,
	created_at     DATETIME NOT NULL
);

-- MySQL 側の pending_session_id + UNIQUE と同じ制約を部分インデックスで表す
CREATE UNIQUE INDEX uq_corrections_pending ON correction_requests (session_id) WHERE status = 'PENDING';
`

// Open はテスト毎に独立したDBを返す。Cleanup で閉じる。
func Open(t testing.TB) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// :memory: は接続ごとに別DBになるので1本に固定
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if _, err := conn.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return conn
}

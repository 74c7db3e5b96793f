package store

type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create notifications",
		SQL: `
			CREATE TABLE notifications (
				id              TEXT PRIMARY KEY,
				seq             INTEGER NOT NULL,
				account_id      TEXT NOT NULL,
				kind            TEXT NOT NULL,
				name            TEXT NOT NULL DEFAULT '',
				grp             TEXT NOT NULL DEFAULT '',
				message         TEXT NOT NULL DEFAULT '',
				reason          TEXT NOT NULL DEFAULT '',
				allow_reconnect INTEGER NOT NULL DEFAULT 0,
				created_at      TEXT NOT NULL
			);

			CREATE INDEX idx_notifications_account ON notifications (account_id, seq);
			CREATE INDEX idx_notifications_created ON notifications (created_at);
		`,
	},
	{
		Version: 2,
		Name:    "index notifications by kind",
		SQL: `
			CREATE INDEX idx_notifications_kind ON notifications (account_id, kind, seq);
		`,
	},
}

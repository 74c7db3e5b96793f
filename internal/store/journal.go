package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/imbridge/internal/domain"
)

// timeLayout is fixed-width so created_at compares correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Journal records every notification the host receives. Write failures are
// logged; a Notifier has no way to report them to the session.
type Journal struct {
	db  *DB
	now func() time.Time

	mu  sync.Mutex
	seq int64
}

// NewJournal creates a journal on db, continuing the sequence of any rows
// already present.
func NewJournal(db *DB) (*Journal, error) {
	j := &Journal{db: db, now: time.Now}
	if err := db.sql.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM notifications").Scan(&j.seq); err != nil {
		return nil, fmt.Errorf("reading journal sequence: %w", err)
	}
	return j, nil
}

var _ domain.Notifier = (*Journal)(nil)

// Record appends n, stamping it with the current time when unset.
func (j *Journal) Record(n domain.Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = j.now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.seq++

	_, err := j.db.sql.Exec(
		`INSERT INTO notifications (id, seq, account_id, kind, name, grp, message, reason, allow_reconnect, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), j.seq, n.AccountID, string(n.Kind), n.Name, n.Group,
		n.Message, n.Reason, n.AllowReconnect, n.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording %s notification: %w", n.Kind, err)
	}
	return nil
}

func (j *Journal) record(n domain.Notification) {
	if err := j.Record(n); err != nil {
		j.db.log.Error().Err(err).Str("account", n.AccountID).Msg("journal write failed")
	}
}

func (j *Journal) Error(ic *domain.ConnectionContext, reason string) {
	j.record(domain.Notification{Kind: domain.NotifyError, AccountID: ic.AccountID, Reason: reason})
}

func (j *Journal) Disconnected(ic *domain.ConnectionContext, allowReconnect bool) {
	j.record(domain.Notification{Kind: domain.NotifyDisconnected, AccountID: ic.AccountID, AllowReconnect: allowReconnect})
}

func (j *Journal) Connected(ic *domain.ConnectionContext) {
	j.record(domain.Notification{Kind: domain.NotifyConnected, AccountID: ic.AccountID})
}

func (j *Journal) BuddyAdded(ic *domain.ConnectionContext, name, group string) {
	j.record(domain.Notification{Kind: domain.NotifyBuddyAdded, AccountID: ic.AccountID, Name: name, Group: group})
}

func (j *Journal) BuddyRemoved(ic *domain.ConnectionContext, name, group string) {
	j.record(domain.Notification{Kind: domain.NotifyBuddyRemoved, AccountID: ic.AccountID, Name: name, Group: group})
}

func (j *Journal) MessageReceived(ic *domain.ConnectionContext, name, message string) {
	j.record(domain.Notification{Kind: domain.NotifyMessageReceived, AccountID: ic.AccountID, Name: name, Message: message})
}

// Recent returns up to limit notifications, newest first. An empty
// accountID matches every account.
func (j *Journal) Recent(accountID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.sql.Query(
		`SELECT account_id, kind, name, grp, message, reason, allow_reconnect, created_at
		 FROM notifications
		 WHERE ? = '' OR account_id = ?
		 ORDER BY seq DESC
		 LIMIT ?`, accountID, accountID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var (
			n       domain.Notification
			kind    string
			created string
		)
		if err := rows.Scan(&n.AccountID, &kind, &n.Name, &n.Group, &n.Message, &n.Reason, &n.AllowReconnect, &created); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		n.Kind = domain.NotificationKind(kind)
		n.Timestamp, _ = time.Parse(timeLayout, created)
		out = append(out, n)
	}
	return out, rows.Err()
}

// Count returns the number of journaled notifications for an account, or
// for all accounts when accountID is empty.
func (j *Journal) Count(accountID string) (int, error) {
	var n int
	err := j.db.sql.QueryRow(
		"SELECT COUNT(*) FROM notifications WHERE ? = '' OR account_id = ?", accountID, accountID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting journal: %w", err)
	}
	return n, nil
}

// Prune deletes notifications older than before and reports how many went.
func (j *Journal) Prune(before time.Time) (int64, error) {
	res, err := j.db.sql.Exec(
		"DELETE FROM notifications WHERE created_at < ?", before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	return res.RowsAffected()
}

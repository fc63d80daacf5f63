package blog

import (
	"database/sql"
	"fmt"
	"strings"
)

// ErrAlreadySubscribed is returned when an active email subscribes again.
var ErrAlreadySubscribed = fmt.Errorf("email is already subscribed")

// Subscribe adds an email to the mailing list. Subscribing an already active
// email returns ErrAlreadySubscribed; an inactive email is reactivated in
// place so no duplicate row is ever created.
func (s *Store) Subscribe(email string) (Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return Subscriber{}, fmt.Errorf("invalid email address")
	}

	var existing Subscriber
	err := s.db.QueryRow(`SELECT id, email, status, subscribed_at FROM subscribers WHERE email = ?`, email).
		Scan(&existing.ID, &existing.Email, &existing.Status, &existing.SubscribedAt)
	switch {
	case err == sql.ErrNoRows:
		res, err := s.db.Exec(`INSERT INTO subscribers (email, status, subscribed_at) VALUES (?, 'active', ?)`, email, nowStamp())
		// A concurrent subscribe of the same new email can win between the
		// lookup and the insert; the loser hits the unique constraint.
		if isUniqueViolation(err) {
			return Subscriber{}, ErrAlreadySubscribed
		}
		if err != nil {
			return Subscriber{}, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return Subscriber{}, err
		}
		return Subscriber{ID: id, Email: email, Status: "active", SubscribedAt: nowStamp()}, nil
	case err != nil:
		return Subscriber{}, err
	}

	if existing.Status == "active" {
		return Subscriber{}, ErrAlreadySubscribed
	}
	if _, err := s.db.Exec(`UPDATE subscribers SET status = 'active', subscribed_at = ? WHERE id = ?`, nowStamp(), existing.ID); err != nil {
		return Subscriber{}, err
	}
	existing.Status = "active"
	return existing, nil
}

// Unsubscribe marks an email inactive. The row is kept so a later resubscribe
// reactivates instead of duplicating.
func (s *Store) Unsubscribe(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := s.db.Exec(`UPDATE subscribers SET status = 'inactive' WHERE email = ?`, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListSubscribers returns all subscribers, newest first.
func (s *Store) ListSubscribers() ([]Subscriber, error) {
	rows, err := s.db.Query(`SELECT id, email, status, subscribed_at FROM subscribers ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []Subscriber
	for rows.Next() {
		var sub Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.Status, &sub.SubscribedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// DeleteSubscriber removes a subscriber row entirely.
func (s *Store) DeleteSubscriber(id int64) error {
	_, err := s.db.Exec(`DELETE FROM subscribers WHERE id = ?`, id)
	return err
}

// GetSetting retrieves a setting value by key. Returns empty string if not found.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

// SetSetting stores a setting value by key (upsert).
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// AllSettings returns every stored setting as a map.
func (s *Store) AllSettings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

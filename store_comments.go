package blog

import (
	"database/sql"
	"fmt"
)

// Comment moderation status filters for the admin listing.
const (
	CommentStatusPending  = "pending"
	CommentStatusApproved = "approved"
	CommentStatusSpam     = "spam"
)

const commentColumns = `c.id, c.post_slug, c.author_name, c.content, c.is_approved, c.is_spam, c.is_edited, c.created_at,
	(SELECT COUNT(*) FROM comment_likes cl WHERE cl.comment_id = c.id)`

func scanComment(row interface{ Scan(...any) error }) (Comment, error) {
	var c Comment
	var approved, spam, edited int
	err := row.Scan(&c.ID, &c.PostSlug, &c.AuthorName, &c.Content, &approved, &spam, &edited, &c.CreatedAt, &c.Likes)
	if err != nil {
		return Comment{}, err
	}
	c.Approved = approved == 1
	c.Spam = spam == 1
	c.Edited = edited == 1
	return c, nil
}

// CreateComment stores a new comment in the pending state. It is not visible
// publicly until an admin approves it.
func (s *Store) CreateComment(postSlug, authorName, content string) (Comment, error) {
	res, err := s.db.Exec(`INSERT INTO comments (post_slug, author_name, content, is_approved, is_spam, is_edited, created_at)
		VALUES (?, ?, ?, 0, 0, 0, ?)`, postSlug, authorName, content, nowStamp())
	if err != nil {
		return Comment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Comment{}, err
	}
	return s.GetComment(id)
}

// GetComment returns a single comment by id.
func (s *Store) GetComment(id int64) (Comment, error) {
	return scanComment(s.db.QueryRow(`SELECT `+commentColumns+` FROM comments c WHERE c.id = ?`, id))
}

// ListApprovedComments returns the public comment list for a post: approved
// comments only, oldest first.
func (s *Store) ListApprovedComments(postSlug string) ([]Comment, error) {
	rows, err := s.db.Query(`SELECT `+commentColumns+` FROM comments c
		WHERE c.post_slug = ? AND c.is_approved = 1 AND c.is_spam = 0
		ORDER BY c.created_at ASC`, postSlug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectComments(rows)
}

// ListComments returns comments for the admin, optionally filtered by
// moderation status ("pending", "approved", "spam", or "" for all).
func (s *Store) ListComments(status string) ([]Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments c`
	switch status {
	case CommentStatusPending:
		q += ` WHERE c.is_approved = 0 AND c.is_spam = 0`
	case CommentStatusApproved:
		q += ` WHERE c.is_approved = 1 AND c.is_spam = 0`
	case CommentStatusSpam:
		q += ` WHERE c.is_spam = 1`
	case "":
	default:
		return nil, fmt.Errorf("unknown comment status %q", status)
	}
	q += ` ORDER BY c.created_at DESC`
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectComments(rows)
}

func collectComments(rows *sql.Rows) ([]Comment, error) {
	var comments []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ApproveComment marks a comment approved and clears any spam flag.
func (s *Store) ApproveComment(id int64) error {
	return s.moderate(id, 1, 0)
}

// MarkCommentSpam flags a comment as spam, removing it from the public list.
func (s *Store) MarkCommentSpam(id int64) error {
	return s.moderate(id, 0, 1)
}

// UnmarkCommentSpam clears the spam flag, returning the comment to pending.
func (s *Store) UnmarkCommentSpam(id int64) error {
	return s.moderate(id, 0, 0)
}

func (s *Store) moderate(id int64, approved, spam int) error {
	res, err := s.db.Exec(`UPDATE comments SET is_approved = ?, is_spam = ? WHERE id = ?`, approved, spam, id)
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

// EditComment replaces a comment's content and sets the edited flag.
func (s *Store) EditComment(id int64, content string) (Comment, error) {
	res, err := s.db.Exec(`UPDATE comments SET content = ?, is_edited = 1 WHERE id = ?`, content, id)
	if err != nil {
		return Comment{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Comment{}, err
	}
	if n == 0 {
		return Comment{}, sql.ErrNoRows
	}
	return s.GetComment(id)
}

// DeleteComment removes a comment and its likes.
func (s *Store) DeleteComment(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM comment_likes WHERE comment_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM comments WHERE id = ?`, id)
	return err
}

// LikeComment records a like for (commentID, visitorID), ignoring duplicates.
func (s *Store) LikeComment(commentID int64, visitorID string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO comment_likes (comment_id, visitor_id, created_at) VALUES (?, ?, ?)`,
		commentID, visitorID, nowStamp())
	return err
}

// UnlikeComment removes a comment like by composite key.
func (s *Store) UnlikeComment(commentID int64, visitorID string) error {
	_, err := s.db.Exec(`DELETE FROM comment_likes WHERE comment_id = ? AND visitor_id = ?`, commentID, visitorID)
	return err
}

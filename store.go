package blog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database and provides CRUD operations for the blog
// content: posts, categories, comments, likes, subscribers, and settings.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// Pragmas ride in the DSN so the driver applies them to every pooled
	// connection. A one-off Exec would configure whichever single connection
	// it happened to run on and leave the rest of the pool with foreign keys
	// off and no busy timeout. WAL allows concurrent readers during writes;
	// synchronous=NORMAL is safe under WAL and skips an fsync per commit.
	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=cache_size(-8000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    excerpt TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    published INTEGER NOT NULL DEFAULT 0,
    published_at TEXT,
    is_pinned INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS post_categories (
    post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    category_id INTEGER NOT NULL REFERENCES categories(id),
    PRIMARY KEY (post_id, category_id)
);

CREATE TABLE IF NOT EXISTS comments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_slug TEXT NOT NULL,
    author_name TEXT NOT NULL,
    content TEXT NOT NULL,
    is_approved INTEGER NOT NULL DEFAULT 0,
    is_spam INTEGER NOT NULL DEFAULT 0,
    is_edited INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_post_slug ON comments(post_slug);

CREATE TABLE IF NOT EXISTS likes (
    post_slug TEXT NOT NULL,
    visitor_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (post_slug, visitor_id)
);

CREATE TABLE IF NOT EXISTS comment_likes (
    comment_id INTEGER NOT NULL,
    visitor_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (comment_id, visitor_id)
);

CREATE TABLE IF NOT EXISTS subscribers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL DEFAULT 'active',
    subscribed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS post_revisions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    content TEXT NOT NULL,
    edited_by TEXT NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    edited_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_revisions_post_id ON post_revisions(post_id);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`)
	return err
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx, letting
// store helpers run standalone or inside a caller's transaction.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

const postColumns = `p.id, p.slug, p.title, p.excerpt, p.content, p.published, p.published_at, p.is_pinned, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM likes l WHERE l.post_slug = p.slug)`

func (s *Store) scanPost(row interface{ Scan(...any) error }) (Post, error) {
	var p Post
	var published, pinned int
	var publishedAt sql.NullString
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Content, &published, &publishedAt, &pinned, &p.CreatedAt, &p.UpdatedAt, &p.Likes)
	if err != nil {
		return Post{}, err
	}
	p.Published = published == 1
	p.Pinned = pinned == 1
	p.PublishedAt = publishedAt.String
	return p, nil
}

// ListPosts returns published posts, pinned first, newest first. If
// categorySlug is non-empty, results are filtered to that category.
func (s *Store) ListPosts(categorySlug string) ([]Post, error) {
	var rows *sql.Rows
	var err error
	if categorySlug == "" {
		rows, err = s.db.Query(`SELECT ` + postColumns + ` FROM posts p WHERE p.published = 1 ORDER BY p.is_pinned DESC, p.published_at DESC`)
	} else {
		rows, err = s.db.Query(`SELECT `+postColumns+` FROM posts p
			JOIN post_categories pc ON pc.post_id = p.id
			JOIN categories c ON c.id = pc.category_id
			WHERE p.published = 1 AND c.slug = ?
			ORDER BY p.is_pinned DESC, p.published_at DESC`, categorySlug)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.collectPosts(rows)
}

// ListAllPosts returns every post (published and drafts) for the admin,
// newest first.
func (s *Store) ListAllPosts() ([]Post, error) {
	rows, err := s.db.Query(`SELECT ` + postColumns + ` FROM posts p ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.collectPosts(rows)
}

func (s *Store) collectPosts(rows *sql.Rows) ([]Post, error) {
	var posts []Post
	for rows.Next() {
		p, err := s.scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range posts {
		cats, err := s.postCategories(posts[i].ID)
		if err != nil {
			return nil, err
		}
		posts[i].Categories = cats
	}
	return posts, nil
}

// GetPost returns a single published post by slug.
func (s *Store) GetPost(slug string) (Post, error) {
	return s.getPost(slug, true)
}

// GetPostAny returns a post by slug regardless of published status (for admin).
func (s *Store) GetPostAny(slug string) (Post, error) {
	return s.getPost(slug, false)
}

func (s *Store) getPost(slug string, publishedOnly bool) (Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts p WHERE p.slug = ?`
	if publishedOnly {
		q += ` AND p.published = 1`
	}
	p, err := s.scanPost(s.db.QueryRow(q, slug))
	if err != nil {
		return Post{}, err
	}
	p.Categories, err = s.postCategories(p.ID)
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

// CreatePost inserts a new post. The slug is derived from the title and made
// unique with a numeric suffix on collision. Returns the stored post.
func (s *Store) CreatePost(p Post) (Post, error) {
	slug, err := s.uniqueSlug(Slugify(p.Title), 0)
	if err != nil {
		return Post{}, err
	}
	now := nowStamp()
	publishedAt := sql.NullString{}
	if p.Published {
		publishedAt = sql.NullString{String: now, Valid: true}
		if p.PublishedAt != "" {
			publishedAt.String = p.PublishedAt
		}
	}
	res, err := s.db.Exec(`INSERT INTO posts (slug, title, excerpt, content, published, published_at, is_pinned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		slug, p.Title, p.Excerpt, p.Content, boolInt(p.Published), publishedAt, now, now)
	if err != nil {
		return Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Post{}, err
	}
	if err := setPostCategories(s.db, id, p.Categories); err != nil {
		return Post{}, err
	}
	return s.GetPostAny(slug)
}

// UpdatePost overwrites a post. A revision snapshot of the previous content
// is stored first. If the title changed, the slug is regenerated (unique,
// suffixed on collision). Returns the stored post, which may carry a new slug.
// The snapshot, the overwrite, and the slug repoint of comments and likes
// commit as one transaction; a partial update can never strand engagement
// rows under a dead slug.
func (s *Store) UpdatePost(slug string, p Post, editedBy, note string) (Post, error) {
	existing, err := s.getPost(slug, false)
	if err != nil {
		return Post{}, err
	}

	newSlug := existing.Slug
	if p.Title != existing.Title {
		newSlug, err = s.uniqueSlug(Slugify(p.Title), existing.ID)
		if err != nil {
			return Post{}, err
		}
	}

	now := nowStamp()
	publishedAt := sql.NullString{String: existing.PublishedAt, Valid: existing.PublishedAt != ""}
	if p.Published && !existing.Published {
		publishedAt = sql.NullString{String: now, Valid: true}
	}
	if !p.Published {
		publishedAt = sql.NullString{}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Post{}, err
	}
	defer tx.Rollback()

	if err := saveRevision(tx, existing, editedBy, note); err != nil {
		return Post{}, fmt.Errorf("save revision: %w", err)
	}
	_, err = tx.Exec(`UPDATE posts SET slug = ?, title = ?, excerpt = ?, content = ?, published = ?, published_at = ?, updated_at = ? WHERE id = ?`,
		newSlug, p.Title, p.Excerpt, p.Content, boolInt(p.Published), publishedAt, now, existing.ID)
	if err != nil {
		return Post{}, err
	}
	if err := setPostCategories(tx, existing.ID, p.Categories); err != nil {
		return Post{}, err
	}
	// Keep engagement rows addressable under the new slug.
	if newSlug != slug {
		if _, err := tx.Exec(`UPDATE comments SET post_slug = ? WHERE post_slug = ?`, newSlug, slug); err != nil {
			return Post{}, err
		}
		if _, err := tx.Exec(`UPDATE OR IGNORE likes SET post_slug = ? WHERE post_slug = ?`, newSlug, slug); err != nil {
			return Post{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Post{}, err
	}
	return s.GetPostAny(newSlug)
}

// DeletePost removes a post and its revisions, category links, comments and
// likes. Child rows are deleted explicitly rather than via cascades, so the
// category post counts stay correct no matter how a connection is configured.
func (s *Store) DeletePost(slug string) error {
	p, err := s.getPost(slug, false)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range []string{
		`DELETE FROM comments WHERE post_slug = ?`,
		`DELETE FROM likes WHERE post_slug = ?`,
	} {
		if _, err := tx.Exec(q, slug); err != nil {
			return err
		}
	}
	for _, q := range []string{
		`DELETE FROM post_categories WHERE post_id = ?`,
		`DELETE FROM post_revisions WHERE post_id = ?`,
		`DELETE FROM posts WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, p.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PinPost marks a single post as pinned. Any previously pinned post is
// unpinned in the same transaction, so at most one pin exists at a time.
// With pinned=false the post is simply unpinned.
func (s *Store) PinPost(slug string, pinned bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if pinned {
		if _, err := tx.Exec(`UPDATE posts SET is_pinned = 0 WHERE is_pinned = 1`); err != nil {
			return err
		}
	}
	res, err := tx.Exec(`UPDATE posts SET is_pinned = ? WHERE slug = ?`, boolInt(pinned), slug)
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
	return tx.Commit()
}

func saveRevision(q dbtx, p Post, editedBy, note string) error {
	_, err := q.Exec(`INSERT INTO post_revisions (post_id, title, excerpt, content, edited_by, note, edited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Excerpt, p.Content, editedBy, note, nowStamp())
	return err
}

// ListRevisions returns the revision history of a post, newest first.
func (s *Store) ListRevisions(slug string) ([]PostRevision, error) {
	p, err := s.getPost(slug, false)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT id, post_id, title, excerpt, content, edited_by, note, edited_at
		FROM post_revisions WHERE post_id = ? ORDER BY id DESC`, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var revs []PostRevision
	for rows.Next() {
		var r PostRevision
		if err := rows.Scan(&r.ID, &r.PostID, &r.Title, &r.Excerpt, &r.Content, &r.EditedBy, &r.Note, &r.EditedAt); err != nil {
			return nil, err
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// uniqueSlug returns base if unused, otherwise base-2, base-3, ... The post
// with excludeID (0 for new posts) is ignored so a post keeps its own slug.
func (s *Store) uniqueSlug(base string, excludeID int64) (string, error) {
	if base == "" {
		base = "post"
	}
	candidate := base
	for n := 2; ; n++ {
		var id int64
		err := s.db.QueryRow(`SELECT id FROM posts WHERE slug = ?`, candidate).Scan(&id)
		if err == sql.ErrNoRows {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if id == excludeID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// Like records a like for (slug, visitorID). Repeated submissions from the
// same visitor are ignored, so the stored count never inflates.
func (s *Store) Like(slug, visitorID string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO likes (post_slug, visitor_id, created_at) VALUES (?, ?, ?)`,
		slug, visitorID, nowStamp())
	return err
}

// Unlike removes a like by composite key. No soft delete, no audit trail.
func (s *Store) Unlike(slug, visitorID string) error {
	_, err := s.db.Exec(`DELETE FROM likes WHERE post_slug = ? AND visitor_id = ?`, slug, visitorID)
	return err
}

// CountLikes returns the number of likes for a post and whether the given
// visitor is among them.
func (s *Store) CountLikes(slug, visitorID string) (int, bool, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM likes WHERE post_slug = ?`, slug).Scan(&count); err != nil {
		return 0, false, err
	}
	var liked int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM likes WHERE post_slug = ? AND visitor_id = ?`, slug, visitorID).Scan(&liked); err != nil {
		return 0, false, err
	}
	return count, liked > 0, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

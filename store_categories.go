package blog

import (
	"database/sql"
	"fmt"
)

// ErrCategoryInUse is returned when deleting a category that still has posts.
var ErrCategoryInUse = fmt.Errorf("category has associated posts and cannot be deleted")

// ListCategories returns all categories with their published post counts,
// ordered by name.
func (s *Store) ListCategories() ([]Category, error) {
	rows, err := s.db.Query(`SELECT c.id, c.slug, c.name, c.color,
		(SELECT COUNT(*) FROM post_categories pc WHERE pc.category_id = c.id)
		FROM categories c ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Color, &c.PostCount); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// GetCategory returns a category by slug.
func (s *Store) GetCategory(slug string) (Category, error) {
	var c Category
	err := s.db.QueryRow(`SELECT c.id, c.slug, c.name, c.color,
		(SELECT COUNT(*) FROM post_categories pc WHERE pc.category_id = c.id)
		FROM categories c WHERE c.slug = ?`, slug).
		Scan(&c.ID, &c.Slug, &c.Name, &c.Color, &c.PostCount)
	return c, err
}

// CreateCategory inserts a new category. The slug is derived from the name.
func (s *Store) CreateCategory(name, color string) (Category, error) {
	slug := Slugify(name)
	if slug == "" {
		return Category{}, fmt.Errorf("category name is required")
	}
	_, err := s.db.Exec(`INSERT INTO categories (slug, name, color) VALUES (?, ?, ?)`, slug, name, color)
	if isUniqueViolation(err) {
		return Category{}, fmt.Errorf("category %q already exists", slug)
	}
	if err != nil {
		return Category{}, err
	}
	return s.GetCategory(slug)
}

// UpdateCategory renames a category and/or changes its color. The slug stays
// stable so existing post links keep working.
func (s *Store) UpdateCategory(slug, name, color string) (Category, error) {
	res, err := s.db.Exec(`UPDATE categories SET name = ?, color = ? WHERE slug = ?`, name, color, slug)
	if err != nil {
		return Category{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Category{}, err
	}
	if n == 0 {
		return Category{}, sql.ErrNoRows
	}
	return s.GetCategory(slug)
}

// DeleteCategory removes a category. Deleting a category with one or more
// associated posts is rejected with ErrCategoryInUse.
func (s *Store) DeleteCategory(slug string) error {
	c, err := s.GetCategory(slug)
	if err != nil {
		return err
	}
	if c.PostCount > 0 {
		return ErrCategoryInUse
	}
	_, err = s.db.Exec(`DELETE FROM categories WHERE id = ?`, c.ID)
	return err
}

// postCategories returns the category slugs attached to a post.
func (s *Store) postCategories(postID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT c.slug FROM categories c
		JOIN post_categories pc ON pc.category_id = c.id
		WHERE pc.post_id = ? ORDER BY c.slug`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slugs = append(slugs, s)
	}
	return slugs, rows.Err()
}

// setPostCategories replaces a post's category links. Unknown category slugs
// are skipped rather than auto-created. Callers supply the transaction when
// the replace must commit atomically with other writes.
func setPostCategories(q dbtx, postID int64, slugs []string) error {
	if _, err := q.Exec(`DELETE FROM post_categories WHERE post_id = ?`, postID); err != nil {
		return err
	}
	for _, slug := range slugs {
		var catID int64
		err := q.QueryRow(`SELECT id FROM categories WHERE slug = ?`, slug).Scan(&catID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return err
		}
		if _, err := q.Exec(`INSERT OR IGNORE INTO post_categories (post_id, category_id) VALUES (?, ?)`, postID, catID); err != nil {
			return err
		}
	}
	return nil
}

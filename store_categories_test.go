package blog

import "testing"

func TestCreateCategory(t *testing.T) {
	s := setupTestStore(t)

	c, err := s.CreateCategory("Side Projects", "#38bdf8")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if c.Slug != "side-projects" {
		t.Errorf("slug = %q, want side-projects", c.Slug)
	}
	if c.Color != "#38bdf8" {
		t.Errorf("color = %q, want #38bdf8", c.Color)
	}

	if _, err := s.CreateCategory("Side Projects", ""); err == nil {
		t.Error("duplicate category should be rejected")
	}
	if _, err := s.CreateCategory("   ", ""); err == nil {
		t.Error("empty category name should be rejected")
	}
}

func TestDeleteCategoryGuard(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.CreateCategory("Go", ""); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if _, err := s.CreateCategory("Empty", ""); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if _, err := s.CreatePost(Post{Title: "Tagged", Categories: []string{"go"}, Published: true}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	// A category with posts cannot be deleted.
	if err := s.DeleteCategory("go"); err != ErrCategoryInUse {
		t.Errorf("DeleteCategory(go) = %v, want ErrCategoryInUse", err)
	}
	// An empty one can.
	if err := s.DeleteCategory("empty"); err != nil {
		t.Errorf("DeleteCategory(empty) failed: %v", err)
	}
	if err := s.DeleteCategory("missing"); err != ErrNotFound {
		t.Errorf("DeleteCategory(missing) = %v, want ErrNotFound", err)
	}
}

func TestPostCategoryFilter(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.CreateCategory("Go", ""); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if _, err := s.CreateCategory("Rust", ""); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if _, err := s.CreatePost(Post{Title: "Go Post", Categories: []string{"go"}, Published: true}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if _, err := s.CreatePost(Post{Title: "Both Post", Categories: []string{"go", "rust"}, Published: true}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if _, err := s.CreatePost(Post{Title: "Plain Post", Published: true}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	goPosts, err := s.ListPosts("go")
	if err != nil {
		t.Fatalf("ListPosts(go) failed: %v", err)
	}
	if len(goPosts) != 2 {
		t.Errorf("ListPosts(go) = %d posts, want 2", len(goPosts))
	}
	rustPosts, err := s.ListPosts("rust")
	if err != nil {
		t.Fatalf("ListPosts(rust) failed: %v", err)
	}
	if len(rustPosts) != 1 {
		t.Errorf("ListPosts(rust) = %d posts, want 1", len(rustPosts))
	}

	cats, err := s.ListCategories()
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	for _, c := range cats {
		want := map[string]int{"go": 2, "rust": 1}[c.Slug]
		if c.PostCount != want {
			t.Errorf("category %q post count = %d, want %d", c.Slug, c.PostCount, want)
		}
	}
}

func TestDeletePostFreesCategory(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.CreateCategory("Go", ""); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	p, err := s.CreatePost(Post{Title: "Tagged", Categories: []string{"go"}, Published: true})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	// An update leaves a revision row behind as well.
	if _, err := s.UpdatePost(p.Slug, Post{Title: "Tagged", Excerpt: "e2", Content: "c2", Categories: []string{"go"}, Published: true}, "admin", ""); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	if err := s.DeletePost(p.Slug); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}

	var links, revs int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM post_categories`).Scan(&links); err != nil {
		t.Fatalf("count post_categories: %v", err)
	}
	if links != 0 {
		t.Errorf("orphaned post_categories rows after delete: %d", links)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM post_revisions`).Scan(&revs); err != nil {
		t.Fatalf("count post_revisions: %v", err)
	}
	if revs != 0 {
		t.Errorf("orphaned post_revisions rows after delete: %d", revs)
	}

	// With no posts left the category is deletable again.
	if err := s.DeleteCategory("go"); err != nil {
		t.Errorf("DeleteCategory after post delete = %v, want nil", err)
	}
}

func TestUnknownCategorySlugsSkipped(t *testing.T) {
	s := setupTestStore(t)

	p, err := s.CreatePost(Post{Title: "Loose", Categories: []string{"does-not-exist"}, Published: true})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if len(p.Categories) != 0 {
		t.Errorf("unknown category slug should be skipped, got %v", p.Categories)
	}
}

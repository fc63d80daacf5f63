package blog

import "testing"

func TestNewCommentStartsPending(t *testing.T) {
	s := setupTestStore(t)
	p := mustCreatePost(t, s, "Commented", true)

	c, err := s.CreateComment(p.Slug, "Ana", "nice post")
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if c.Approved || c.Spam || c.Edited {
		t.Errorf("new comment flags = approved:%v spam:%v edited:%v, want all false", c.Approved, c.Spam, c.Edited)
	}

	public, err := s.ListApprovedComments(p.Slug)
	if err != nil {
		t.Fatalf("ListApprovedComments failed: %v", err)
	}
	if len(public) != 0 {
		t.Errorf("pending comment visible publicly: %d comments", len(public))
	}
}

func TestApproveCommentMakesItPublic(t *testing.T) {
	s := setupTestStore(t)
	p := mustCreatePost(t, s, "Commented", true)

	c, err := s.CreateComment(p.Slug, "Ana", "nice post")
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if err := s.ApproveComment(c.ID); err != nil {
		t.Fatalf("ApproveComment failed: %v", err)
	}

	public, err := s.ListApprovedComments(p.Slug)
	if err != nil {
		t.Fatalf("ListApprovedComments failed: %v", err)
	}
	if len(public) != 1 {
		t.Fatalf("approved comment not visible, got %d", len(public))
	}
	if !public[0].Approved {
		t.Error("comment should carry the approved flag")
	}
}

func TestSpamCommentHiddenUntilUnmarked(t *testing.T) {
	s := setupTestStore(t)
	p := mustCreatePost(t, s, "Commented", true)

	c, err := s.CreateComment(p.Slug, "Bot", "buy things")
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if err := s.ApproveComment(c.ID); err != nil {
		t.Fatalf("ApproveComment failed: %v", err)
	}
	if err := s.MarkCommentSpam(c.ID); err != nil {
		t.Fatalf("MarkCommentSpam failed: %v", err)
	}

	public, err := s.ListApprovedComments(p.Slug)
	if err != nil {
		t.Fatalf("ListApprovedComments failed: %v", err)
	}
	if len(public) != 0 {
		t.Errorf("spam comment visible publicly: %d", len(public))
	}

	// Unspam returns the comment to pending, never straight to approved.
	if err := s.UnmarkCommentSpam(c.ID); err != nil {
		t.Fatalf("UnmarkCommentSpam failed: %v", err)
	}
	got, err := s.GetComment(c.ID)
	if err != nil {
		t.Fatalf("GetComment failed: %v", err)
	}
	if got.Approved || got.Spam {
		t.Errorf("unspammed comment flags = approved:%v spam:%v, want pending", got.Approved, got.Spam)
	}
}

func TestListCommentsByStatus(t *testing.T) {
	s := setupTestStore(t)
	p := mustCreatePost(t, s, "Commented", true)

	pending, _ := s.CreateComment(p.Slug, "A", "one")
	approved, _ := s.CreateComment(p.Slug, "B", "two")
	spam, _ := s.CreateComment(p.Slug, "C", "three")
	if err := s.ApproveComment(approved.ID); err != nil {
		t.Fatalf("ApproveComment failed: %v", err)
	}
	if err := s.MarkCommentSpam(spam.ID); err != nil {
		t.Fatalf("MarkCommentSpam failed: %v", err)
	}

	tests := []struct {
		status string
		wantID int64
	}{
		{CommentStatusPending, pending.ID},
		{CommentStatusApproved, approved.ID},
		{CommentStatusSpam, spam.ID},
	}
	for _, tt := range tests {
		got, err := s.ListComments(tt.status)
		if err != nil {
			t.Fatalf("ListComments(%q) failed: %v", tt.status, err)
		}
		if len(got) != 1 || got[0].ID != tt.wantID {
			t.Errorf("ListComments(%q) = %v, want single comment %d", tt.status, got, tt.wantID)
		}
	}

	all, err := s.ListComments("")
	if err != nil {
		t.Fatalf("ListComments(all) failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListComments(all) = %d, want 3", len(all))
	}

	if _, err := s.ListComments("bogus"); err == nil {
		t.Error("ListComments should reject an unknown status")
	}
}

func TestEditCommentSetsEditedFlag(t *testing.T) {
	s := setupTestStore(t)
	p := mustCreatePost(t, s, "Commented", true)

	c, err := s.CreateComment(p.Slug, "Ana", "typo herr")
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	edited, err := s.EditComment(c.ID, "typo here")
	if err != nil {
		t.Fatalf("EditComment failed: %v", err)
	}
	if edited.Content != "typo here" {
		t.Errorf("content = %q, want updated text", edited.Content)
	}
	if !edited.Edited {
		t.Error("edited flag should be set")
	}
}

func TestCommentLikesDeduplicate(t *testing.T) {
	s := setupTestStore(t)
	p := mustCreatePost(t, s, "Commented", true)

	c, err := s.CreateComment(p.Slug, "Ana", "nice")
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.LikeComment(c.ID, "visitor-a"); err != nil {
			t.Fatalf("LikeComment failed: %v", err)
		}
	}
	got, err := s.GetComment(c.ID)
	if err != nil {
		t.Fatalf("GetComment failed: %v", err)
	}
	if got.Likes != 1 {
		t.Errorf("comment likes = %d, want 1", got.Likes)
	}

	if err := s.UnlikeComment(c.ID, "visitor-a"); err != nil {
		t.Fatalf("UnlikeComment failed: %v", err)
	}
	got, err = s.GetComment(c.ID)
	if err != nil {
		t.Fatalf("GetComment failed: %v", err)
	}
	if got.Likes != 0 {
		t.Errorf("comment likes after unlike = %d, want 0", got.Likes)
	}
}

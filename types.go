package blog

// Post is the core content type stored in SQLite and served by the API.
// Content holds raw markdown; handlers render it to HTML on read.
type Post struct {
	ID          int64    `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt"`
	Content     string   `json:"content"`
	ContentHTML string   `json:"content_html,omitempty"`
	Categories  []string `json:"categories"`
	Published   bool     `json:"published"`
	PublishedAt string   `json:"published_at,omitempty"`
	Pinned      bool     `json:"is_pinned"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	Likes       int      `json:"likes"`
}

// Category groups posts. Slug is unique; Color is a display hint stored verbatim.
type Category struct {
	ID        int64  `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	PostCount int    `json:"post_count"`
}

// Comment starts pending (neither approved nor spam) and moves out of pending
// only by explicit admin action.
type Comment struct {
	ID         int64  `json:"id"`
	PostSlug   string `json:"post_slug"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	Approved   bool   `json:"is_approved"`
	Spam       bool   `json:"is_spam"`
	Edited     bool   `json:"is_edited"`
	CreatedAt  string `json:"created_at"`
	Likes      int    `json:"likes"`
}

// Subscriber is a mailing list entry. Status is "active" or "inactive".
type Subscriber struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Status       string `json:"status"`
	SubscribedAt string `json:"subscribed_at"`
}

// PostRevision is an append-only snapshot of a post taken before an overwrite.
type PostRevision struct {
	ID       int64  `json:"id"`
	PostID   int64  `json:"post_id"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content"`
	EditedBy string `json:"edited_by"`
	Note     string `json:"note"`
	EditedAt string `json:"edited_at"`
}

package analytics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides database operations for analytics. Pageviews live in their
// own SQLite database so heavy analytics writes never contend with content.
type Store struct {
	db *sql.DB
}

// NewStore creates a new analytics store at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// DSN pragmas apply per pooled connection; a one-off Exec would leave
	// most of the pool without the busy timeout.
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS page_views (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_slug TEXT,
			page_type TEXT NOT NULL,
			visitor_id TEXT NOT NULL,
			referrer TEXT,
			utm_source TEXT,
			utm_medium TEXT,
			utm_campaign TEXT,
			country TEXT,
			city TEXT,
			timestamp DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_page_views_timestamp ON page_views(timestamp);
		CREATE INDEX IF NOT EXISTS idx_page_views_visitor ON page_views(visitor_id);
		CREATE INDEX IF NOT EXISTS idx_page_views_slug ON page_views(post_slug);
	`)
	return err
}

// RecordView appends a pageview event. One row per event; totals are computed
// on read.
func (s *Store) RecordView(v PageView) error {
	ts := v.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	slug := sql.NullString{String: v.PostSlug, Valid: v.PostSlug != ""}
	_, err := s.db.Exec(`INSERT INTO page_views
		(post_slug, page_type, visitor_id, referrer, utm_source, utm_medium, utm_campaign, country, city, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		slug, v.PageType, v.VisitorID, v.Referrer, v.UTMSource, v.UTMMedium, v.UTMCampaign, v.Country, v.City, ts.UTC())
	return err
}

// GetStats returns aggregated statistics for the given time period. The
// independent aggregation queries run concurrently.
func (s *Store) GetStats(from, to time.Time) (*Stats, error) {
	stats := &Stats{
		Period:     from.Format("2006-01-02") + " to " + to.Format("2006-01-02"),
		TopPages:   []PageStat{},
		Sources:    []DimensionStat{},
		Campaigns:  []DimensionStat{},
		Countries:  []DimensionStat{},
		Cities:     []DimensionStat{},
		DailyViews: []DailyView{},
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		var count int
		err := s.db.QueryRow(`SELECT COUNT(*) FROM page_views WHERE timestamp BETWEEN ? AND ?`, from, to).Scan(&count)
		if err != nil {
			setErr(fmt.Errorf("count views: %w", err))
			return
		}
		mu.Lock()
		stats.TotalViews = count
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var count int
		err := s.db.QueryRow(`SELECT COUNT(DISTINCT visitor_id) FROM page_views WHERE timestamp BETWEEN ? AND ?`, from, to).Scan(&count)
		if err != nil {
			setErr(fmt.Errorf("count unique visitors: %w", err))
			return
		}
		mu.Lock()
		stats.UniqueVisitors = count
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		pages, err := s.topPages(from, to, 10)
		if err != nil {
			setErr(fmt.Errorf("top pages: %w", err))
			return
		}
		mu.Lock()
		stats.TopPages = pages
		mu.Unlock()
	}()

	dimensions := []struct {
		column string
		dest   *[]DimensionStat
	}{
		{"referrer", &stats.Sources},
		{"utm_campaign", &stats.Campaigns},
		{"country", &stats.Countries},
		{"city", &stats.Cities},
	}
	for _, dim := range dimensions {
		wg.Add(1)
		go func(column string, dest *[]DimensionStat) {
			defer wg.Done()
			rows, err := s.dimensionStats(column, from, to, 10)
			if err != nil {
				setErr(fmt.Errorf("%s stats: %w", column, err))
				return
			}
			mu.Lock()
			*dest = rows
			mu.Unlock()
		}(dim.column, dim.dest)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		daily, err := s.dailyViews(from, to)
		if err != nil {
			setErr(fmt.Errorf("daily views: %w", err))
			return
		}
		mu.Lock()
		stats.DailyViews = daily
		mu.Unlock()
	}()

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return stats, nil
}

func (s *Store) topPages(from, to time.Time, limit int) ([]PageStat, error) {
	rows, err := s.db.Query(`SELECT COALESCE(post_slug, ''), page_type, COUNT(*) AS views
		FROM page_views WHERE timestamp BETWEEN ? AND ?
		GROUP BY post_slug, page_type ORDER BY views DESC LIMIT ?`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	pages := []PageStat{}
	for rows.Next() {
		var p PageStat
		if err := rows.Scan(&p.Slug, &p.PageType, &p.Views); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// dimensionStats groups views by a single column. The column name comes from
// a fixed internal list, never from user input.
func (s *Store) dimensionStats(column string, from, to time.Time, limit int) ([]DimensionStat, error) {
	q := fmt.Sprintf(`SELECT %s AS name, COUNT(*) AS count FROM page_views
		WHERE timestamp BETWEEN ? AND ? AND %s IS NOT NULL AND %s != ''
		GROUP BY %s ORDER BY count DESC LIMIT ?`, column, column, column, column)
	rows, err := s.db.Query(q, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Store) dailyViews(from, to time.Time) ([]DailyView, error) {
	rows, err := s.db.Query(`SELECT strftime('%Y-%m-%d', timestamp) AS date, COUNT(*) AS views
		FROM page_views WHERE timestamp BETWEEN ? AND ?
		GROUP BY date ORDER BY date ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []DailyView{}
	for rows.Next() {
		var d DailyView
		if err := rows.Scan(&d.Date, &d.Views); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// PostViewCounts returns total views per post slug, most viewed first.
func (s *Store) PostViewCounts() ([]PageStat, error) {
	rows, err := s.db.Query(`SELECT post_slug, COUNT(*) AS views FROM page_views
		WHERE post_slug IS NOT NULL AND post_slug != '' AND page_type = ?
		GROUP BY post_slug ORDER BY views DESC`, PageTypePost)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	pages := []PageStat{}
	for rows.Next() {
		var p PageStat
		if err := rows.Scan(&p.Slug, &p.Views); err != nil {
			return nil, err
		}
		p.PageType = PageTypePost
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// CountViews returns the number of recorded views for one post.
func (s *Store) CountViews(postSlug string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM page_views WHERE post_slug = ? AND page_type = ?`, postSlug, PageTypePost).Scan(&count)
	return count, err
}

// CountOnline returns the number of distinct visitors seen within the
// trailing 5-minute window.
func (s *Store) CountOnline() (int, error) {
	cutoff := time.Now().UTC().Add(-5 * time.Minute)
	var count int
	err := s.db.QueryRow(`SELECT COUNT(DISTINCT visitor_id) FROM page_views WHERE timestamp > ?`, cutoff).Scan(&count)
	return count, err
}

// CleanupOldViews removes pageviews older than the retention period.
func (s *Store) CleanupOldViews(retentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	if _, err := s.db.Exec(`DELETE FROM page_views WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup page_views: %w", err)
	}
	return nil
}

// StartCleanupScheduler runs periodic cleanup of old data. Returns a stop function.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.CleanupOldViews(retentionDays); err != nil {
					fmt.Printf("cleanup error: %v\n", err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

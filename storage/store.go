// Package storage persists finished ads and user language preferences
// in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sardorm/telegram-elon-bot/flow"
)

// StoredPost is one persisted ad.
type StoredPost struct {
	ID               int64
	UserID           int64
	UserLang         string
	Category         flow.Category
	Price            string
	Location         string
	Description      *string
	Media            []flow.MediaItem
	CategoryData     map[string]string
	Status           flow.PostStatus
	ChannelMessageID int
	CreatedAt        time.Time
}

// SQLiteStore implements flow.Store on a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	postsQuery := `
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		user_lang TEXT NOT NULL,
		category TEXT NOT NULL,
		price TEXT NOT NULL,
		location TEXT NOT NULL,
		description TEXT,
		media_files TEXT NOT NULL,
		category_specific_data TEXT NOT NULL,
		status TEXT NOT NULL,
		channel_message_id INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(postsQuery); err != nil {
		return fmt.Errorf("failed to create posts table: %w", err)
	}

	usersQuery := `
	CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY,
		lang_code TEXT NOT NULL,
		first_name TEXT,
		username TEXT,
		last_seen DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(usersQuery); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	return nil
}

// GetUserLanguage returns the stored language preference, or "" when the
// user is unknown.
func (s *SQLiteStore) GetUserLanguage(userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lang string
	err := s.db.QueryRow("SELECT lang_code FROM users WHERE user_id = ?", userID).Scan(&lang)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query user language: %w", err)
	}
	return lang, nil
}

// SetUserLanguage stores or updates the user's language preference.
func (s *SQLiteStore) SetUserLanguage(userID int64, lang, firstName, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO users (user_id, lang_code, first_name, username, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			lang_code = excluded.lang_code,
			first_name = excluded.first_name,
			username = excluded.username,
			last_seen = excluded.last_seen
	`, userID, lang, firstName, username, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// SaveDraft writes the session's ad with status pending and returns the
// new post id.
func (s *SQLiteStore) SaveDraft(sess *flow.Session) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	media := sess.Media
	if media == nil {
		media = []flow.MediaItem{}
	}
	mediaJSON, err := json.Marshal(media)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal media: %w", err)
	}
	categoryJSON, err := json.Marshal(sess.CategoryData())
	if err != nil {
		return 0, fmt.Errorf("failed to marshal category data: %w", err)
	}

	var description sql.NullString
	if sess.Description.Filled {
		description = sql.NullString{String: sess.Description.Text, Valid: true}
	}

	res, err := s.db.Exec(`
		INSERT INTO posts (user_id, user_lang, category, price, location, description,
			media_files, category_specific_data, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.UserID, sess.Lang, string(sess.Category), sess.Price.Text, sess.Location.Text,
		description, string(mediaJSON), string(categoryJSON), string(flow.StatusPending))
	if err != nil {
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get post id: %w", err)
	}
	return id, nil
}

// UpdateStatus sets the post's publish status, recording the feed
// message id when there is one.
func (s *SQLiteStore) UpdateStatus(postID int64, status flow.PostStatus, channelMessageID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if channelMessageID != 0 {
		_, err = s.db.Exec("UPDATE posts SET status = ?, channel_message_id = ? WHERE id = ?",
			string(status), channelMessageID, postID)
	} else {
		_, err = s.db.Exec("UPDATE posts SET status = ? WHERE id = ?", string(status), postID)
	}
	if err != nil {
		return fmt.Errorf("failed to update post status: %w", err)
	}
	return nil
}

// GetPost retrieves one persisted ad. Returns nil, nil when it does not
// exist.
func (s *SQLiteStore) GetPost(postID int64) (*StoredPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		p           StoredPost
		description sql.NullString
		channelMsg  sql.NullInt64
		mediaJSON   string
		catJSON     string
		category    string
		status      string
	)
	err := s.db.QueryRow(`
		SELECT id, user_id, user_lang, category, price, location, description,
			media_files, category_specific_data, status, channel_message_id, created_at
		FROM posts WHERE id = ?
	`, postID).Scan(&p.ID, &p.UserID, &p.UserLang, &category, &p.Price, &p.Location,
		&description, &mediaJSON, &catJSON, &status, &channelMsg, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post: %w", err)
	}

	p.Category = flow.Category(category)
	p.Status = flow.PostStatus(status)
	if description.Valid {
		p.Description = &description.String
	}
	if channelMsg.Valid {
		p.ChannelMessageID = int(channelMsg.Int64)
	}
	if err := json.Unmarshal([]byte(mediaJSON), &p.Media); err != nil {
		return nil, fmt.Errorf("failed to unmarshal media: %w", err)
	}
	if err := json.Unmarshal([]byte(catJSON), &p.CategoryData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category data: %w", err)
	}
	return &p, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

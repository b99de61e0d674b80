package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sardorm/telegram-elon-bot/flow"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sessionFixture() *flow.Session {
	s := flow.NewSession(42, flow.ChatTarget{ID: 42}, "Alice", "alice", "en")
	s.Category = flow.CategoryCars
	s.Fields = flow.NewCategoryFields(flow.CategoryCars)
	s.Fields.Set(flow.FieldCarMakeModel, flow.TextValue("Toyota Camry"))
	s.Fields.Set(flow.FieldCarYear, flow.SkippedValue())
	s.Price = flow.TextValue("15000")
	s.Location = flow.TextValue("Samarkand")
	s.Description = flow.TextValue("Clean")
	s.Media = []flow.MediaItem{{Type: flow.MediaPhoto, FileID: "p1"}}
	return s
}

func TestUserLanguageRoundTrip(t *testing.T) {
	store := newTestStore(t)

	lang, err := store.GetUserLanguage(42)
	require.NoError(t, err)
	assert.Empty(t, lang)

	require.NoError(t, store.SetUserLanguage(42, "ru", "Alice", "alice"))
	lang, err = store.GetUserLanguage(42)
	require.NoError(t, err)
	assert.Equal(t, "ru", lang)

	// Upsert replaces, it never duplicates.
	require.NoError(t, store.SetUserLanguage(42, "uz", "Alice", "alice"))
	lang, err = store.GetUserLanguage(42)
	require.NoError(t, err)
	assert.Equal(t, "uz", lang)
}

func TestSaveDraftAndGetPost(t *testing.T) {
	store := newTestStore(t)

	id, err := store.SaveDraft(sessionFixture())
	require.NoError(t, err)
	require.NotZero(t, id)

	post, err := store.GetPost(id)
	require.NoError(t, err)
	require.NotNil(t, post)

	assert.Equal(t, int64(42), post.UserID)
	assert.Equal(t, "en", post.UserLang)
	assert.Equal(t, flow.CategoryCars, post.Category)
	assert.Equal(t, "15000", post.Price)
	assert.Equal(t, "Samarkand", post.Location)
	require.NotNil(t, post.Description)
	assert.Equal(t, "Clean", *post.Description)
	assert.Equal(t, flow.StatusPending, post.Status)
	assert.Zero(t, post.ChannelMessageID)
	require.Len(t, post.Media, 1)
	assert.Equal(t, "p1", post.Media[0].FileID)

	// Skipped fields are absent from the stored category data.
	assert.Equal(t, map[string]string{"car_make_model": "Toyota Camry"}, post.CategoryData)
}

func TestSaveDraftSkippedDescriptionStoredAsNull(t *testing.T) {
	store := newTestStore(t)

	s := sessionFixture()
	s.Description = flow.SkippedValue()
	id, err := store.SaveDraft(s)
	require.NoError(t, err)

	post, err := store.GetPost(id)
	require.NoError(t, err)
	assert.Nil(t, post.Description)
}

func TestUpdateStatus(t *testing.T) {
	store := newTestStore(t)
	id, err := store.SaveDraft(sessionFixture())
	require.NoError(t, err)

	require.NoError(t, store.UpdateStatus(id, flow.StatusPublished, 777))
	post, err := store.GetPost(id)
	require.NoError(t, err)
	assert.Equal(t, flow.StatusPublished, post.Status)
	assert.Equal(t, 777, post.ChannelMessageID)
}

func TestUpdateStatusWithoutMessageID(t *testing.T) {
	store := newTestStore(t)
	id, err := store.SaveDraft(sessionFixture())
	require.NoError(t, err)

	require.NoError(t, store.UpdateStatus(id, flow.StatusFailedException, 0))
	post, err := store.GetPost(id)
	require.NoError(t, err)
	assert.Equal(t, flow.StatusFailedException, post.Status)
	assert.Zero(t, post.ChannelMessageID)
}

func TestGetPostMissing(t *testing.T) {
	store := newTestStore(t)
	post, err := store.GetPost(999)
	require.NoError(t, err)
	assert.Nil(t, post)
}

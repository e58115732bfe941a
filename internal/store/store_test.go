package store

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/issuedesk/backend/config"
	"github.com/pageza/issuedesk/backend/internal/database"
	"github.com/pageza/issuedesk/backend/internal/models"
	"github.com/pageza/issuedesk/backend/internal/testdb"
)

func fixtureIssues() []models.Issue {
	submitted := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	deadline := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return []models.Issue{
		{
			ID:          "issue-1",
			Title:       "Banner copy is outdated",
			Description: "The homepage banner still mentions last year's campaign.",
			Category:    models.CategoryContent,
			Priority:    models.PriorityHigh,
			Status:      models.StatusOpen,
			SubmittedBy: "Alice Johnson",
			SubmittedAt: submitted,
			UpdatedAt:   submitted.Add(2 * time.Hour),
			Tags:        []string{"homepage", "copy"},
			Attachments: []models.MediaFile{{
				ID: "m1", Name: "banner.png", URL: "https://x/banner.png",
				Type: "image/png", Size: 2048, UploadedAt: submitted,
			}},
			ContentDetails: &models.ContentDetails{
				ContentType: "banner", Platform: "web", TargetAudience: "everyone", Deadline: &deadline,
			},
		},
		{
			ID:          "issue-2",
			Title:       "Login fails on Safari",
			Category:    models.CategoryTechnical,
			Priority:    models.PriorityUrgent,
			Status:      models.StatusInProgress,
			SubmittedBy: "Bob Smith",
			SubmittedAt: submitted.Add(-24 * time.Hour),
			UpdatedAt:   submitted,
			Tags:        []string{},
			Attachments: []models.MediaFile{},
			TechnicalDetails: &models.TechnicalDetails{
				SystemType: "web", Browser: "Safari 17", ErrorMessage: "401",
			},
		},
	}
}

func fixtureMessages() models.MessageMap {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return models.MessageMap{
		"issue-1": {
			{ID: "c1", IssueID: "issue-1", Sender: "System", Message: "Issue created", Timestamp: ts, IsSystem: true},
			{ID: "c2", IssueID: "issue-1", Sender: "Support Team", Message: "Looking into it", Timestamp: ts.Add(time.Minute)},
		},
	}
}

func quietStore(kv KV) (*Store, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(kv, WithLogger(log.New(&buf, "", 0))), &buf
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	backends := map[string]KV{
		"memory": NewMemoryKV(),
		"file":   NewFileKV(t.TempDir()),
	}
	for name, kv := range backends {
		t.Run(name, func(t *testing.T) {
			s, logs := quietStore(kv)

			Save(ctx, s, IssuesCodec, fixtureIssues())
			Save(ctx, s, MessagesCodec, fixtureMessages())

			issues := Load(ctx, s, IssuesCodec, nil)
			assert.Equal(t, fixtureIssues(), issues)
			require.NotNil(t, issues[0].ContentDetails.Deadline)
			assert.True(t, issues[0].ContentDetails.Deadline.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))

			assert.Equal(t, fixtureMessages(), Load(ctx, s, MessagesCodec, nil))
			assert.Empty(t, logs.String())
		})
	}
}

func TestLoadUnknownKeyReturnsDefault(t *testing.T) {
	ctx := context.Background()
	s, _ := quietStore(NewMemoryKV())
	Save(ctx, s, IssuesCodec, fixtureIssues())

	def := []string{"fallback"}
	got := Load(ctx, s, NewCodec[[]string]("no-such-key"), def)
	assert.Equal(t, def, got)
}

func TestLoadParseFailureReturnsDefault(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, IssuesKey, []byte("{not json")))
	s, logs := quietStore(kv)

	got := Load(ctx, s, IssuesCodec, []models.Issue{})
	assert.Empty(t, got)
	assert.Contains(t, logs.String(), "[Store] Failed to parse issue-tracker-issues")
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}

func (failingKV) Set(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func TestFailingBackendIsSwallowed(t *testing.T) {
	ctx := context.Background()
	s, logs := quietStore(failingKV{})

	assert.NotPanics(t, func() { Save(ctx, s, IssuesCodec, fixtureIssues()) })
	assert.Contains(t, logs.String(), "quota exceeded")

	got := Load(ctx, s, MessagesCodec, models.MessageMap{})
	assert.Empty(t, got)
	assert.Contains(t, logs.String(), "backend down")
}

func TestFileKVMissingDirectory(t *testing.T) {
	kv := NewFileKV(filepath.Join(t.TempDir(), "nested", "data"))
	_, ok, err := kv.Get(context.Background(), IssuesKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(context.Background(), IssuesKey, []byte("[]")))
	data, ok, err := kv.Get(context.Background(), IssuesKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(data))
}

func TestSQLKV(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	kv, err := NewSQLKV(db)
	require.NoError(t, err)
	s, _ := quietStore(kv)
	defer s.Close()

	_, ok, err := kv.Get(ctx, IssuesKey)
	require.NoError(t, err)
	assert.False(t, ok)

	Save(ctx, s, IssuesCodec, fixtureIssues()[:1])
	Save(ctx, s, IssuesCodec, fixtureIssues())
	assert.Equal(t, fixtureIssues(), Load(ctx, s, IssuesCodec, nil))

	var count int64
	require.NoError(t, db.Model(&kvEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRedisKV(t *testing.T) {
	url := testdb.StartRedis(t)
	ctx := context.Background()

	s, err := Open(ctx, &config.ClientConfig{StoreDriver: config.StoreRedis, StoreDSN: url})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, models.MessageMap{}, Load(ctx, s, MessagesCodec, models.MessageMap{}))
	Save(ctx, s, MessagesCodec, fixtureMessages())
	assert.Equal(t, fixtureMessages(), Load(ctx, s, MessagesCodec, nil))
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, &config.ClientConfig{StoreDriver: config.StoreFile, DataDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &FileKV{}, s.kv)

	s, err = Open(ctx, &config.ClientConfig{StoreDriver: config.StoreSQLite, DataDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &SQLKV{}, s.kv)
	assert.FileExists(t, filepath.Join(dir, "issuedesk.db"))
	assert.NoError(t, s.Close())

	fresh := filepath.Join(dir, "fresh", "issuedesk")
	s, err = Open(ctx, &config.ClientConfig{StoreDriver: config.StoreSQLite, DataDir: fresh})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(fresh, "issuedesk.db"))
	assert.NoError(t, s.Close())

	_, err = Open(ctx, &config.ClientConfig{StoreDriver: "etcd"})
	assert.ErrorContains(t, err, `unknown store driver "etcd"`)
}

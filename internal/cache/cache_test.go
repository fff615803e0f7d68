package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/edlkit/pkg/edl"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	cache, err := NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return cache, mr
}

func TestNewCache(t *testing.T) {
	cache, _ := setupTestCache(t)
	assert.NoError(t, cache.Ping(context.Background()))
}

func TestNewCacheUnreachable(t *testing.T) {
	_, err := NewCache("127.0.0.1", 1, "", 0)
	assert.Error(t, err)
}

func TestParsedSessionOperations(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	parsed, err := edl.Parse("SESSION NAME:\tCached\n\nM A R K E R S  L I S T I N G\n" +
		"#\tLOCATION\tTIME REFERENCE\tUNITS\tNAME\tCOMMENTS\n" +
		"1\t01:00:10:05\t480000\tSamples\tVerse\t\n")
	require.NoError(t, err)

	opts := edl.DefaultOptions()

	miss, err := cache.GetParsed(ctx, "abc123", opts)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, cache.SetParsed(ctx, "abc123", opts, parsed, time.Minute))

	hit, err := cache.GetParsed(ctx, "abc123", opts)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "Cached", hit.Header.SessionName)
	require.Len(t, hit.Markers, 1)
	assert.True(t, hit.Markers[0].Location.Equal(parsed.Markers[0].Location))

	// a different policy is a different result
	other, err := cache.GetParsed(ctx, "abc123", edl.Options{
		OnUnknownSection:    edl.UnknownSectionWarn,
		OnSectionParseError: edl.AbortSession,
	})
	require.NoError(t, err)
	assert.Nil(t, other)

	mr.FastForward(2 * time.Minute)
	expired, err := cache.GetParsed(ctx, "abc123", opts)
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestSessionRecordOperations(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	record := &models.Session{
		ID:          "sess-1",
		Filename:    "Reel 3.txt",
		Status:      models.SessionStatusParsed,
		SessionName: "Reel 3",
		MarkerCount: 4,
		Document:    models.Document{Session: &edl.Session{Header: edl.Header{SessionName: "Reel 3"}}},
	}

	require.NoError(t, cache.SetSession(ctx, record, time.Minute))

	got, err := cache.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Reel 3", got.SessionName)
	assert.Equal(t, 4, got.MarkerCount)
	require.NotNil(t, got.Document.Session)
	assert.Equal(t, "Reel 3", got.Document.Session.Header.SessionName)

	require.NoError(t, cache.DeleteSession(ctx, "sess-1"))
	got, err = cache.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLockOperations(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	ok, err := cache.AcquireLock(ctx, "ingest:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.AcquireLock(ctx, "ingest:abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.ReleaseLock(ctx, "ingest:abc"))

	ok, err = cache.AcquireLock(ctx, "ingest:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckRateLimit(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := cache.CheckRateLimit(ctx, "client", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := cache.CheckRateLimit(ctx, "client", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(time.Minute + time.Second)
	ok, err = cache.CheckRateLimit(ctx, "client", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeletePattern(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetWithJSON(ctx, "parsed:a:x:y", map[string]int{"a": 1}, 0))
	require.NoError(t, cache.SetWithJSON(ctx, "parsed:b:x:y", map[string]int{"b": 2}, 0))
	require.NoError(t, cache.SetWithJSON(ctx, "session:keep", map[string]int{"c": 3}, 0))

	require.NoError(t, cache.DeletePattern(ctx, "parsed:*"))

	assert.False(t, mr.Exists("parsed:a:x:y"))
	assert.False(t, mr.Exists("parsed:b:x:y"))
	assert.True(t, mr.Exists("session:keep"))
}

package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/logger"
)

const testServer = "http://stats.test"

var capturedAt = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// newTestClient returns a client whose transport is intercepted by gock.
func newTestClient(t *testing.T, token string) (*Client, *logger.BufferLogger) {
	t.Helper()
	httpClient := &http.Client{}
	gock.InterceptClient(httpClient)
	t.Cleanup(func() {
		gock.RestoreClient(httpClient)
		gock.Off()
	})

	log := logger.NewBufferLogger()
	return New(Config{
		BaseURL:    testServer + "/",
		Token:      token,
		HTTPClient: httpClient,
		Logger:     log,
		Now:        func() time.Time { return capturedAt },
	}), log
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost:5001/"})
	assert.Equal(t, "http://localhost:5001", c.BaseURL())
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)

	c = New(Config{BaseURL: "http://x", Timeout: 3 * time.Second})
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
}

func TestSnapshot_OK(t *testing.T) {
	c, log := newTestClient(t, "s3cret")

	gock.New(testServer).
		Get(SnapshotPath).
		MatchHeader("Authorization", "^Bearer s3cret$").
		Reply(200).
		JSON(map[string]any{
			"cacheTimestamp": "2026-03-01T09:00:00Z",
			"entities": []map[string]any{
				{
					"id":               "abc123",
					"name":             "web",
					"image":            "nginx:1.27",
					"status":           "running",
					"cpuPercent":       12.5,
					"memoryUsedMb":     128.0,
					"memoryTotalMb":    1024.0,
					"memoryPercent":    12.5,
					"networkIo":        "1.2kB / 3.4kB",
					"blockIo":          "0B / 0B",
					"refreshTimestamp": "2026-03-01T08:59:58Z",
				},
				{"id": "def456", "name": "db"},
			},
		})

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, gock.IsDone())

	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), snap.CacheTimestamp.UTC())
	require.Len(t, snap.Entities, 2)

	web := snap.Entities[0]
	assert.Equal(t, "abc123", web.ID)
	assert.Equal(t, "web", web.Name)
	assert.Equal(t, "nginx:1.27", web.Image)
	assert.Equal(t, "running", web.Status)
	assert.InDelta(t, 12.5, web.CPUPercent, 0.001)
	assert.InDelta(t, 128.0, web.MemoryUsedMB, 0.001)
	assert.InDelta(t, 1024.0, web.MemoryTotalMB, 0.001)
	assert.Equal(t, "1.2kB / 3.4kB", web.NetworkIO)
	assert.Equal(t, "0B / 0B", web.BlockIO)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 59, 58, 0, time.UTC), web.RefreshTimestamp.UTC())

	assert.Equal(t, "def456", snap.Entities[1].ID)
	assert.True(t, log.Contains("debug", "/metrics/snapshot -> 200"))
}

func TestSnapshot_EmptyListIsValid(t *testing.T) {
	c, _ := newTestClient(t, "")

	gock.New(testServer).
		Get(SnapshotPath).
		Reply(200).
		JSON(map[string]any{"entities": []any{}, "cacheTimestamp": "2026-03-01T09:00:00Z"})

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Entities)
	assert.NotNil(t, snap.Entities)
}

func TestSnapshot_ErrorPayloadWithEntitiesKeepsSnapshot(t *testing.T) {
	c, _ := newTestClient(t, "")

	gock.New(testServer).
		Get(SnapshotPath).
		Reply(200).
		JSON(map[string]any{
			"entities":       []map[string]any{{"id": "a"}},
			"cacheTimestamp": "2026-03-01T09:00:00Z",
			"error":          "2 containers could not be inspected",
		})

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Entities, 1)
	assert.Equal(t, "2 containers could not be inspected", snap.Error)
}

func TestSnapshot_Classification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantCode   string
		wantDetail string
	}{
		{
			name:     "missing entities",
			status:   200,
			body:     `{"cacheTimestamp":"2026-03-01T09:00:00Z"}`,
			wantCode: errors.ErrMalformed,
		},
		{
			name:     "null entities",
			status:   200,
			body:     `{"entities":null,"cacheTimestamp":"2026-03-01T09:00:00Z"}`,
			wantCode: errors.ErrMalformed,
		},
		{
			name:       "missing cacheTimestamp",
			status:     200,
			body:       `{"entities":[{"id":"a"}]}`,
			wantCode:   errors.ErrMalformed,
			wantDetail: "missing cacheTimestamp field",
		},
		{
			name:       "null cacheTimestamp",
			status:     200,
			body:       `{"entities":[],"cacheTimestamp":null}`,
			wantCode:   errors.ErrMalformed,
			wantDetail: "missing cacheTimestamp field",
		},
		{
			name:     "not json",
			status:   200,
			body:     `<html>gateway</html>`,
			wantCode: errors.ErrMalformed,
		},
		{
			name:     "wrong field type",
			status:   200,
			body:     `{"entities":[{"id":"a","cpuPercent":"high"}]}`,
			wantCode: errors.ErrMalformed,
		},
		{
			name:     "entity without id",
			status:   200,
			body:     `{"entities":[{"name":"orphan"}]}`,
			wantCode: errors.ErrMalformed,
		},
		{
			name:       "200 carrying only an error",
			status:     200,
			body:       `{"error":"docker daemon unreachable"}`,
			wantCode:   errors.ErrServer,
			wantDetail: "docker daemon unreachable",
		},
		{
			name:       "500 with structured payload",
			status:     500,
			body:       `{"error":"stats collector crashed","details":"exit 137"}`,
			wantCode:   errors.ErrServer,
			wantDetail: "stats collector crashed (exit 137)",
		},
		{
			name:       "502 with plain text",
			status:     502,
			body:       "bad gateway",
			wantCode:   errors.ErrServer,
			wantDetail: "bad gateway",
		},
		{
			name:     "503 with html",
			status:   503,
			body:     "<html>down</html>",
			wantCode: errors.ErrServer,
		},
		{
			name:     "401",
			status:   401,
			body:     `{"error":"token expired"}`,
			wantCode: errors.ErrUnauthorized,
		},
		{
			name:     "429",
			status:   429,
			body:     "",
			wantCode: errors.ErrRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, "")
			gock.New(testServer).Get(SnapshotPath).Reply(tt.status).BodyString(tt.body)

			_, err := c.Snapshot(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err), err.Error())

			if tt.wantDetail != "" {
				var dsErr *errors.Error
				require.True(t, stderrors.As(err, &dsErr))
				assert.Equal(t, tt.wantDetail, dsErr.Detail)
			}
		})
	}
}

func TestErrorDetail_TruncatesLongText(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	detail := errorDetail(long)
	assert.Len(t, detail, maxDetailLen+3)
	assert.Contains(t, detail, "...")
}

func TestTransportErrors(t *testing.T) {
	t.Run("connection failure", func(t *testing.T) {
		c, _ := newTestClient(t, "")
		gock.New(testServer).Get(SnapshotPath).ReplyError(stderrors.New("connection refused"))

		_, err := c.Snapshot(context.Background())
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrNetwork))
		assert.Contains(t, err.Error(), "Cannot connect to stats server at http://stats.test")
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		c, _ := newTestClient(t, "")
		gock.New(testServer).Get(SystemPath).ReplyError(context.DeadlineExceeded)

		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		_, err := c.System(ctx)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrTimeout))
	})

	t.Run("canceled", func(t *testing.T) {
		c, _ := newTestClient(t, "")
		gock.New(testServer).Get(SnapshotPath).ReplyError(context.Canceled)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.Snapshot(ctx)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCancelled))
	})
}

func TestTriggerRefresh(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		c, _ := newTestClient(t, "tok")
		gock.New(testServer).
			Post(RefreshPath).
			MatchHeader("Authorization", "^Bearer tok$").
			Reply(202).
			BodyString("queued")

		require.NoError(t, c.TriggerRefresh(context.Background()))
		assert.True(t, gock.IsDone())
	})

	t.Run("rate limited", func(t *testing.T) {
		c, _ := newTestClient(t, "")
		gock.New(testServer).Post(RefreshPath).Reply(429)

		err := c.TriggerRefresh(context.Background())
		assert.True(t, errors.IsCode(err, errors.ErrRateLimited))
	})
}

func TestSystem(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		c, _ := newTestClient(t, "")
		gock.New(testServer).
			Get(SystemPath).
			Reply(200).
			JSON(map[string]any{
				"cpuPercent":    37.5,
				"cpuCount":      8,
				"memoryUsedMb":  6144.0,
				"memoryTotalMb": 16384.0,
				"memoryPercent": 37.5,
				"versionLabel":  "Docker 27.1.1",
			})

		m, err := c.System(context.Background())
		require.NoError(t, err)
		assert.InDelta(t, 37.5, m.CPUPercent, 0.001)
		assert.Equal(t, 8, m.CPUCount)
		assert.InDelta(t, 6144.0, m.MemoryUsedMB, 0.001)
		assert.InDelta(t, 16384.0, m.MemoryTotalMB, 0.001)
		assert.Equal(t, "Docker 27.1.1", m.VersionLabel)
		assert.Equal(t, capturedAt, m.CapturedAt)
	})

	t.Run("session expired", func(t *testing.T) {
		c, _ := newTestClient(t, "")
		gock.New(testServer).Get(SystemPath).Reply(401)

		_, err := c.System(context.Background())
		assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))
		assert.Equal(t, "Session expired", errors.Describe(err))
	})

	t.Run("missing fields", func(t *testing.T) {
		c, _ := newTestClient(t, "")
		gock.New(testServer).Get(SystemPath).Reply(200).JSON(map[string]any{"cpuCount": 4})

		_, err := c.System(context.Background())
		assert.True(t, errors.IsCode(err, errors.ErrMalformed))
	})
}

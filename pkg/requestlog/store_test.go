package requestlog

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(method string, status int, latencyMs float64) Record {
	return Record{
		Method:         method,
		URL:            "http://127.0.0.1:8000/api/test",
		StatusCode:     status,
		ResponseTimeMs: latencyMs,
	}
}

func TestNewStore_DefaultCapacity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultCapacity, NewStore(0).Capacity())
	assert.Equal(t, DefaultCapacity, NewStore(-3).Capacity())
	assert.Equal(t, 5, NewStore(5).Capacity())
}

func TestStore_LogAssignsSequenceIDs(t *testing.T) {
	t.Parallel()

	s := NewStore(10)
	first := s.Log(newRecord("GET", 200, 1))
	second := s.Log(newRecord("POST", 201, 2))

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.Timestamp.IsZero())
}

func TestStore_RetainsLastCapacityRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		capacity int
		appended int
	}{
		{1, 2},
		{3, 10},
		{10, 11},
		{7, 100},
	}

	for _, tt := range tests {
		s := NewStore(tt.capacity)
		for i := 1; i <= tt.appended; i++ {
			s.Log(newRecord("GET", 200, float64(i)))
		}

		recent := s.Recent(0)
		require.Len(t, recent, tt.capacity)
		for i, rec := range recent {
			wantID := int64(tt.appended - tt.capacity + i + 1)
			assert.Equal(t, wantID, rec.ID, "capacity=%d appended=%d", tt.capacity, tt.appended)
		}
		assert.Equal(t, int64(tt.appended), s.TotalCount())
		assert.Equal(t, tt.capacity, s.Len())
	}
}

func TestStore_RecentLimit(t *testing.T) {
	t.Parallel()

	s := NewStore(10)
	for i := 0; i < 5; i++ {
		s.Log(newRecord("GET", 200, 1))
	}

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(4), recent[0].ID)
	assert.Equal(t, int64(5), recent[1].ID)

	assert.Len(t, s.Recent(50), 5)
}

func TestStore_Filters(t *testing.T) {
	t.Parallel()

	s := NewStore(10)
	s.Log(newRecord("GET", 200, 1))
	s.Log(newRecord("post", 500, 1))
	s.Log(newRecord("POST", 201, 1))
	s.Log(newRecord("GET", 500, 1))

	posts := s.ByMethod("POST")
	require.Len(t, posts, 2)
	assert.Equal(t, int64(2), posts[0].ID)
	assert.Equal(t, int64(3), posts[1].ID)

	errs := s.ByStatus(500)
	require.Len(t, errs, 2)
	assert.Equal(t, int64(2), errs[0].ID)
	assert.Equal(t, int64(4), errs[1].ID)

	assert.Empty(t, s.ByMethod("DELETE"))
	assert.NotNil(t, s.ByStatus(404))
}

func TestStore_AverageResponseTime(t *testing.T) {
	t.Parallel()

	s := NewStore(10)
	assert.Equal(t, 0.0, s.AverageResponseTimeMs())

	s.Log(newRecord("GET", 200, 10))
	s.Log(newRecord("GET", 200, 20))
	s.Log(newRecord("GET", 200, 30))
	assert.Equal(t, 20.0, s.AverageResponseTimeMs())
}

func TestStore_AverageOnlyCountsRetained(t *testing.T) {
	t.Parallel()

	s := NewStore(2)
	s.Log(newRecord("GET", 200, 100))
	s.Log(newRecord("GET", 200, 10))
	s.Log(newRecord("GET", 200, 20))

	assert.Equal(t, 15.0, s.AverageResponseTimeMs())
}

func TestStore_RoundsLatency(t *testing.T) {
	t.Parallel()

	s := NewStore(1)
	rec := s.Log(newRecord("GET", 200, 12.3456))
	assert.Equal(t, 12.35, rec.ResponseTimeMs)
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	s := NewStore(5)
	s.Log(newRecord("GET", 200, 1))
	s.Log(newRecord("GET", 200, 1))
	s.Clear()

	assert.Equal(t, int64(0), s.TotalCount())
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Recent(0))

	// ids are never reused
	rec := s.Log(newRecord("GET", 200, 1))
	assert.Equal(t, int64(3), rec.ID)
	assert.Equal(t, int64(1), s.TotalCount())
}

func TestStore_RecordsAreIsolatedFromCallerHeaders(t *testing.T) {
	t.Parallel()

	s := NewStore(5)
	headers := map[string]string{"accept": "application/json"}
	rec := newRecord("GET", 200, 1)
	rec.Headers = headers
	s.Log(rec)

	headers["accept"] = "text/plain"
	assert.Equal(t, "application/json", s.Recent(0)[0].Headers["accept"])
}

func TestStore_ConcurrentLog(t *testing.T) {
	t.Parallel()

	const workers, perWorker = 8, 50
	s := NewStore(workers * perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.Log(newRecord("GET", 200, 1))
			}
		}()
	}
	wg.Wait()

	recent := s.Recent(0)
	require.Len(t, recent, workers*perWorker)
	for i, rec := range recent {
		assert.Equal(t, int64(i+1), rec.ID)
	}
}

func TestRecord_JSONShape(t *testing.T) {
	t.Parallel()

	body := `{"ok":true}`
	rec := Record{
		ID:             7,
		Method:         "GET",
		URL:            "http://localhost/ping",
		Headers:        map[string]string{"accept": "*/*"},
		StatusCode:     200,
		ResponseTimeMs: 1.5,
		Timestamp:      time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC),
		ResponseBody:   &body,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(7), decoded["id"])
	assert.Equal(t, float64(200), decoded["status_code"])
	assert.Equal(t, 1.5, decoded["response_time_ms"])
	assert.Nil(t, decoded["request_body"])
	assert.Equal(t, body, decoded["response_body"])
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.23, Milliseconds(1234567*time.Nanosecond))
	assert.Nil(t, Body(nil))

	long := make([]byte, MaxBodySize+10)
	assert.Len(t, *Body(long), MaxBodySize)

	h := http.Header{"X-Multi": {"a", "b"}, "Accept": {"*/*"}}
	flat := FlattenHeaders(h)
	assert.Equal(t, "a, b", flat["x-multi"])
	assert.Equal(t, "*/*", flat["accept"])
}

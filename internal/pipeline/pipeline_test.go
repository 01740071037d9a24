package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/entagg/internal/filter"
	"github.com/ppiankov/entagg/internal/logging"
	"github.com/ppiankov/entagg/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Dir = t.TempDir()
	cfg.HTTP.RespectRobots = false
	return cfg
}

func serveFixture(t *testing.T, path string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entities.json" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestPipeline_LocalFile(t *testing.T) {
	p := NewPipeline(testConfig(t), logging.Discard())

	for _, stream := range []bool{false, true} {
		result, err := p.Aggregate(context.Background(), Request{
			Input:  "testdata/entities.json",
			Stream: stream,
			Models: []string{"vehicle"},
		})
		require.NoError(t, err, "stream=%v", stream)

		stolen, ok := result.Table.Get("stolen")
		require.True(t, ok)
		assert.Equal(t, counts{flag(false, 2), flag(true, 1)}, stolen)
	}
}

func TestPipeline_RecordsPath(t *testing.T) {
	p := NewPipeline(testConfig(t), logging.Discard())

	for _, stream := range []bool{false, true} {
		result, err := p.Aggregate(context.Background(), Request{
			Input:       "testdata/wrapped.json",
			RecordsPath: "data.entities.item",
			Stream:      stream,
			Properties:  []string{"first_name:elise", "hair_color:grey"},
		})
		require.NoError(t, err, "stream=%v", stream)
		assert.Equal(t, expectedIntersection(), tableMap(result.Table))
	}
}

func TestPipeline_MissingFile(t *testing.T) {
	p := NewPipeline(testConfig(t), logging.Discard())

	_, err := p.Aggregate(context.Background(), Request{Input: "testdata/nope.json"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPipeline_MalformedSpecSkipsInput(t *testing.T) {
	p := NewPipeline(testConfig(t), logging.Discard())

	// The input does not exist: the filter spec error must win
	_, err := p.Aggregate(context.Background(), Request{
		Input:      "testdata/nope.json",
		Properties: []string{"badspec"},
	})
	assert.ErrorIs(t, err, filter.ErrMalformedSpec)
}

func TestPipeline_URLUsesCache(t *testing.T) {
	srv, hits := serveFixture(t, "testdata/entities.json")
	p := NewPipeline(testConfig(t), logging.Discard())

	req := Request{Input: srv.URL + "/entities.json", Models: []string{"person"}}
	first, err := p.Aggregate(context.Background(), req)
	require.NoError(t, err)
	second, err := p.Aggregate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, tableMap(first.Table), tableMap(second.Table))

	eyes, _ := second.Table.Get("eye_color")
	assert.Equal(t, counts{str("green", 2), str("brown", 1)}, eyes)
}

func TestPipeline_URLWithoutCache(t *testing.T) {
	srv, hits := serveFixture(t, "testdata/entities.json")
	cfg := testConfig(t)
	cfg.Cache.Enabled = false
	p := NewPipeline(cfg, logging.Discard())

	req := Request{Input: srv.URL + "/entities.json"}
	for range 2 {
		_, err := p.Aggregate(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestPipeline_URLStream(t *testing.T) {
	srv, hits := serveFixture(t, "testdata/entities.json")
	p := NewPipeline(testConfig(t), logging.Discard())

	result, err := p.Aggregate(context.Background(), Request{
		Input:      srv.URL + "/entities.json",
		Stream:     true,
		Properties: []string{"year:2011,2004"},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 2, result.Matched)
}

func TestPipeline_URLNotFound(t *testing.T) {
	srv, _ := serveFixture(t, "testdata/entities.json")
	p := NewPipeline(testConfig(t), logging.Discard())

	_, err := p.Aggregate(context.Background(), Request{Input: srv.URL + "/missing.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status: 404")
}

func TestRequestFromConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Input.Path = "in.json"
	cfg.Input.Stream = true
	cfg.Input.RecordsPath = "data"

	req := RequestFromConfig(cfg, []string{"person"}, []string{"age:32"})
	assert.Equal(t, Request{
		Input:       "in.json",
		RecordsPath: "data",
		Stream:      true,
		Models:      []string{"person"},
		Properties:  []string{"age:32"},
	}, req)
}

func TestPipeline_TooLargeInBothModes(t *testing.T) {
	srv, _ := serveFixture(t, "testdata/entities.json")
	cfg := testConfig(t)
	cfg.Cache.Enabled = false
	cfg.HTTP.MaxBodyBytes = 256
	p := NewPipeline(cfg, logging.Discard())

	for _, stream := range []bool{false, true} {
		_, err := p.Aggregate(context.Background(), Request{
			Input:  srv.URL + "/entities.json",
			Stream: stream,
		})
		assert.ErrorIs(t, err, ErrTooLarge, "stream=%v", stream)
	}
}

func TestPipeline_FailedDocumentIsEvicted(t *testing.T) {
	bad := []byte(`[{"model":"person","properties":[{"slug":"age","type":"integer","value":"abc"}]}]`)
	good := []byte(`[{"model":"person","properties":[{"slug":"age","type":"integer","value":"32"}]}]`)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			_, _ = w.Write(bad)
			return
		}
		_, _ = w.Write(good)
	}))
	defer srv.Close()

	p := NewPipeline(testConfig(t), logging.Discard())
	req := Request{Input: srv.URL + "/entities.json"}

	_, err := p.Aggregate(context.Background(), req)
	require.Error(t, err)

	result, err := p.Aggregate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	age, _ := result.Table.Get("age")
	assert.Equal(t, counts{num(32, 1)}, age)
}

func TestPipeline_ClearCache(t *testing.T) {
	srv, hits := serveFixture(t, "testdata/entities.json")
	p := NewPipeline(testConfig(t), nil)

	req := Request{Input: srv.URL + "/entities.json"}
	_, err := p.Aggregate(context.Background(), req)
	require.NoError(t, err)

	require.NoError(t, p.ClearCache())
	_, err = p.Aggregate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	cfg := testConfig(t)
	cfg.Cache.Enabled = false
	assert.NoError(t, NewPipeline(cfg, nil).ClearCache())
}

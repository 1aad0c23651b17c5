package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralhq/interview-gateway/internal/audio"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/inference", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		json.NewEncoder(w).Encode(map[string]any{
			"text":     "so this service caches the results",
			"language": "en",
			"duration": 3.2,
		})
	}))
	defer srv.Close()

	client := NewSTTClient(srv.URL, 2)
	wavData := audio.SamplesToWAV(make([]float32, 16000), 16000)
	res, err := client.Transcribe(context.Background(), wavData)
	require.NoError(t, err)

	assert.Equal(t, "so this service caches the results", res.Text)
	assert.Equal(t, "en", res.Language)
	assert.InDelta(t, 3.2, res.Duration, 1e-9)
}

func TestTranscribeDurationFromWAVHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"text": "short clip"})
	}))
	defer srv.Close()

	client := NewSTTClient(srv.URL, 2)
	// Half a second of silence at 16kHz.
	wavData := audio.SamplesToWAV(make([]float32, 8000), 16000)
	res, err := client.Transcribe(context.Background(), wavData)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, res.Duration, 0.01)
	assert.Equal(t, "en", res.Language)
}

func TestTranscribeSidecarError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewSTTClient(srv.URL, 2)
	_, err := client.Transcribe(context.Background(), []byte("not wav"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestWAVDuration(t *testing.T) {
	wavData := audio.SamplesToWAV(make([]float32, 32000), 16000)
	d, err := audio.WAVDuration(wavData)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, d, 0.01)

	_, err = audio.WAVDuration([]byte("junk"))
	assert.Error(t, err)
}

func TestExtractKeywords(t *testing.T) {
	text := "The service caches results in Redis and the cache invalidation uses Redis streams"
	kw := ExtractKeywords(text)

	assert.Contains(t, kw, "service")
	assert.Contains(t, kw, "caches")
	assert.Contains(t, kw, "redis")
	assert.NotContains(t, kw, "the")
	assert.NotContains(t, kw, "and")

	// Deduplicated.
	count := 0
	for _, w := range kw {
		if w == "redis" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExtractKeywordsCap(t *testing.T) {
	long := "alpha bravo charlie delta echoes foxtrot golfing hotels india juliet kilos limas mikes november oscars papas quebec romeos sierra tango"
	kw := ExtractKeywords(long)
	assert.Len(t, kw, 15)
}

func TestExtractKeywordsEmpty(t *testing.T) {
	assert.Empty(t, ExtractKeywords(""))
	assert.Empty(t, ExtractKeywords("the a an to"))
}

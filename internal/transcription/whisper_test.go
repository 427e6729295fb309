package transcription

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/notepolish/internal/types"
)

func newWhisperServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, DefaultModel, r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))

		if file, _, err := r.FormFile("file"); assert.NoError(t, err) {
			_ = file.Close()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.m4a")
	require.NoError(t, os.WriteFile(path, []byte("fake audio"), 0o600))
	return path
}

func TestWhisperTranscriber_Transcribe(t *testing.T) {
	srv := newWhisperServer(t, http.StatusOK,
		`{"task": "transcribe", "language": "english", "duration": 2.5, "text": "hello world"}`)

	w, err := NewWhisperTranscriber(Config{BaseURL: srv.URL + "/v1"}, "test-key", nil, nil)
	require.NoError(t, err)

	result, err := w.Transcribe(context.Background(), writeAudio(t))

	require.NoError(t, err)
	assert.Equal(t, &types.TranscriptionResult{Text: "hello world", Language: "english", Duration: 2.5}, result)
}

func TestWhisperTranscriber_DefaultsLanguageAndDuration(t *testing.T) {
	srv := newWhisperServer(t, http.StatusOK, `{"text": "hi"}`)

	w, err := NewWhisperTranscriber(Config{BaseURL: srv.URL + "/v1"}, "test-key", nil, nil)
	require.NoError(t, err)

	result, err := w.Transcribe(context.Background(), writeAudio(t))

	require.NoError(t, err)
	assert.Equal(t, "en", result.Language)
	assert.Zero(t, result.Duration)
}

func TestWhisperTranscriber_APIError(t *testing.T) {
	srv := newWhisperServer(t, http.StatusInternalServerError,
		`{"error": {"message": "upstream exploded", "type": "server_error"}}`)

	w, err := NewWhisperTranscriber(Config{BaseURL: srv.URL + "/v1"}, "test-key", nil, nil)
	require.NoError(t, err)

	_, err = w.Transcribe(context.Background(), writeAudio(t))

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Contains(t, err.Error(), "speech-to-text request failed")
}

func TestWhisperTranscriber_MissingFile(t *testing.T) {
	w, err := NewWhisperTranscriber(Config{}, "test-key", nil, nil)
	require.NoError(t, err)

	_, err = w.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	var terr *Error
	assert.True(t, errors.As(err, &terr))
}

func TestNewWhisperTranscriber_RequiresKey(t *testing.T) {
	_, err := NewWhisperTranscriber(Config{}, "", nil, nil)
	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Contains(t, terr.Message, "not configured")
}

// recordingTranscriber checks the temp file exists while it is being transcribed.
type recordingTranscriber struct {
	t       *testing.T
	path    string
	content []byte
	err     error
}

func (r *recordingTranscriber) Transcribe(_ context.Context, audioPath string) (*types.TranscriptionResult, error) {
	r.path = audioPath
	data, err := os.ReadFile(audioPath)
	assert.NoError(r.t, err)
	r.content = data
	if r.err != nil {
		return nil, r.err
	}
	return &types.TranscriptionResult{Text: "ok", Language: "en"}, nil
}

func TestTranscribeBytes_RemovesFileOnSuccess(t *testing.T) {
	dir := t.TempDir()
	rec := &recordingTranscriber{t: t}

	result, err := TranscribeBytes(context.Background(), rec, dir, "memo.webm", []byte("audio bytes"))

	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)
	assert.Equal(t, []byte("audio bytes"), rec.content)
	assert.Equal(t, ".webm", filepath.Ext(rec.path))
	assert.NoFileExists(t, rec.path)
}

func TestTranscribeBytes_RemovesFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	rec := &recordingTranscriber{t: t, err: &Error{Message: "boom"}}

	_, err := TranscribeBytes(context.Background(), rec, dir, "memo.m4a", []byte("audio bytes"))

	require.Error(t, err)
	assert.NotEmpty(t, rec.path)
	assert.NoFileExists(t, rec.path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTranscribeBytes_EmptyPayload(t *testing.T) {
	rec := &recordingTranscriber{t: t}
	_, err := TranscribeBytes(context.Background(), rec, t.TempDir(), "memo.m4a", nil)

	require.Error(t, err)
	assert.Empty(t, rec.path)
}

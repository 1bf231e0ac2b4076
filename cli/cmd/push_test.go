package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestPushAction_UploadsArchiveBodyToFeed(t *testing.T) {
	var gotBody []byte
	var gotMethod, gotAPIKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAPIKey = r.Header.Get("X-API-Key")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	archivePath := filepath.Join(t.TempDir(), "widget.nupkg")
	require.NoError(t, os.WriteFile(archivePath, []byte("archive-bytes"), 0o644))

	var out bytes.Buffer
	err := runAction(t, pushAction, PushCommand().Flags, &out,
		"--source", srv.URL, "--api-key", "secret", archivePath)

	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "secret", gotAPIKey)
	assert.Equal(t, "archive-bytes", string(gotBody))
}

func TestPushAction_NonSuccessStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	archivePath := filepath.Join(t.TempDir(), "widget.nupkg")
	require.NoError(t, os.WriteFile(archivePath, []byte("archive-bytes"), 0o644))

	var out bytes.Buffer
	err := runAction(t, pushAction, PushCommand().Flags, &out, "--source", srv.URL, archivePath)

	require.Error(t, err)
	var exitCoder cli.ExitCoder
	require.ErrorAs(t, err, &exitCoder)
}

func TestPushAction_RequiresArchivePath(t *testing.T) {
	var out bytes.Buffer
	err := runAction(t, pushAction, PushCommand().Flags, &out)

	require.Error(t, err)
}


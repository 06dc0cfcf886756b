package fixture

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
)

func TestHandler(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, Path, http.StatusOK},
		{http.MethodHead, Path, http.StatusOK},
		{http.MethodGet, "/missing", http.StatusNotFound},
		{http.MethodPost, Path, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestPageCarriesGeneratorControls(t *testing.T) {
	snapshot, err := browser.SummarizeForm(string(Page()))
	require.NoError(t, err)

	assert.Contains(t, snapshot.Title, "Random Password Generator")

	find := func(match func(browser.Control) bool) []browser.Control {
		var out []browser.Control
		for _, c := range snapshot.Controls {
			if match(c) {
				out = append(out, c)
			}
		}
		return out
	}

	assert.Len(t, find(func(c browser.Control) bool { return c.Tag == "input" && c.Name == "password" }), 1)
	assert.Len(t, find(func(c browser.Control) bool { return c.Tag == "input" && c.Name == "passwordLength" }), 1)
	assert.Len(t, find(func(c browser.Control) bool { return c.Tag == "input" && c.Type == "range" }), 1)
	assert.Len(t, find(func(c browser.Control) bool { return c.Tag == "button" && c.Title == "Generate password" }), 1)
	assert.Len(t, find(func(c browser.Control) bool { return c.Tag == "button" && c.Title == "Copy password" }), 2)

	for _, id := range []string{"option-lowercase", "option-uppercase", "option-numbers", "option-symbols"} {
		assert.Len(t, find(func(c browser.Control) bool { return c.Tag == "label" && c.For == id }), 1, id)
		boxes := find(func(c browser.Control) bool { return c.Tag == "input" && c.ID == id })
		require.Len(t, boxes, 1, id)
		wantChecked := id == "option-lowercase" || id == "option-uppercase"
		assert.Equal(t, wantChecked, boxes[0].Checked, id)
	}
}

func TestServerLifecycle(t *testing.T) {
	s, err := Start("127.0.0.1:0", nil)
	require.NoError(t, err)

	resp, err := http.Get(s.URL())
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, Page(), body)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, s.Wait())
}

func TestStartRejectsBadAddress(t *testing.T) {
	_, err := Start("256.0.0.1:bad", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

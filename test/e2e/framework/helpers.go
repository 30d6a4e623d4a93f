package framework

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

// TestContext bundles a running test server with an HTTP client speaking
// its WebDAV dialect.
type TestContext struct {
	T      *testing.T
	Server *TestServer
	Client *http.Client
}

// NewTestContext starts a server on the given backend with a single
// "export" mount and registers cleanup.
func NewTestContext(t *testing.T, backend BackendType) *TestContext {
	return NewTestContextWithMounts(t, backend, nil)
}

// NewTestContextWithMounts starts a server with an explicit mount layout.
func NewTestContextWithMounts(t *testing.T, backend BackendType, mounts []MountSpec) *TestContext {
	t.Helper()

	tc := &TestContext{
		T: t,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	// Register cleanup immediately so it's available if anything fails
	t.Cleanup(func() {
		tc.Cleanup()
	})

	tc.Server = NewTestServer(t, TestServerConfig{
		Backend:  backend,
		Mounts:   mounts,
		LogLevel: "ERROR",
	})

	if err := tc.Server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	return tc
}

// Cleanup stops the server.
func (tc *TestContext) Cleanup() {
	tc.T.Helper()
	if tc.Server != nil {
		_ = tc.Server.Stop()
	}
}

// URL builds the URL for a path inside a mount. The path is escaped
// segment by segment so names with spaces work.
func (tc *TestContext) URL(mount, path string) string {
	base := fmt.Sprintf("http://localhost:%d/mount/%s", tc.Server.Port(), mount)
	if path == "" {
		return base
	}

	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return base + "/" + strings.Join(segments, "/")
}

// Do sends a request with the given method, path and optional headers and
// body, and returns the response. The caller owns the response body.
func (tc *TestContext) Do(method, mount, path string, body io.Reader, headers map[string]string) *http.Response {
	tc.T.Helper()

	req, err := http.NewRequest(method, tc.URL(mount, path), body)
	if err != nil {
		tc.T.Fatalf("Failed to build %s request: %v", method, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.Client.Do(req)
	if err != nil {
		tc.T.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// Put uploads content and returns the response status code.
func (tc *TestContext) Put(mount, path string, content []byte) int {
	tc.T.Helper()
	resp := tc.Do(http.MethodPut, mount, path, strings.NewReader(string(content)), nil)
	defer resp.Body.Close()
	return resp.StatusCode
}

// MustPut uploads content and fails the test unless the server reports
// created or replaced.
func (tc *TestContext) MustPut(mount, path string, content []byte) {
	tc.T.Helper()
	status := tc.Put(mount, path, content)
	if status != http.StatusCreated && status != http.StatusNoContent {
		tc.T.Fatalf("PUT %s returned %d", path, status)
	}
}

// Get downloads a file. The caller owns the response body.
func (tc *TestContext) Get(mount, path string) *http.Response {
	tc.T.Helper()
	return tc.Do(http.MethodGet, mount, path, nil, nil)
}

// GetRange downloads with a Range header. The caller owns the response
// body.
func (tc *TestContext) GetRange(mount, path, rangeSpec string) *http.Response {
	tc.T.Helper()
	return tc.Do(http.MethodGet, mount, path, nil, map[string]string{"Range": rangeSpec})
}

// ReadBody drains and closes a response body.
func (tc *TestContext) ReadBody(resp *http.Response) []byte {
	tc.T.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		tc.T.Fatalf("Failed to read response body: %v", err)
	}
	return data
}

// Mkcol creates a collection and returns the status code.
func (tc *TestContext) Mkcol(mount, path string) int {
	tc.T.Helper()
	resp := tc.Do("MKCOL", mount, path, nil, nil)
	defer resp.Body.Close()
	return resp.StatusCode
}

// Delete removes a file or collection and returns the status code.
func (tc *TestContext) Delete(mount, path string) int {
	tc.T.Helper()
	resp := tc.Do(http.MethodDelete, mount, path, nil, nil)
	defer resp.Body.Close()
	return resp.StatusCode
}

// Copy issues a COPY to the destination path on the same mount. overwrite
// maps to the Overwrite header (T/F).
func (tc *TestContext) Copy(mount, from, to string, overwrite bool) int {
	tc.T.Helper()
	return tc.transfer("COPY", mount, from, to, overwrite)
}

// Move issues a MOVE to the destination path on the same mount.
func (tc *TestContext) Move(mount, from, to string, overwrite bool) int {
	tc.T.Helper()
	return tc.transfer("MOVE", mount, from, to, overwrite)
}

func (tc *TestContext) transfer(method, mount, from, to string, overwrite bool) int {
	tc.T.Helper()

	ow := "T"
	if !overwrite {
		ow = "F"
	}
	headers := map[string]string{
		"Destination": tc.URL(mount, to),
		"Overwrite":   ow,
	}

	resp := tc.Do(method, mount, from, nil, headers)
	defer resp.Body.Close()
	return resp.StatusCode
}

// List fetches a collection listing as the decoded JSON entries.
func (tc *TestContext) List(mount, path string) []ListEntry {
	tc.T.Helper()

	resp := tc.Get(mount, path)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		tc.T.Fatalf("GET %s returned %d, expected 200", path, resp.StatusCode)
	}

	var entries []ListEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		tc.T.Fatalf("Failed to decode listing for %s: %v", path, err)
	}
	return entries
}

// ListEntry mirrors the JSON shape of a collection listing entry.
type ListEntry struct {
	Name       string `json:"name"`
	Collection bool   `json:"collection"`
}

// Mounts fetches the mount listing.
func (tc *TestContext) Mounts() []string {
	tc.T.Helper()

	resp, err := tc.Client.Get(fmt.Sprintf("http://localhost:%d/mounts", tc.Server.Port()))
	if err != nil {
		tc.T.Fatalf("GET /mounts failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		tc.T.Fatalf("GET /mounts returned %d", resp.StatusCode)
	}

	var mounts []string
	if err := json.NewDecoder(resp.Body).Decode(&mounts); err != nil {
		tc.T.Fatalf("Failed to decode mount listing: %v", err)
	}
	return mounts
}

// AssertStatus fails the test unless the response has the expected status.
func (tc *TestContext) AssertStatus(resp *http.Response, expected int) {
	tc.T.Helper()
	if resp.StatusCode != expected {
		tc.T.Fatalf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContent downloads a file and fails unless its content matches.
func (tc *TestContext) AssertContent(mount, path string, expected []byte) {
	tc.T.Helper()

	resp := tc.Get(mount, path)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		tc.T.Fatalf("GET %s returned %d, expected 200", path, resp.StatusCode)
	}
	actual := tc.ReadBody(resp)
	if string(actual) != string(expected) {
		tc.T.Fatalf("Content mismatch for %s:\nExpected: %q\nGot: %q",
			path, string(expected), string(actual))
	}
}

// AssertNotFound fails the test unless the path reports 404.
func (tc *TestContext) AssertNotFound(mount, path string) {
	tc.T.Helper()

	resp := tc.Get(mount, path)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		tc.T.Fatalf("Expected 404 for %s, got %d", path, resp.StatusCode)
	}
}

package e2e

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/marmos91/scopefs/test/e2e/framework"
)

func TestMountListing(t *testing.T) {
	tc := framework.NewTestContextWithMounts(t, framework.BackendMemory, []framework.MountSpec{
		{Name: "docs"},
		{Name: "media"},
		{Name: "archive", ReadOnly: true},
	})

	mounts := tc.Mounts()
	sort.Strings(mounts)

	expected := []string{"archive", "docs", "media"}
	if len(mounts) != len(expected) {
		t.Fatalf("Mount listing = %v, expected %v", mounts, expected)
	}
	for i, name := range expected {
		if mounts[i] != name {
			t.Fatalf("Mount listing = %v, expected %v", mounts, expected)
		}
	}
}

func TestUnknownMount(t *testing.T) {
	tc := framework.NewTestContext(t, framework.BackendMemory)

	// Unknown mounts are indistinguishable from missing paths, and no
	// request can bring one into existence.
	tc.AssertNotFound("nope", "file.txt")

	if status := tc.Put("nope", "file.txt", []byte("x")); status != http.StatusNotFound {
		t.Fatalf("PUT to an unknown mount returned %d, expected 404", status)
	}
	if status := tc.Mkcol("nope", "dir"); status != http.StatusNotFound {
		t.Fatalf("MKCOL on an unknown mount returned %d, expected 404", status)
	}

	mounts := tc.Mounts()
	if len(mounts) != 1 || mounts[0] != "export" {
		t.Fatalf("Mount listing changed after requests to an unknown mount: %v", mounts)
	}
}

func TestReadOnlyMount(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend framework.BackendType) {
		tc := framework.NewTestContextWithMounts(t, backend, []framework.MountSpec{
			{Name: "rw"},
			{Name: "ro", ReadOnly: true},
		})

		// Writes to the read-only mount are forbidden.
		if status := tc.Put("ro", "file.txt", []byte("x")); status != http.StatusForbidden {
			t.Fatalf("PUT to a read-only mount returned %d, expected 403", status)
		}
		if status := tc.Mkcol("ro", "dir"); status != http.StatusForbidden {
			t.Fatalf("MKCOL on a read-only mount returned %d, expected 403", status)
		}
		if status := tc.Delete("ro", "file.txt"); status != http.StatusForbidden {
			t.Fatalf("DELETE on a read-only mount returned %d, expected 403", status)
		}

		// Reads still work.
		entries := tc.List("ro", "")
		if len(entries) != 0 {
			t.Fatalf("Fresh read-only mount should list empty, got %+v", entries)
		}

		// The sibling mount is unaffected.
		tc.MustPut("rw", "file.txt", []byte("x"))
	})
}

func TestReadOnlyMountServesSeededContent(t *testing.T) {
	tc := framework.NewTestContext(t, framework.BackendLocal)

	// Seed a second mount directory on disk before mounting it read-only.
	// A restart would normally do this; here the registry is live.
	seeded := filepath.Join(tc.Server.BackendDir(), "published")
	if err := os.MkdirAll(seeded, 0755); err != nil {
		t.Fatalf("Failed to create mount directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(seeded, "index.html"), []byte("<html></html>"), 0644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	// Not registered: invisible regardless of what exists on disk.
	tc.AssertNotFound("published", "index.html")
}

func TestPathTraversalRejected(t *testing.T) {
	tc := framework.NewTestContextWithMounts(t, framework.BackendMemory, []framework.MountSpec{
		{Name: "alpha"},
		{Name: "beta"},
	})

	tc.MustPut("beta", "secret.txt", []byte("classified"))

	// Dot segments must never resolve outside the mount, whether sent
	// literally or percent-encoded.
	for _, raw := range []string{
		"%2e%2e/beta/secret.txt",
		"a/%2e%2e/%2e%2e/beta/secret.txt",
		"%2e",
	} {
		url := fmt.Sprintf("http://localhost:%d/mount/alpha/%s", tc.Server.Port(), raw)
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			t.Fatalf("Failed to build request: %v", err)
		}

		resp, err := tc.Client.Do(req)
		if err != nil {
			t.Fatalf("GET %s failed: %v", raw, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s returned %d, expected 404", raw, resp.StatusCode)
		}
	}
}

func TestMountsShareBackendButNotNamespace(t *testing.T) {
	tc := framework.NewTestContextWithMounts(t, framework.BackendMemory, []framework.MountSpec{
		{Name: "alpha"},
		{Name: "beta"},
	})

	tc.MustPut("alpha", "file.txt", []byte("alpha's"))

	// Same path on the sibling mount resolves independently.
	tc.AssertNotFound("beta", "file.txt")

	tc.MustPut("beta", "file.txt", []byte("beta's"))
	tc.AssertContent("alpha", "file.txt", []byte("alpha's"))
	tc.AssertContent("beta", "file.txt", []byte("beta's"))
}

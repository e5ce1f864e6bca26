//go:build integration

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "gocloud.dev/blob/s3blob"

	"github.com/trawl-io/trawl/internal/testutils"
)

func TestCLIIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Generate test data
	files := []testutils.TestFile{
		{Name: "small.bin", Size: 64 * 1024},
		{Name: "medium.bin", Size: 4 * 1024 * 1024},
	}
	for i := range files {
		files[i].Data = testutils.GenerateTestData(files[i].Size)
	}

	t.Log("Starting HTTP test server...")
	server := testutils.StartTestHTTPServer(t, files)
	defer server.Close()

	t.Log("Starting Minio container...")
	minio := testutils.StartMinioContainer(t, ctx, "trawl-test-bucket")
	defer func() {
		if err := minio.Close(ctx); err != nil {
			t.Logf("failed to terminate minio container: %v", err)
		}
	}()

	// Write a manifest covering direct artifacts and an index fan-out.
	manifest := fmt.Sprintf(`
concurrency: 4
bucket: %q
retry:
  attempts: 2
  backoff: 100ms
resources:
  - name: direct.bin
    type: http
    url: %s/small.bin
  - name: packages
    type: index
    url: %s/index.json
`, minio.BucketURL, server.URL, server.URL)

	manifestPath := filepath.Join(t.TempDir(), "trawl.yaml")
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	t.Run("validate", func(t *testing.T) {
		exitCode := runValidate([]string{"-manifest", manifestPath})
		if exitCode != ExitSuccess {
			t.Fatalf("validate failed with exit code %d", exitCode)
		}
	})

	t.Run("fetch", func(t *testing.T) {
		exitCode := runFetch([]string{"-manifest", manifestPath})
		if exitCode != ExitSuccess {
			t.Fatalf("fetch failed with exit code %d", exitCode)
		}

		bucket, err := minio.OpenBucket(ctx)
		if err != nil {
			t.Fatalf("open bucket: %v", err)
		}
		defer bucket.Close()

		// One direct artifact plus one per index entry.
		checks := map[string][]byte{
			"direct.bin":          files[0].Data,
			"packages/small.bin":  files[0].Data,
			"packages/medium.bin": files[1].Data,
		}
		for key, want := range checks {
			got, err := bucket.ReadAll(ctx, key)
			if err != nil {
				t.Fatalf("read %s: %v", key, err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("%s: got %d bytes, want %d", key, len(got), len(want))
			}
		}
	})
}

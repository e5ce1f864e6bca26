package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"

	"github.com/trawl-io/trawl/internal/config"
	trawlhttp "github.com/trawl-io/trawl/internal/http"
)

func testHTTPOptions() trawlhttp.Options {
	opts := trawlhttp.DefaultOptions()
	opts.RetryAttempts = 1
	opts.RetryBackoff = time.Millisecond
	opts.RetryMaxBackoff = 5 * time.Millisecond
	return opts
}

func newTestMirror(t *testing.T, total int, opts Options) (*Mirror, *blob.Bucket, *bytes.Buffer) {
	t.Helper()

	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	t.Cleanup(func() { bucket.Close() })

	var buf bytes.Buffer
	opts.Output = &buf
	if opts.HTTP.Timeout == 0 {
		opts.HTTP = testHTTPOptions()
	}
	return New(bucket, total, opts), bucket, &buf
}

func TestFetchArtifact(t *testing.T) {
	data := []byte("artifact payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/spec.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer server.Close()

	m, bucket, buf := newTestMirror(t, 1, Options{Concurrency: 2})

	ctx := context.Background()
	m.Fetch(ctx, config.Resource{
		Name: "spec.pdf",
		Type: config.ResourceHTTP,
		URL:  server.URL + "/spec.pdf",
	})
	m.Wait()

	stored, err := bucket.ReadAll(ctx, "spec.pdf")
	if err != nil {
		t.Fatalf("read stored artifact: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Errorf("stored %q, want %q", stored, data)
	}
	if got := m.Completed(); got != 1 {
		t.Errorf("Completed() = %d, want 1", got)
	}
	if out := buf.String(); !strings.Contains(out, "stored spec.pdf (16 bytes)") {
		t.Errorf("expected stored line in output, got:\n%s", out)
	}
}

func TestFetchArtifactNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer server.Close()

	m, bucket, buf := newTestMirror(t, 1, Options{Concurrency: 2})

	ctx := context.Background()
	m.Fetch(ctx, config.Resource{
		Name: "missing.bin",
		Type: config.ResourceHTTP,
		URL:  server.URL + "/missing.bin",
	})
	m.Wait()

	// A failed task still ends: slot released, counter advanced.
	if got := m.Completed(); got != 1 {
		t.Errorf("Completed() = %d, want 1", got)
	}
	if out := buf.String(); !strings.Contains(out, "failed to fetch missing.bin") {
		t.Errorf("expected failure line in output, got:\n%s", out)
	}

	exists, err := bucket.Exists(ctx, "missing.bin")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("failed fetch left an object in the bucket")
	}
}

func TestFetchArtifactWithoutBucket(t *testing.T) {
	var buf bytes.Buffer
	m := New(nil, 1, Options{Concurrency: 1, Output: &buf, HTTP: testHTTPOptions()})

	m.Fetch(context.Background(), config.Resource{
		Name: "a",
		Type: config.ResourceHTTP,
		URL:  "https://example.invalid/a",
	})
	m.Wait()

	if got := m.Completed(); got != 1 {
		t.Errorf("Completed() = %d, want 1", got)
	}
	if out := buf.String(); !strings.Contains(out, "no bucket configured") {
		t.Errorf("expected bucket failure line, got:\n%s", out)
	}
}

func TestIndexFanOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"name": "one.bin", "url": "` + "http://" + r.Host + `/one.bin"},
				{"name": "two.bin", "url": "` + "http://" + r.Host + `/two.bin"},
				{"name": "", "url": "http://ignored"}
			]`))
		case "/one.bin":
			w.Write([]byte("one"))
		case "/two.bin":
			w.Write([]byte("two"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	m, bucket, buf := newTestMirror(t, 1, Options{Concurrency: 2})

	ctx := context.Background()
	m.Fetch(ctx, config.Resource{
		Name: "packages",
		Type: config.ResourceIndex,
		URL:  server.URL + "/index.json",
	})
	m.Wait()

	// Index task plus two artifact tasks; the malformed entry is skipped.
	if got := m.Completed(); got != 3 {
		t.Errorf("Completed() = %d, want 3", got)
	}

	for key, want := range map[string]string{
		"packages/one.bin": "one",
		"packages/two.bin": "two",
	} {
		stored, err := bucket.ReadAll(ctx, key)
		if err != nil {
			t.Fatalf("read %s: %v", key, err)
		}
		if string(stored) != want {
			t.Errorf("%s = %q, want %q", key, stored, want)
		}
	}

	if out := buf.String(); !strings.Contains(out, "queued 2 artifacts") {
		t.Errorf("expected queued line in output, got:\n%s", out)
	}
}

func TestCloneMissingBinary(t *testing.T) {
	m, _, buf := newTestMirror(t, 1, Options{
		Concurrency: 1,
		Workdir:     t.TempDir(),
		GitBinary:   "trawl-test-no-such-binary",
	})

	m.Fetch(context.Background(), config.Resource{
		Name: "repo",
		Type: config.ResourceGit,
		URL:  "https://example.invalid/repo.git",
	})
	m.Wait()

	if got := m.Completed(); got != 1 {
		t.Errorf("Completed() = %d, want 1", got)
	}
	if out := buf.String(); !strings.Contains(out, "failed to clone repo") {
		t.Errorf("expected clone failure line, got:\n%s", out)
	}
}

func TestCloneSkipsExisting(t *testing.T) {
	workdir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(workdir, "repo"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m, _, buf := newTestMirror(t, 1, Options{
		Concurrency: 1,
		Workdir:     workdir,
		GitBinary:   "trawl-test-no-such-binary", // must not be invoked
	})

	m.Fetch(context.Background(), config.Resource{
		Name: "repo",
		Type: config.ResourceGit,
		URL:  "https://example.invalid/repo.git",
	})
	m.Wait()

	if out := buf.String(); !strings.Contains(out, "repo already cloned") {
		t.Errorf("expected skip line, got:\n%s", out)
	}
	if got := m.Completed(); got != 1 {
		t.Errorf("Completed() = %d, want 1", got)
	}
}

func TestFetchUnknownType(t *testing.T) {
	m, _, buf := newTestMirror(t, 1, Options{Concurrency: 1})

	m.Fetch(context.Background(), config.Resource{
		Name: "odd",
		Type: "ftp",
		URL:  "ftp://example.invalid/odd",
	})
	m.Wait()

	if got := m.Completed(); got != 0 {
		t.Errorf("Completed() = %d, want 0", got)
	}
	if out := buf.String(); !strings.Contains(out, `unknown resource type "ftp"`) {
		t.Errorf("expected skip note, got:\n%s", out)
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"fatal: repository not found\n", "fatal: repository not found"},
		{"line one\nline two\n", "line one"},
		{"  \n  trailing  \n", "trailing"},
	}

	for _, tt := range tests {
		if got := firstLine([]byte(tt.input)); got != tt.expected {
			t.Errorf("firstLine(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

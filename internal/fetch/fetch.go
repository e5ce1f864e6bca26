package fetch

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"

	"gocloud.dev/blob"

	"github.com/trawl-io/trawl/internal/config"
	trawlhttp "github.com/trawl-io/trawl/internal/http"
	"github.com/trawl-io/trawl/internal/pool"
)

// Options configures a Mirror.
type Options struct {
	// Concurrency is the maximum number of resources fetched at once.
	// Default: 20 (the pool's default)
	Concurrency int

	// Workdir is the directory git resources are cloned into.
	Workdir string

	// GitDepth is the clone depth for git resources.
	// Default: 1
	GitDepth int

	// GitBinary is the git executable to invoke.
	// Default: "git"
	GitBinary string

	// HTTP configures the HTTP client.
	HTTP trawlhttp.Options

	// Output is where progress lines are written.
	// Default: os.Stdout
	Output io.Writer
}

// IndexEntry is one entry of a JSON index resource.
type IndexEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Mirror fetches manifest resources with bounded concurrency, storing
// artifacts in a bucket and clones in a workdir.
type Mirror struct {
	opts   Options
	pool   *pool.Pool
	client *trawlhttp.Client
	bucket *blob.Bucket
}

// New creates a Mirror writing artifacts to bucket. total is the expected
// number of tasks, used for the progress fraction. bucket may be nil when
// the manifest holds only git resources.
func New(bucket *blob.Bucket, total int, opts Options) *Mirror {
	if opts.GitDepth <= 0 {
		opts.GitDepth = 1
	}
	if opts.GitBinary == "" {
		opts.GitBinary = "git"
	}
	if opts.HTTP.Timeout == 0 {
		opts.HTTP = trawlhttp.DefaultOptions()
	}

	return &Mirror{
		opts:   opts,
		client: trawlhttp.NewClient(opts.HTTP),
		bucket: bucket,
		pool: pool.New(pool.Options{
			Total:       total,
			Concurrency: opts.Concurrency,
			Output:      opts.Output,
		}),
	}
}

// Fetch submits the task for one resource. It never blocks; the task runs
// once the pool admits it.
func (m *Mirror) Fetch(ctx context.Context, res config.Resource) {
	switch res.Type {
	case config.ResourceGit:
		m.pool.Submit(ctx, func(t *pool.Task) { m.cloneRepo(ctx, t, res) })
	case config.ResourceHTTP:
		m.pool.Submit(ctx, func(t *pool.Task) { m.fetchArtifact(ctx, t, res) })
	case config.ResourceIndex:
		m.pool.Submit(ctx, func(t *pool.Task) { m.expandIndex(ctx, t, res) })
	default:
		m.pool.Notef("skipping %s: unknown resource type %q", res.Name, res.Type)
	}
}

// Wait blocks until every submitted task has finished.
func (m *Mirror) Wait() {
	m.pool.Wait()
}

// Completed reports how many tasks have finished.
func (m *Mirror) Completed() int {
	return m.pool.Completed()
}

// Notef writes a line that belongs to no task.
func (m *Mirror) Notef(format string, args ...any) {
	m.pool.Notef(format, args...)
}

// cloneRepo shallow-clones a git resource into the workdir.
func (m *Mirror) cloneRepo(ctx context.Context, t *pool.Task, res config.Resource) {
	t.Beginf("cloning %s", res.URL)

	dest := filepath.Join(m.opts.Workdir, res.Name)
	if _, err := os.Stat(dest); err == nil {
		t.Endf("%s already cloned", res.Name)
		return
	}

	cmd := exec.CommandContext(ctx, m.opts.GitBinary,
		"clone", "--depth", strconv.Itoa(m.opts.GitDepth), res.URL, dest)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Endf("failed to clone %s: %v: %s", res.Name, err, firstLine(out))
		return
	}

	t.Endf("cloned %s", res.Name)
}

// fetchArtifact streams an http resource into the bucket.
func (m *Mirror) fetchArtifact(ctx context.Context, t *pool.Task, res config.Resource) {
	t.Beginf("fetching %s", res.URL)

	if m.bucket == nil {
		t.Endf("failed to store %s: no bucket configured", res.Name)
		return
	}

	body, err := m.client.Get(ctx, res.URL)
	if err != nil {
		t.Endf("failed to fetch %s: %v", res.Name, err)
		return
	}
	defer body.Close()

	t.Logf("storing %s", res.Name)

	w, err := m.bucket.NewWriter(ctx, res.Name, nil)
	if err != nil {
		t.Endf("failed to open %s in bucket: %v", res.Name, err)
		return
	}

	n, err := io.Copy(w, body)
	if err != nil {
		w.Close()
		t.Endf("failed to store %s: %v", res.Name, err)
		return
	}
	if err := w.Close(); err != nil {
		t.Endf("failed to store %s: %v", res.Name, err)
		return
	}

	t.Endf("stored %s (%d bytes)", res.Name, n)
}

// expandIndex fetches a JSON index and submits one artifact task per
// entry, stored under the index resource's name. The extra tasks push the
// progress numerator past the manifest's resource count; the denominator
// is a display hint, not a cap.
func (m *Mirror) expandIndex(ctx context.Context, t *pool.Task, res config.Resource) {
	t.Beginf("reading index %s", res.URL)

	var entries []IndexEntry
	if err := m.client.GetJSON(ctx, res.URL, &entries); err != nil {
		t.Endf("failed to read index %s: %v", res.Name, err)
		return
	}

	t.Logf("index %s: %d entries", res.Name, len(entries))

	queued := 0
	for _, e := range entries {
		if e.Name == "" || e.URL == "" {
			t.Logf("index %s: skipping entry with missing name or url", res.Name)
			continue
		}
		m.Fetch(ctx, config.Resource{
			Name: path.Join(res.Name, e.Name),
			Type: config.ResourceHTTP,
			URL:  e.URL,
		})
		queued++
	}

	t.Endf("index %s: queued %d artifacts", res.Name, queued)
}

// firstLine trims command output to its first non-empty line, keeping
// failure messages on one row of the log.
func firstLine(out []byte) string {
	out = bytes.TrimSpace(out)
	if i := bytes.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	return string(out)
}

package upload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/catalog-admin/internal/domain"
)

// DefaultConcurrency bounds the number of parallel uploads in a batch.
const DefaultConcurrency = 4

// Config selects and configures a Store driver.
type Config struct {
	Driver           string
	CloudinaryURL    string
	CloudinaryFolder string
	MemoryBaseURL    string
}

// New builds the Store named by cfg.Driver.
func New(cfg Config, backend BackendUploader) (Store, error) {
	switch cfg.Driver {
	case DriverBackend, "":
		return NewBackendStore(backend), nil
	case DriverCloudinary:
		return NewCloudinaryStore(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	case DriverMemory:
		return NewMemoryStore(cfg.MemoryBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown upload driver %q", cfg.Driver)
	}
}

// Options tunes Batch.
type Options struct {
	Concurrency int
	MaxSize     int64
	// Progress is called after each file finishes, successfully or not.
	Progress func(done, total int)
}

// DefaultOptions returns the standard batch settings.
func DefaultOptions() Options {
	return Options{Concurrency: DefaultConcurrency, MaxSize: MaxFileSize}
}

// Result is the outcome for one file, in the order files were given.
type Result struct {
	Filename string `json:"filename"`
	Asset    Asset  `json:"asset,omitempty"`
	Err      error  `json:"-"`
}

// Batch uploads files concurrently. A failed file never stops its siblings.
// Files failing the type or size check are rejected without a network call.
func Batch(ctx context.Context, store Store, files []File, opts Options, logger *slog.Logger) []Result {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	results := make([]Result, len(files))
	var (
		mu   sync.Mutex
		done int
	)
	finish := func() {
		if opts.Progress == nil {
			return
		}
		mu.Lock()
		done++
		n := done
		mu.Unlock()
		opts.Progress(n, len(files))
	}

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for i, f := range files {
		results[i].Filename = f.Filename
		if err := Check(f, opts.MaxSize); err != nil {
			results[i].Err = err
			finish()
			continue
		}

		g.Go(func() error {
			defer finish()
			if err := ctx.Err(); err != nil {
				results[i].Err = &domain.UploadError{Filename: f.Filename, Err: err}
				return nil
			}

			asset, err := store.Upload(ctx, f)
			if err != nil {
				logger.WarnContext(ctx, "image upload failed",
					slog.String("filename", f.Filename),
					slog.String("error", err.Error()),
				)
				results[i].Err = err
				return nil
			}
			results[i].Asset = asset
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Succeeded returns the uploaded assets in file order.
func Succeeded(results []Result) []Asset {
	var out []Asset
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Asset)
		}
	}
	return out
}

// Failures maps each failed filename to its error message.
func Failures(results []Result) map[string]string {
	out := make(map[string]string)
	for _, r := range results {
		if r.Err != nil {
			out[r.Filename] = r.Err.Error()
		}
	}
	return out
}

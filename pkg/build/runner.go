package build

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/coffersys/coffer/pkg/cache"
	"github.com/coffersys/coffer/pkg/container"
	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/imports"
	"github.com/coffersys/coffer/pkg/link"
	"github.com/coffersys/coffer/pkg/object"
	"github.com/coffersys/coffer/pkg/observability"
	"github.com/coffersys/coffer/pkg/preload"
	"github.com/coffersys/coffer/pkg/sorter"
	"github.com/coffersys/coffer/pkg/tagger"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store build results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete tag → sort → encode → write pipeline with
// caching. Cancellation is checked between stages; a stage that has started
// runs to completion.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	hooks := observability.Build()

	result := &Result{}

	// Stage 1: Tag
	tagStart := time.Now()
	hooks.OnTagStart(ctx, opts.Container)
	tag, err := tagger.Run(opts.Provider, opts.Roots, opts.taggerOptions())
	result.Stats.TagTime = time.Since(tagStart)
	hooks.OnTagComplete(ctx, opts.Container, exportCount(tag), importCount(tag), result.Stats.TagTime, err)
	if err != nil {
		return nil, err
	}
	result.Stats.ExportCount = len(tag.Exports)
	result.Stats.ImportCount = len(tag.Imports)
	result.GraphHash = hashResult(tag)

	opts.Logger.Info("tagged graph",
		"exports", len(tag.Exports),
		"imports", len(tag.Imports),
		"duration", result.Stats.TagTime)

	cacheKey := r.Keyer.BuildKey(result.GraphHash, cache.BuildKeyOpts{
		Profile:  opts.Profile.String(),
		Compress: opts.Compress,
		Version:  container.Version,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if f, err := container.Read(bytes.NewReader(data)); err == nil {
				observability.Cache().OnCacheHit(ctx, "build")
				opts.Logger.Debug("build served from cache", "key", cacheKey)
				result.Tables = f.Tables
				result.Blob = data
				result.Stats.BlobSize = len(data)
				result.CacheInfo.BuildHit = true
				return result, nil
			}
			// Corrupt entry: fall through and rebuild.
		}
		observability.Cache().OnCacheMiss(ctx, "build")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: Sort
	sortStart := time.Now()
	hooks.OnSortStart(ctx, opts.Container, len(tag.Exports))
	seq, err := sorter.Sort(tag, opts.Core, opts.Logger)
	if err == nil {
		err = sorter.Verify(seq, opts.Core)
	}
	result.Stats.SortTime = time.Since(sortStart)
	hooks.OnSortComplete(ctx, opts.Container, result.Stats.SortTime, err)
	if err != nil {
		return nil, err
	}
	result.Sequence = seq

	opts.Logger.Info("sorted exports",
		"count", len(seq),
		"duration", result.Stats.SortTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: Encode
	encodeStart := time.Now()
	hooks.OnEncodeStart(ctx, opts.Container)
	imps, err := imports.Build(tag, opts.Logger)
	if err != nil {
		hooks.OnEncodeComplete(ctx, opts.Container, 0, time.Since(encodeStart), err)
		return nil, err
	}
	tables, err := Assemble(opts.Container, seq, imps)
	if err != nil {
		hooks.OnEncodeComplete(ctx, opts.Container, 0, time.Since(encodeStart), err)
		return nil, err
	}
	preload.Encode(tables, tag.Objects, opts.Core, opts.Logger)
	result.Tables = tables
	result.Stats.EncodeTime = time.Since(encodeStart)
	result.Stats.EdgeCount = edgeCount(tables)
	hooks.OnEncodeComplete(ctx, opts.Container, result.Stats.EdgeCount, result.Stats.EncodeTime, nil)

	opts.Logger.Info("encoded dependencies",
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.EncodeTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: Write
	writeStart := time.Now()
	hooks.OnWriteStart(ctx, opts.Container)
	blob, err := r.write(seq, tables, opts)
	result.Stats.WriteTime = time.Since(writeStart)
	hooks.OnWriteComplete(ctx, opts.Container, len(blob), result.Stats.WriteTime, err)
	if err != nil {
		return nil, err
	}
	result.Blob = blob
	result.Stats.BlobSize = len(blob)

	opts.Logger.Info("wrote container",
		"bytes", len(blob),
		"compressed", opts.Compress,
		"duration", result.Stats.WriteTime)

	if err := r.Cache.Set(ctx, cacheKey, blob, 0); err != nil {
		opts.Logger.Warn("caching build failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "build", len(blob))
	}

	return result, nil
}

// write serializes payloads and assembles the container blob.
func (r *Runner) write(seq []object.Object, tables *link.Tables, opts Options) ([]byte, error) {
	var payloads [][]byte
	if opts.Serializer != nil {
		payloads = make([][]byte, len(seq))
		for i, obj := range seq {
			data, err := opts.Serializer(obj)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "serialize %s", obj.Identity())
			}
			payloads[i] = data
		}
	}

	var buf bytes.Buffer
	if err := container.Write(&buf, tables, payloads, container.Options{Compress: opts.Compress}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func edgeCount(tables *link.Tables) int {
	n := 0
	for i := range tables.Deps {
		n += tables.Deps[i].Total()
	}
	return n
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
// Must run before option validation, which installs a discard logger
// for options that carry none.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func exportCount(res *tagger.Result) int {
	if res == nil {
		return 0
	}
	return len(res.Exports)
}

func importCount(res *tagger.Result) int {
	if res == nil {
		return 0
	}
	return len(res.Imports)
}

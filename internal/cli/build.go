package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/coffersys/coffer/pkg/build"
	"github.com/coffersys/coffer/pkg/cache"
	"github.com/coffersys/coffer/pkg/manifest"
	"github.com/coffersys/coffer/pkg/tagger"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	output   string // output file path (derived from the manifest if empty)
	profile  string // target profile (runtime or editor)
	compress bool   // zstd-compress the payload region
	refresh  bool   // bypass the build cache
	noCache  bool   // disable the build cache entirely
}

// newBuildCmd creates the build command.
//
// Default options:
//   - profile: runtime (editor-only objects are stripped)
//   - output: the manifest path with a .coffer extension
func newBuildCmd() *cobra.Command {
	opts := buildOpts{profile: "runtime"}

	cmd := &cobra.Command{
		Use:   "build <manifest.toml>",
		Short: "Build a container from a manifest graph description",
		Long: `Build a container from a manifest graph description.

The manifest declares the container's objects; the build partitions everything
reachable from the declared roots into exports and imports, orders the exports,
encodes the preload dependency tables and writes the container file.

Examples:
  coffer build props.toml
  coffer build props.toml -o build/props.coffer --compress
  coffer build props.toml --profile editor`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runBuild(c.Context(), &opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: manifest name with .coffer extension)")
	cmd.Flags().StringVar(&opts.profile, "profile", opts.profile, "target profile: runtime or editor")
	cmd.Flags().BoolVar(&opts.compress, "compress", false, "zstd-compress the payload region")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the build cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the build cache")

	return cmd
}

// runBuild loads the manifest, runs the pipeline, and writes the container.
func runBuild(ctx context.Context, opts *buildOpts, path string) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	profile, err := tagger.ParseProfile(opts.profile)
	if err != nil {
		return err
	}

	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	logger.Debug("loaded manifest", "container", m.Container, "objects", m.Graph.Len())

	// Keys are scoped per container so projects sharing the cache
	// directory stay distinguishable.
	keyer := cache.NewScopedKeyer(nil, m.Container+":")
	runner := build.NewRunner(openCache(opts.noCache, logger), keyer, logger)
	defer runner.Close()

	result, err := runner.Execute(ctx, build.Options{
		Provider:  m.Graph,
		Roots:     m.Roots,
		Container: m.Container,
		Core:      m.Core,
		Profile:   profile,
		Compress:  opts.compress,
		Refresh:   opts.refresh,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".coffer"
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(output, result.Blob, 0o644); err != nil {
		return err
	}

	printSuccess("Built container %s", m.Container)
	printFile(output)
	printStats(len(result.Tables.Exports), len(result.Tables.Imports),
		result.Stats.EdgeCount, result.CacheInfo.BuildHit)
	prog.done(fmt.Sprintf("Wrote %d bytes", len(result.Blob)))
	return nil
}

// openCache opens the file-backed build cache, degrading to no caching when
// disabled or unavailable.
func openCache(disabled bool, logger *log.Logger) cache.Cache {
	if disabled {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err == nil {
		var c cache.Cache
		if c, err = cache.NewFileCache(dir); err == nil {
			return c
		}
	}
	logger.Warnf("Build cache disabled: %v", err)
	return cache.NewNullCache()
}

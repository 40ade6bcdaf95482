package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coffersys/coffer/pkg/build"
	"github.com/coffersys/coffer/pkg/cache"
	"github.com/coffersys/coffer/pkg/dot"
	"github.com/coffersys/coffer/pkg/manifest"
	"github.com/coffersys/coffer/pkg/observability"
	"github.com/coffersys/coffer/pkg/tagger"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	svg      bool   // render SVG instead of printing DOT
	output   string // output file (stdout for DOT if empty)
	detailed bool   // include positions and flags in node labels
	rankdir  string // graphviz layout direction
	profile  string // target profile
	noCache  bool   // disable build and render caching
}

// newGraphCmd creates the graph command.
func newGraphCmd() *cobra.Command {
	opts := graphOpts{rankdir: "TB", profile: "runtime"}

	cmd := &cobra.Command{
		Use:   "graph <manifest.toml>",
		Short: "Render the preload dependency graph",
		Long: `Render the preload dependency graph of a build.

Runs the pipeline up to dependency encoding and renders the resulting tables
as a Graphviz diagram. Without --svg the DOT source is printed to stdout.

Examples:
  coffer graph props.toml
  coffer graph props.toml --svg -o props.svg
  coffer graph props.toml --detailed --rankdir LR`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runGraph(c.Context(), &opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.svg, "svg", false, "render SVG via graphviz")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include positions and flags in labels")
	cmd.Flags().StringVar(&opts.rankdir, "rankdir", opts.rankdir, "graphviz layout direction (TB, LR, BT, RL)")
	cmd.Flags().StringVar(&opts.profile, "profile", opts.profile, "target profile: runtime or editor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable build and render caching")

	return cmd
}

func runGraph(ctx context.Context, opts *graphOpts, path string) error {
	logger := loggerFromContext(ctx)

	profile, err := tagger.ParseProfile(opts.profile)
	if err != nil {
		return err
	}

	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	c := openCache(opts.noCache, logger)
	keyer := cache.NewScopedKeyer(nil, m.Container+":")
	runner := build.NewRunner(c, keyer, logger)
	defer runner.Close()

	result, err := runner.Execute(ctx, build.Options{
		Provider:  m.Graph,
		Roots:     m.Roots,
		Container: m.Container,
		Core:      m.Core,
		Profile:   profile,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	src := dot.ToDOT(result.Tables, dot.Options{
		Detailed: opts.detailed,
		RankDir:  opts.rankdir,
	})

	if !opts.svg {
		if opts.output == "" {
			fmt.Print(src)
			return nil
		}
		if err := os.WriteFile(opts.output, []byte(src), 0o644); err != nil {
			return err
		}
		printSuccess("Wrote DOT graph")
		printFile(opts.output)
		return nil
	}

	// Layout is the expensive part of SVG output, so rendered artifacts
	// are cached alongside builds, keyed by graph hash and render options.
	key := keyer.RenderKey(result.GraphHash, cache.RenderKeyOpts{
		Format:   "svg",
		RankDir:  opts.rankdir,
		Detailed: opts.detailed,
	})
	svg, hit, err := c.Get(ctx, key)
	if err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "render")
		logger.Debug("render served from cache", "key", key)
	} else {
		observability.Cache().OnCacheMiss(ctx, "render")
		if svg, err = dot.RenderSVG(ctx, src); err != nil {
			return err
		}
		if err := c.Set(ctx, key, svg, 0); err == nil {
			observability.Cache().OnCacheSet(ctx, "render", len(svg))
		}
	}
	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".svg"
	}
	if err := os.WriteFile(output, svg, 0o644); err != nil {
		return err
	}

	printSuccess("Rendered dependency graph for %s", m.Container)
	printFile(output)
	return nil
}

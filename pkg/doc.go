// Package pkg provides the core libraries for Coffer container linking.
//
// # Overview
//
// Coffer turns an in-memory object graph into a relocatable binary container
// that a loader can stream in without fixups: exports arrive in dependency
// order, cross-container references are indirected through an import table,
// and preload dependency lists tell the loader which objects must exist or
// be fully serialized before others can be created.
//
// # Architecture
//
// The typical data flow through a build:
//
//	Object graph (manifest or engine-provided Provider)
//	         ↓
//	    [tagger] package (partition into exports and imports)
//	         ↓
//	    [sorter] package (dependency-ordered export sequence)
//	         ↓
//	    [imports] + [preload] packages (import table + dependency encoding)
//	         ↓
//	    [container] package (binary container output)
//
// # Main Packages
//
// ## Core Domain Logic
//
// [object] - The object model: identities, flags, the Provider interface,
// and an in-memory Graph used by manifests and tests. Includes the core
// bootstrap type set that breaks the type-is-an-instance-of-type cycle.
//
// [tagger] - Reachability tagging. Walks the graph from the build roots,
// applies the profile exclusion policy, rescues force-loaded exclusions and
// partitions the survivors into exports and imports.
//
// [sorter] - The topological insertion sort producing the export sequence.
// Types precede their instances, supers precede subtypes, and each type's
// default instance sits directly behind it.
//
// [imports] - Import table construction and cross-container reference
// validation.
//
// [preload] - Per-export preload dependency encoding across the four
// dependency kinds, with subsumption between them.
//
// [link] - The shared table model: packed indices, export/import records
// and dependency sets.
//
// [container] - The binary container format: header, name table, tables,
// dependency edges and the optionally compressed payload region.
//
// [nametable] - String interning with stable indices and xxhash lookup.
//
// ## Orchestration
//
// [build] - The complete tag → sort → encode → write pipeline used by the
// CLI and by embedding engines. Ensures consistent behavior across entry
// points and caches finished builds.
//
// [manifest] - TOML graph descriptions for the CLI and tests.
//
// [dot] - Graphviz rendering of the dependency tables.
//
// ## Infrastructure
//
// [cache] - Build cache with file-backed and null implementations.
//
// [observability] - Hooks for metrics and tracing without hard backend
// dependencies.
//
// [errors] - Structured error codes and reference-chain reporting.
//
// [buildinfo] - ldflags-injected version information.
//
// # Quick Start
//
// Build a container from a manifest:
//
//	res, _ := manifest.Load("props.toml")
//	runner := build.NewRunner(nil, nil, logger)
//	result, _ := runner.Execute(ctx, build.Options{
//	    Provider:  res.Graph,
//	    Roots:     res.Roots,
//	    Container: res.Container,
//	    Core:      res.Core,
//	})
//	os.WriteFile("props.coffer", result.Blob, 0o644)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/sorter/...   # Specific package
//
// [object]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/object
// [tagger]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/tagger
// [sorter]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/sorter
// [imports]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/imports
// [preload]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/preload
// [link]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/link
// [container]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/container
// [nametable]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/nametable
// [build]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/build
// [manifest]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/manifest
// [dot]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/dot
// [cache]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/cache
// [observability]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/observability
// [errors]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/coffersys/coffer/pkg/buildinfo
package pkg

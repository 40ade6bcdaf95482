// Package build provides the container build pipeline.
//
// This package implements the complete tag → sort → encode → write pipeline
// that turns an object graph into a finished container. By centralizing this
// logic, the CLI and embedding engines share one code path and one cache.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Tag: partition the reachable graph into exports and imports
//  2. Sort: order the exports so dependencies precede dependents
//  3. Encode: derive the per-export preload dependency lists
//  4. Write: serialize tables and payloads into the container format
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := build.NewRunner(cache, nil, logger)
//	opts := build.Options{
//	    Provider:  graph,
//	    Roots:     roots,
//	    Container: "game/props",
//	    Core:      core,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	blob := result.Blob
package build

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/link"
	"github.com/coffersys/coffer/pkg/object"
	"github.com/coffersys/coffer/pkg/tagger"
)

// Serializer produces the payload bytes of one export. The pipeline itself
// never interprets payloads; engines plug their own serialization in here.
// A nil Serializer produces a headers-only container.
type Serializer func(obj object.Object) ([]byte, error)

// Options contains all configuration for one container build.
type Options struct {
	// Provider resolves object identities. Required.
	Provider object.Provider

	// Roots are the objects the build starts from. Required.
	Roots []object.Ref

	// Container is the name of the container being built. Required.
	Container string

	// Core is the bootstrap type set. Required.
	Core *object.CoreTypes

	// Profile selects the target profile. Defaults to ProfileRuntime.
	Profile tagger.Profile

	// Policy overrides the exclusion policy. Defaults to
	// tagger.DefaultPolicy.
	Policy tagger.Policy

	// Serializer produces export payloads. Nil writes a headers-only
	// container.
	Serializer Serializer

	// Compress enables zstd compression of the payload region.
	Compress bool

	// Refresh bypasses the build cache.
	Refresh bool

	// Logger defaults to a discard logger.
	Logger *log.Logger

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Provider == nil {
		return errors.New(errors.ErrCodeInvalidOptions, "provider is required")
	}
	if len(o.Roots) == 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "at least one root is required")
	}
	if err := errors.ValidateContainerName(o.Container); err != nil {
		return err
	}
	if o.Core == nil {
		return errors.New(errors.ErrCodeInvalidOptions, "core type set is required")
	}
	if o.Policy == nil {
		o.Policy = tagger.DefaultPolicy()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// taggerOptions projects the build options onto the tagging stage.
func (o *Options) taggerOptions() tagger.Options {
	return tagger.Options{
		Container: o.Container,
		Profile:   o.Profile,
		Policy:    o.Policy,
		Logger:    o.Logger,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tables are the assembled link tables.
	Tables *link.Tables

	// Sequence is the sorted export sequence. Nil when the build was
	// served from cache.
	Sequence []object.Object

	// Blob is the finished container.
	Blob []byte

	// GraphHash is the content hash of the tagged graph.
	GraphHash string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the build came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ExportCount int
	ImportCount int
	EdgeCount   int
	BlobSize    int

	TagTime    time.Duration
	SortTime   time.Duration
	EncodeTime time.Duration
	WriteTime  time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	BuildHit bool // Whether the finished container came from cache
}

// Package processor provides a composable violation processing pipeline.
//
// The processor chain pattern is inspired by golangci-lint's approach:
// violations flow through a sequence of processors, each transforming the
// slice (filtering, modifying, or augmenting).
//
// Standard pipeline order:
//  1. PathNormalization - cross-platform path consistency
//  2. EnableFilter - remove violations for disabled rules
//  3. SeverityOverride - apply config severity overrides
//  4. PathExclusionFilter - remove per-rule path exclusions
//  5. InlineDirectiveFilter - apply rumdl-disable/-enable comments
//  6. Supersession - drop cosmetic violations an error already covers
//  7. Deduplication - remove duplicate violations
//  8. Sorting - stable output ordering
//  9. SnippetAttachment - populate SourceCode field
package processor

import (
	"github.com/rumdl-go/rumdl/internal/buffer"
	"github.com/rumdl-go/rumdl/internal/config"
	"github.com/rumdl-go/rumdl/internal/directive"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// Processor transforms a slice of violations. Implementations should be
// stateless where possible, using Context for shared state.
type Processor interface {
	// Name returns the processor's identifier (for debugging/logging).
	Name() string

	// Process applies the processor's logic to violations. Returns the
	// transformed slice (may be same, filtered, or modified). Must not
	// modify the input slice; return a new slice if filtering.
	Process(violations []rules.Violation, ctx *Context) []rules.Violation
}

// Context provides shared state for processors, populated once before
// running the chain.
type Context struct {
	// Config is the base configuration (used when per-file discovery is
	// disabled or as the fallback when a file has no closer config).
	Config *config.Config

	// DiscoverPerFile enables per-file closest-config discovery, the way
	// a directory-wide lint run needs when subdirectories carry their own
	// .rumdl.toml.
	DiscoverPerFile bool

	// FileSources maps file paths to their raw source content, used by
	// SnippetAttachment for extracting source code.
	FileSources map[string][]byte

	// Directives maps file paths to the inline suppression directives
	// parsed from that file, consumed by InlineDirectiveFilter.
	Directives map[string][]directive.Directive

	buffers     map[string]*buffer.Buffer
	fileConfigs map[string]*config.Config
}

// NewContext creates a new processor context.
func NewContext(cfg *config.Config, fileSources map[string][]byte) *Context {
	return &Context{
		Config:      cfg,
		FileSources: fileSources,
		buffers:     make(map[string]*buffer.Buffer),
		fileConfigs: make(map[string]*config.Config),
	}
}

// GetBuffer returns or creates a Buffer for the given file. Returns nil if
// the file is not in FileSources.
func (ctx *Context) GetBuffer(file string) *buffer.Buffer {
	if b, ok := ctx.buffers[file]; ok {
		return b
	}
	source, ok := ctx.FileSources[file]
	if !ok {
		return nil
	}
	b := buffer.New(source)
	ctx.buffers[file] = b
	return b
}

// ConfigForFile returns the effective configuration for a file: the
// base Config, or -- when DiscoverPerFile is set -- the closest
// .rumdl.toml/rumdl.toml to that file if one exists and differs from the
// base config's own discovery root. Results are cached per file.
func (ctx *Context) ConfigForFile(file string) *config.Config {
	if !ctx.DiscoverPerFile {
		return ctx.Config
	}
	if cfg, ok := ctx.fileConfigs[file]; ok {
		return cfg
	}

	cfg := ctx.Config
	if path := config.Discover(file); path != "" {
		if loaded, err := config.LoadFromFile(path); err == nil {
			cfg = loaded
		}
	}
	ctx.fileConfigs[file] = cfg
	return cfg
}

// Chain runs processors in sequence.
type Chain struct {
	processors []Processor
}

// NewChain creates a new processor chain.
func NewChain(processors ...Processor) *Chain {
	return &Chain{processors: processors}
}

// Process runs all processors in sequence.
func (c *Chain) Process(violations []rules.Violation, ctx *Context) []rules.Violation {
	for _, p := range c.processors {
		violations = p.Process(violations, ctx)
	}
	return violations
}

// DefaultChain builds the standard pipeline in its documented order.
func DefaultChain() *Chain {
	return NewChain(
		NewPathNormalization(),
		NewEnableFilter(),
		NewSeverityOverride(),
		NewPathExclusionFilter(),
		NewInlineDirectiveFilter(),
		NewSupersession(),
		NewDeduplication(),
		NewSorting(),
		NewSnippetAttachment(),
	)
}

// filterViolations is a helper for processors that filter violations. It
// returns a new slice containing only violations where keep() returns true.
func filterViolations(violations []rules.Violation, keep func(v rules.Violation) bool) []rules.Violation {
	result := make([]rules.Violation, 0, len(violations))
	for _, v := range violations {
		if keep(v) {
			result = append(result, v)
		}
	}
	return result
}

// transformViolations is a helper for processors that modify violations.
// It returns a new slice with each violation transformed by transform().
func transformViolations(
	violations []rules.Violation,
	transform func(v rules.Violation) rules.Violation,
) []rules.Violation {
	result := make([]rules.Violation, len(violations))
	for i, v := range violations {
		result[i] = transform(v)
	}
	return result
}

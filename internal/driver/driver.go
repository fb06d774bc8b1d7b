// Package driver orchestrates a full lint run: discovering files, resolving
// per-file configuration, linting against the Lint Cache, optionally
// applying fixes through the Fix Coordinator, running the violation
// processor chain, and deciding the process exit code.
//
// Grounded on tally's cmd/tally/cmd/lint.go orchestration (config-per-file
// discovery, processor.Chain, exit code constants) combined with the
// worker-pool-per-file shape of gomdlint's LinterService.LintFiles,
// reimplemented with golang.org/x/sync/errgroup bounding concurrency to
// runtime.GOMAXPROCS(0) instead of a raw channel/WaitGroup pool.
package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rumdl-go/rumdl/internal/cache"
	"github.com/rumdl-go/rumdl/internal/config"
	"github.com/rumdl-go/rumdl/internal/directive"
	"github.com/rumdl-go/rumdl/internal/discovery"
	"github.com/rumdl-go/rumdl/internal/fix"
	"github.com/rumdl-go/rumdl/internal/flavor"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/processor"
	"github.com/rumdl-go/rumdl/internal/rules"
	"github.com/rumdl-go/rumdl/internal/version"
)

// Exit codes. There is no dedicated "no files found" code: an empty
// discovery result is a configuration problem (bad inputs/patterns) and
// folds into ExitConfigError.
const (
	ExitSuccess     = 0
	ExitViolations  = 1
	ExitConfigError = 2
)

// ErrNoFilesFound is returned by Run when discovery produced zero files.
var ErrNoFilesFound = errors.New("no markdown files found")

// Options configures a Run.
type Options struct {
	// Inputs are file paths, directories, or glob patterns to discover.
	Inputs []string

	// Discovery configures file discovery (patterns, excludes, gitignore).
	Discovery discovery.Options

	// Config is the base configuration. Every file uses it directly unless
	// DiscoverPerFile is set. Defaults to config.Default() when nil.
	Config *config.Config

	// DiscoverPerFile re-resolves the closest project config for each
	// discovered file instead of sharing Config across the whole run,
	// needed for a monorepo with per-directory .rumdl.toml files.
	DiscoverPerFile bool

	// Registry is the rule set to run. Defaults to rules.DefaultRegistry().
	Registry *rules.Registry

	// Cache is the Lint Cache. Defaults to cache.New("").
	Cache *cache.Cache

	// NoCache disables cache reads and writes for this run regardless of
	// what Cache.Disabled is already set to.
	NoCache bool

	// Fix runs the Fix Coordinator against every file before reporting.
	Fix bool

	// FixUnsafe raises the Fix Coordinator's safety threshold to apply
	// FixUnsafe fixes and rules configured FixModeUnsafeOnly.
	FixUnsafe bool

	// FixRuleFilter restricts --fix/--fix-unsafe to these rule codes. Empty
	// means every eligible rule.
	FixRuleFilter []string
}

// Result aggregates the outcome of a run across every discovered file.
type Result struct {
	// Violations is the final, processed violation list, ready to report.
	Violations []rules.Violation

	// FileSources holds each linted file's content, post-fix if Fix ran.
	FileSources map[string][]byte

	// FilesScanned is the number of files discovery found.
	FilesScanned int

	// FilesFixed is the number of files the Fix Coordinator changed.
	FilesFixed int

	// FixChanges holds one FileChange per file when Options.Fix is set.
	FixChanges []*fix.FileChange

	// RulesEnabled is the number of rules enabled under the base config,
	// reported as run metadata (an --include/--exclude selection narrower
	// than the full registry shows up here).
	RulesEnabled int
}

// Run discovers files, lints them, optionally fixes them, and returns the
// processed violation set. Returns ErrNoFilesFound when discovery matches
// nothing; the caller maps that to ExitConfigError.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cache.EngineVersion = version.RawVersion()

	reg := opts.Registry
	if reg == nil {
		reg = rules.DefaultRegistry()
	}
	baseCfg := opts.Config
	if baseCfg == nil {
		baseCfg = config.Default()
	}
	lintCache := opts.Cache
	if lintCache == nil {
		lintCache = cache.New("")
	}
	if opts.NoCache {
		lintCache.Disabled = true
	}

	discovered, err := discovery.Discover(opts.Inputs, opts.Discovery)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	if len(discovered) == 0 {
		return nil, ErrNoFilesFound
	}

	results := make([]fileResult, len(discovered))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, df := range discovered {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = lintOneFile(df, opts, baseCfg, reg, lintCache)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("lint run: %w", err)
	}

	res := &Result{
		FileSources: make(map[string][]byte, len(results)),
	}
	directivesByFile := make(map[string][]directive.Directive, len(results))
	for _, fr := range results {
		res.Violations = append(res.Violations, fr.violations...)
		res.FileSources[fr.path] = fr.source
		if len(fr.directives) > 0 {
			directivesByFile[fr.path] = fr.directives
		}
		if fr.fixChange != nil {
			res.FixChanges = append(res.FixChanges, fr.fixChange)
			if fr.fixChange.HasChanges() {
				res.FilesFixed++
			}
		}
	}
	res.FilesScanned = len(discovered)
	res.RulesEnabled = countEnabled(ruleFingerprint(reg, baseCfg))

	procCtx := processor.NewContext(baseCfg, res.FileSources)
	procCtx.DiscoverPerFile = opts.DiscoverPerFile
	procCtx.Directives = directivesByFile
	res.Violations = processor.DefaultChain().Process(res.Violations, procCtx)

	return res, nil
}

type fileResult struct {
	path       string
	source     []byte
	violations []rules.Violation
	directives []directive.Directive
	fixChange  *fix.FileChange
}

func lintOneFile(
	df discovery.DiscoveredFile,
	opts Options,
	baseCfg *config.Config,
	reg *rules.Registry,
	lintCache *cache.Cache,
) fileResult {
	path := df.Path

	content, err := os.ReadFile(path)
	if err != nil {
		return fileResult{path: path, violations: []rules.Violation{
			rules.NewViolation(rules.NewFileLocation(path), "driver/io-error", err.Error(), rules.SeverityError),
		}}
	}

	cfg, err := resolveFileConfig(path, baseCfg, opts.DiscoverPerFile)
	if err != nil {
		return fileResult{path: path, source: content, violations: []rules.Violation{
			rules.NewViolation(rules.NewFileLocation(path), "driver/config-error", err.Error(), rules.SeverityError),
		}}
	}

	profile := flavor.ForFile(path, flavor.Flavor(cfg.Flavor))

	if !opts.Fix {
		return lintContent(path, content, cfg, profile, reg, lintCache)
	}

	coordinator := newFixCoordinator(reg, cfg, opts)
	change := coordinator.Fix(path, content, profile)
	if change.HasChanges() {
		mode := os.FileMode(0o644)
		if info, statErr := os.Stat(path); statErr == nil {
			mode = info.Mode().Perm()
		}
		if writeErr := os.WriteFile(path, change.ModifiedContent, mode); writeErr != nil {
			result := fileResult{path: path, source: content, fixChange: change}
			result.violations = []rules.Violation{
				rules.NewViolation(rules.NewFileLocation(path), "driver/write-error", writeErr.Error(), rules.SeverityError),
			}
			return result
		}
		content = change.ModifiedContent
	}

	result := lintContent(path, content, cfg, profile, reg, lintCache)
	result.fixChange = change
	return result
}

func newFixCoordinator(reg *rules.Registry, cfg *config.Config, opts Options) *fix.Coordinator {
	coordinator := fix.NewCoordinator(reg)
	coordinator.FixModes = fix.BuildFixModes(cfg)
	coordinator.UnsafeAllowed = opts.FixUnsafe
	coordinator.ResolveConfig = func(code string) any { return ruleTypedConfig(code, &cfg.Rules) }
	if opts.FixUnsafe {
		coordinator.SafetyThreshold = rules.FixUnsafe
	}
	if len(opts.FixRuleFilter) > 0 {
		filter := make(map[string]bool, len(opts.FixRuleFilter))
		for _, code := range opts.FixRuleFilter {
			filter[code] = true
		}
		coordinator.RuleFilter = filter
	}
	return coordinator
}

// resolveFileConfig returns the per-file effective Config: base, unless
// DiscoverPerFile asks for closest-project-config discovery.
func resolveFileConfig(path string, base *config.Config, discoverPerFile bool) (*config.Config, error) {
	if !discoverPerFile {
		return base, nil
	}
	return config.Load(path)
}

// lintContent runs every registered rule against content (or reuses a
// cached result), then parses inline directives. Directives are never
// cached since they don't depend on which rules are enabled.
func lintContent(
	path string,
	content []byte,
	cfg *config.Config,
	profile flavor.Profile,
	reg *rules.Registry,
	lintCache *cache.Cache,
) fileResult {
	fingerprint := ruleFingerprint(reg, cfg)
	cacheInput := make([]byte, 0, len(content)+64)
	cacheInput = append(cacheInput, content...)
	cacheInput = append(cacheInput, ruleOptionsDigest(reg, cfg)...)
	key := cache.Key(cacheInput, fingerprint)

	mdctx := mdcontext.New(content, profile)

	var violations []rules.Violation
	if cached, ok := lintCache.Get(key, fingerprint); ok {
		violations = cached
	} else {
		violations = checkAll(path, mdctx, content, reg, cfg)
		if putErr := lintCache.Put(context.Background(), key, fingerprint, violations); putErr != nil {
			logrus.WithError(putErr).WithField("file", path).Debug("lint cache write failed")
		}
	}

	parsed := parseDirectives(mdctx, reg, cfg)
	for _, perr := range parsed.Errors {
		violations = append(violations, rules.NewViolation(
			rules.NewLineLocation(path, perr.Line), "inline-directive", perr.Message, rules.SeverityWarning,
		))
	}

	return fileResult{path: path, source: content, violations: violations, directives: parsed.Directives}
}

func checkAll(path string, ctx *mdcontext.Context, content []byte, reg *rules.Registry, cfg *config.Config) []rules.Violation {
	var violations []rules.Violation
	for _, rule := range reg.All() {
		code := rule.Metadata().Code
		input := rules.LintInput{
			File:    path,
			Context: ctx,
			Source:  content,
			Config:  ruleTypedConfig(code, &cfg.Rules),
		}
		violations = append(violations, safeCheck(rule, input)...)
	}
	return violations
}

// ruleOptionsDigest serializes the resolved typed config of every rule the
// driver knows how to decode (see ruleTypedConfig), so the Lint Cache key
// changes whenever a rule's TOML options change and not just when the
// enabled/disabled set changes.
func ruleOptionsDigest(reg *rules.Registry, cfg *config.Config) []byte {
	var buf bytes.Buffer
	for _, rule := range reg.All() {
		code := rule.Metadata().Code
		typed := ruleTypedConfig(code, &cfg.Rules)
		if typed == nil {
			continue
		}
		data, err := json.Marshal(typed)
		if err != nil {
			continue
		}
		buf.WriteString(code)
		buf.Write(data)
	}
	return buf.Bytes()
}

// safeCheck wraps a rule's Check call so a single rule panicking never
// takes down the whole run: it's converted into an internal-error
// violation scoped to that rule, logged with structured fields.
func safeCheck(rule rules.Rule, input rules.LintInput) (violations []rules.Violation) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"rule":  rule.Metadata().Code,
				"file":  input.File,
				"panic": fmt.Sprint(r),
			}).Error("rule panicked")
			violations = []rules.Violation{
				rules.NewViolation(
					rules.NewFileLocation(input.File),
					rule.Metadata().Code,
					fmt.Sprintf("internal error: rule panicked: %v", r),
					rules.SeverityError,
				),
			}
		}
	}()
	return rule.Check(input)
}

func parseDirectives(ctx *mdcontext.Context, reg *rules.Registry, cfg *config.Config) *directive.ParseResult {
	if !cfg.InlineDirectives.Enabled {
		return &directive.ParseResult{}
	}
	var validator directive.RuleValidator
	if cfg.InlineDirectives.ValidateRules {
		validator = reg.Has
	}
	return directive.Parse(ctx, validator)
}

// ruleFingerprint records, for every registered rule, whether cfg leaves it
// enabled. Used for the Lint Cache key and for RulesEnabled reporting; it
// does not skip running any rule -- every rule always runs, and the
// processor chain's EnableFilter/SeverityOverride apply cfg afterward, the
// way tally's own linter always runs rules.All() and filters downstream.
func ruleFingerprint(reg *rules.Registry, cfg *config.Config) map[string]bool {
	fp := make(map[string]bool)
	for _, rule := range reg.All() {
		code := rule.Metadata().Code
		enabled := rule.Metadata().EnabledByDefault
		if e := cfg.Rules.IsEnabled(code); e != nil {
			enabled = *e
		}
		if cfg.Rules.GetSeverity(code) == "off" {
			enabled = false
		}
		fp[code] = enabled
	}
	return fp
}

func countEnabled(fingerprint map[string]bool) int {
	n := 0
	for _, enabled := range fingerprint {
		if enabled {
			n++
		}
	}
	return n
}

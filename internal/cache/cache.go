// Package cache implements the Lint Cache: a disk-persisted, content-keyed
// store of a file's diagnostics so a clean re-run can skip linting files
// whose content and effective rule configuration haven't changed.
//
// Entries live at <cache_root>/<engine_version>/<hex_hash>.json, where
// hex_hash is the BLAKE3 digest of the file's content plus a fingerprint of
// the enabled rule set and their configuration, so a config change
// invalidates exactly the entries it affects instead of the whole cache.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gofrs/flock"
	"github.com/zeebo/blake3"

	"github.com/rumdl-go/rumdl/internal/rules"
)

// EngineVersion namespaces cache entries by engine release so a rule
// rewrite or protocol change never reads stale entries from a prior
// version. Set via the version package at build time.
var EngineVersion = "dev"

// Entry is what gets persisted for one file.
type Entry struct {
	// RuleSetFingerprint records which rules produced Violations, each
	// tagged with whether it was enabled when this entry was written, so a
	// later read can drop violations from rules that have since been
	// disabled without invalidating the whole entry.
	RuleSetFingerprint map[string]bool `json:"ruleSetFingerprint"`
	Violations         []rules.Violation `json:"violations"`
	WrittenAt          int64             `json:"writtenAt"`
}

// Cache reads and writes Lint Cache entries under Root.
type Cache struct {
	Root     string
	Disabled bool
}

// DefaultRoot returns <user cache dir>/rumdl.
func DefaultRoot() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "rumdl-cache")
	}
	return filepath.Join(dir, "rumdl")
}

// New builds a Cache rooted at root, or DefaultRoot() if root is empty.
func New(root string) *Cache {
	if root == "" {
		root = DefaultRoot()
	}
	return &Cache{Root: root}
}

// Key computes the cache key for a file's content under the given rule
// fingerprint (rule code -> enabled, sorted deterministically by the
// caller before hashing). Two files with identical content and identical
// effective rule configuration hash to the same key.
func Key(content []byte, fingerprint map[string]bool) string {
	h := blake3.New()
	_, _ = h.Write(content)
	for _, code := range sortedKeys(fingerprint) {
		_, _ = h.Write([]byte(code))
		if fingerprint[code] {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.Root, EngineVersion, key+".json")
}

// Get looks up a cache entry. The second return value is false on a cache
// miss, a disabled cache, or a read/decode error (all treated as "lint it
// yourself"). Violations belonging to rules the fingerprint marks disabled
// are filtered out, so a freshly-disabled rule's stale violations never
// resurface from an old entry that is otherwise still valid.
func (c *Cache) Get(key string, fingerprint map[string]bool) ([]rules.Violation, bool) {
	if c.Disabled {
		return nil, false
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	filtered := entry.Violations[:0:0]
	for _, v := range entry.Violations {
		if fingerprint[v.RuleCode] {
			filtered = append(filtered, v)
		}
	}
	return filtered, true
}

// Put persists an entry, retrying transient filesystem errors (a
// concurrent writer briefly holding the directory, a full-but-recovering
// disk) with bounded exponential backoff. A failure to write is not fatal
// to linting, so Put's error is advisory -- callers typically log and
// continue.
func (c *Cache) Put(ctx context.Context, key string, fingerprint map[string]bool, violations []rules.Violation) error {
	if c.Disabled {
		return nil
	}
	dir := filepath.Join(c.Root, EngineVersion)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	entry := Entry{
		RuleSetFingerprint: fingerprint,
		Violations:         violations,
		WrittenAt:          time.Now().UnixNano(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	target := c.path(key)
	lock := flock.New(target + ".lock")

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		locked, lockErr := lock.TryLock()
		if lockErr != nil {
			return struct{}{}, lockErr
		}
		if !locked {
			return struct{}{}, errLockBusy
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(5))
	if err != nil {
		return err
	}
	defer lock.Unlock()

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

var errLockBusy = lockBusyError{}

type lockBusyError struct{}

func (lockBusyError) Error() string { return "cache entry lock busy" }

package sdkdb

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrMissingKey is wrapped by every KeyError, check with errors.Is
	ErrMissingKey = errors.New("entry has no install name")
	// ErrNotDatabase means a snapshot's top level isn't a mapping
	ErrNotDatabase = errors.New("snapshot is not a mapping")
	// ErrNotEntryList means a target's value isn't a sequence of entries
	ErrNotEntryList = errors.New("target is not a list of entries")
)

// KeyError describes an entry whose natural key can't be looked up
type KeyError struct {
	Target string // target list the entry belongs to, if known
	Side   string // "baseline" or "candidate"
	Index  int    // position of the entry in its list
	Path   string // dotted lookup path that failed
	// NoIndex is set when the entry was compared on its own, outside a list
	NoIndex bool
}

func (e *KeyError) Error() string {
	target := ""
	if e.Target != "" {
		target = fmt.Sprintf(" of target %q", e.Target)
	}
	entry := fmt.Sprintf(" %d", e.Index)
	if e.NoIndex {
		entry = ""
	}
	return fmt.Sprintf("%s entry%s%s: no string at %s: %s", e.Side, entry, target, e.Path, ErrMissingKey)
}

// Unwrap makes KeyError match ErrMissingKey
func (e *KeyError) Unwrap() error { return ErrMissingKey }

// AsDatabase asserts a decoded snapshot is a database mapping
func AsDatabase(v interface{}) (map[string]interface{}, error) {
	db, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNotDatabase, KindOf(v))
	}
	return db, nil
}

// IsPublic reports whether a database snapshot is flagged public. A missing
// or non-boolean flag means private
func (c *Comparator) IsPublic(snapshot map[string]interface{}) bool {
	public, _ := snapshot[c.cfg.PublicKey].(bool)
	return public
}

// IsPublic reports whether a database snapshot is flagged public, using the
// default "public" key
func IsPublic(snapshot map[string]interface{}) bool {
	return New().IsPublic(snapshot)
}

// CompareDatabase compares two database snapshots target by target. It stops
// at the first target that's missing from the candidate or whose entry list
// fails. A public baseline can only be compared to a public candidate
func (c *Comparator) CompareDatabase(baseline, candidate map[string]interface{}) (bool, error) {
	if _, ok := baseline[c.cfg.PublicKey]; ok && !c.IsPublic(candidate) {
		c.report(&Mismatch{Type: DTVisibility, Key: c.cfg.PublicKey})
		return false, nil
	}

	for _, key := range sortedKeys(baseline) {
		if key == c.cfg.PublicKey {
			continue
		}
		cv, ok := candidate[key]
		if !ok {
			c.report(&Mismatch{Type: DTMissingTarget, Key: key})
			return false, nil
		}

		base, ok := baseline[key].([]interface{})
		if !ok {
			return false, fmt.Errorf("baseline %q: %w", key, ErrNotEntryList)
		}
		cand, ok := cv.([]interface{})
		if !ok {
			return false, fmt.Errorf("candidate %q: %w", key, ErrNotEntryList)
		}

		if c.cfg.Stats != nil {
			c.cfg.Stats.Targets++
		}
		c.cfg.Logger.Debug("comparing target",
			zap.String("target", key),
			zap.Int("baseline_entries", len(base)),
			zap.Int("candidate_entries", len(cand)),
		)

		equal, err := c.compareEntryList(key, base, cand)
		if err != nil || !equal {
			return false, err
		}
	}
	return true, nil
}

// CompareEntryList matches entries by install name rather than position.
// Entries without an install name are never compared. A baseline entry
// missing from the candidate ends the comparison immediately. A failing entry
// is reported but only fails the list in strict mode
func (c *Comparator) CompareEntryList(baseline, candidate []interface{}) (bool, error) {
	return c.compareEntryList("", baseline, candidate)
}

func (c *Comparator) compareEntryList(target string, baseline, candidate []interface{}) (bool, error) {
	lookup := make(map[string]interface{}, len(candidate))
	for i, entry := range candidate {
		name, err := c.naturalKey(entry)
		if err != nil {
			return false, &KeyError{Target: target, Side: "candidate", Index: i, Path: strings.Join(c.cfg.KeyPath, ".")}
		}
		if name != "" {
			lookup[name] = entry
		}
	}

	equal := true
	for i, entry := range baseline {
		name, err := c.naturalKey(entry)
		if err != nil {
			return false, &KeyError{Target: target, Side: "baseline", Index: i, Path: strings.Join(c.cfg.KeyPath, ".")}
		}
		if name == "" {
			if c.cfg.Stats != nil {
				c.cfg.Stats.Skipped++
			}
			continue
		}

		match, ok := lookup[name]
		if !ok {
			if c.cfg.Stats != nil {
				c.cfg.Stats.Missing++
			}
			c.report(&Mismatch{Type: DTMissingEntry, Library: name})
			return false, nil
		}

		entryEqual, err := c.CompareEntry(entry, match)
		if err != nil {
			return false, err
		}
		if !entryEqual && c.cfg.Strict {
			equal = false
		}
	}
	return equal, nil
}

// CompareEntry compares two entries that share an install name, annotating
// any mismatch with the candidate's install name
func (c *Comparator) CompareEntry(baseline, candidate interface{}) (bool, error) {
	name, err := c.naturalKey(candidate)
	if err != nil {
		return false, &KeyError{Side: "candidate", Path: strings.Join(c.cfg.KeyPath, "."), NoIndex: true}
	}

	if c.cfg.Stats != nil {
		c.cfg.Stats.Entries++
	}
	if !c.Compare(baseline, candidate, "") {
		if c.cfg.Stats != nil {
			c.cfg.Stats.Mismatched++
		}
		c.report(&Mismatch{Type: DTLibrary, Library: name})
		return false, nil
	}
	return true, nil
}

// naturalKey walks KeyPath through nested mappings, returning the string found
// at the end
func (c *Comparator) naturalKey(entry interface{}) (string, error) {
	v := entry
	for _, field := range c.cfg.KeyPath {
		m, ok := v.(map[string]interface{})
		if !ok {
			return "", ErrMissingKey
		}
		if v, ok = m[field]; !ok {
			return "", ErrMissingKey
		}
	}
	name, ok := v.(string)
	if !ok {
		return "", ErrMissingKey
	}
	return name, nil
}

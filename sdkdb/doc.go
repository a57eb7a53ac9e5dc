// Package sdkdb compares SDK metadata databases, reporting where a candidate
// snapshot first diverges from a baseline. It's intended for catching
// regressions in the library & binary descriptors an SDK exports between
// versions.
//
// Like other structured differs, sdkdb doesn't operate on JSON directly but on
// document trees consisting of the go types created by unmarshaling, which
// are two compound types:
//
//	map[string]interface{}
//	[]interface{}
//
// and any scalar: string, float64 (or other go numbers, as decoded by YAML),
// bool, nil
//
// Comparison is baseline driven & stops at the first divergence in every
// subtree. Keys present only in the candidate, and trailing elements of the
// longer of two sequences, are never inspected. Every comparison dispatches
// on the kind of the candidate value, new kinds can be plugged in with
// OptionClassifier & OptionRule.
//
// A database snapshot is a mapping of target names to lists of entries plus
// an optional "public" flag. Entry lists are matched by install name
// (binaryInfo.installName) instead of by position:
//
//	c := sdkdb.New(sdkdb.OptionReporter(&sdkdb.TextReporter{W: os.Stdout}))
//	equal, err := c.CompareDatabase(baseline, candidate)
//
// TextReporter prints mismatches in the legacy one-line diagnostic format so
// existing log scrapers keep working, CollectReporter keeps them for JSON
// output.
package sdkdb

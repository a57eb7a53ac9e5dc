package sdkdb

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func mustList(t *testing.T, data string) []interface{} {
	t.Helper()
	var v []interface{}
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		t.Fatal(err)
	}
	return v
}

func mustDB(t *testing.T, data string) map[string]interface{} {
	t.Helper()
	var v map[string]interface{}
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCompareEntryList(t *testing.T) {
	cases := []struct {
		description     string
		base, candidate string
		strict          bool
		equal           bool
		output          string
		stats           Stats
	}{
		{
			"matches by install name, not position",
			`[{"binaryInfo":{"installName":"B"},"v":2},{"binaryInfo":{"installName":"A"},"v":1}]`,
			`[{"binaryInfo":{"installName":"A"},"v":1},{"binaryInfo":{"installName":"B"},"v":2}]`,
			false, true, "",
			Stats{Nodes: 8, Entries: 2},
		},
		{
			"failed entry doesn't fail the list",
			`[{"binaryInfo":{"installName":"A"},"v":1},{"binaryInfo":{"installName":"B"},"v":1}]`,
			`[{"binaryInfo":{"installName":"A"},"v":2},{"binaryInfo":{"installName":"B"},"v":1}]`,
			false, true, "SDKDB[v] is not equal: 1 vs 2 in library A\n",
			Stats{Nodes: 8, Entries: 2, Mismatched: 1},
		},
		{
			"strict mode fails the list after comparing every entry",
			`[{"binaryInfo":{"installName":"A"},"v":1},{"binaryInfo":{"installName":"B"},"v":1}]`,
			`[{"binaryInfo":{"installName":"A"},"v":2},{"binaryInfo":{"installName":"B"},"v":3}]`,
			true, false, "SDKDB[v] is not equal: 1 vs 2 in library A\nSDKDB[v] is not equal: 1 vs 3 in library B\n",
			Stats{Nodes: 8, Entries: 2, Mismatched: 2},
		},
		{
			"missing entry stops the list",
			`[{"binaryInfo":{"installName":"X"}},{"binaryInfo":{"installName":"A"}}]`,
			`[{"binaryInfo":{"installName":"A"}}]`,
			false, false, "Missing X from SDKDB\n",
			Stats{Missing: 1},
		},
		{
			"entries without install name are skipped",
			`[{"binaryInfo":{"installName":""},"v":1}]`,
			`[{"binaryInfo":{"installName":""},"v":2}]`,
			false, true, "",
			Stats{Skipped: 1},
		},
		{
			"last duplicate candidate wins",
			`[{"binaryInfo":{"installName":"A"},"v":2}]`,
			`[{"binaryInfo":{"installName":"A"},"v":1},{"binaryInfo":{"installName":"A"},"v":2}]`,
			false, true, "",
			Stats{Nodes: 4, Entries: 1},
		},
		{
			"extra candidate entries ignored",
			`[]`,
			`[{"binaryInfo":{"installName":"A"}}]`,
			false, true, "",
			Stats{},
		},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			buf := &bytes.Buffer{}
			st := &Stats{}
			cmpr := New(OptionReporter(&TextReporter{W: buf}), OptionSetStats(st), OptionStrict(c.strict))

			equal, err := cmpr.CompareEntryList(mustList(t, c.base), mustList(t, c.candidate))
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if equal != c.equal {
				t.Errorf("result mismatch. want: %t. got: %t", c.equal, equal)
			}
			if diff := cmp.Diff(c.output, buf.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(c.stats, *st); diff != "" {
				t.Errorf("stats mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMissingEntryShortCircuits(t *testing.T) {
	base := mustList(t, `[
		{"binaryInfo":{"installName":"A"},"v":1},
		{"binaryInfo":{"installName":"gone"}},
		{"binaryInfo":{"installName":"B"},"v":1}
	]`)
	cand := mustList(t, `[
		{"binaryInfo":{"installName":"B"},"v":2},
		{"binaryInfo":{"installName":"A"},"v":1}
	]`)

	var reported Mismatches
	st := &Stats{}
	c := New(OptionSetStats(st), OptionReporter(ReporterFunc(func(m *Mismatch) {
		reported = append(reported, m)
	})))

	equal, err := c.CompareEntryList(base, cand)
	if err != nil {
		t.Fatal(err)
	}
	if equal {
		t.Error("expected missing entry to fail the list")
	}
	if st.Entries != 1 {
		t.Errorf("entries after the missing one were compared. want 1 entry compared, got: %d", st.Entries)
	}

	expect := Mismatches{{Type: DTMissingEntry, Library: "gone"}}
	if diff := cmp.Diff(expect, reported); diff != "" {
		t.Errorf("reported mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareEntry(t *testing.T) {
	base := mustDB(t, `{"binaryInfo":{"installName":"/usr/lib/libfoo.dylib","currentVersion":"1.0"}}`)
	cand := mustDB(t, `{"binaryInfo":{"installName":"/usr/lib/libfoo.dylib","currentVersion":"1.1"}}`)

	buf := &bytes.Buffer{}
	equal, err := New(OptionReporter(&TextReporter{W: buf})).CompareEntry(base, cand)
	if err != nil {
		t.Fatal(err)
	}
	if equal {
		t.Error("expected entries to differ")
	}
	expect := "SDKDB[binaryInfo][currentVersion] is not equal: 1.0 vs 1.1 in library /usr/lib/libfoo.dylib\n"
	if diff := cmp.Diff(expect, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyErrors(t *testing.T) {
	cases := []struct {
		description     string
		base, candidate string
		expect          KeyError
	}{
		{"baseline without binaryInfo", `[{"foo":1}]`, `[]`, KeyError{Side: "baseline", Index: 0, Path: "binaryInfo.installName"}},
		{"candidate install name not a string", `[]`, `[{"binaryInfo":{"installName":"A"}},{"binaryInfo":{"installName":5}}]`, KeyError{Side: "candidate", Index: 1, Path: "binaryInfo.installName"}},
		{"binaryInfo not a mapping", `[{"binaryInfo":[]}]`, `[]`, KeyError{Side: "baseline", Index: 0, Path: "binaryInfo.installName"}},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			_, err := New().CompareEntryList(mustList(t, c.base), mustList(t, c.candidate))
			if !errors.Is(err, ErrMissingKey) {
				t.Fatalf("expected ErrMissingKey, got: %v", err)
			}
			var ke *KeyError
			if !errors.As(err, &ke) {
				t.Fatalf("expected a *KeyError, got: %T", err)
			}
			if diff := cmp.Diff(c.expect, *ke); diff != "" {
				t.Errorf("key error mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKeyErrorMessage(t *testing.T) {
	cases := []struct {
		description string
		err         *KeyError
		expect      string
	}{
		{"listed entry",
			&KeyError{Target: "ios", Side: "baseline", Index: 3, Path: "binaryInfo.installName"},
			`baseline entry 3 of target "ios": no string at binaryInfo.installName: entry has no install name`,
		},
		{"first entry without target",
			&KeyError{Side: "candidate", Path: "id"},
			`candidate entry 0: no string at id: entry has no install name`,
		},
		{"entry compared on its own",
			&KeyError{Side: "candidate", Path: "id", NoIndex: true},
			`candidate entry: no string at id: entry has no install name`,
		},
	}

	for _, c := range cases {
		if got := c.err.Error(); got != c.expect {
			t.Errorf("%s\nwant: %s\ngot:  %s", c.description, c.expect, got)
		}
	}
}

func TestCompareEntryKeyError(t *testing.T) {
	var base, cand interface{}
	if err := json.Unmarshal([]byte(`{"v":1}`), &base); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"v":1}`), &cand); err != nil {
		t.Fatal(err)
	}

	_, err := New().CompareEntry(base, cand)
	var ke *KeyError
	if !errors.As(err, &ke) {
		t.Fatalf("expected a *KeyError, got: %v", err)
	}
	expect := KeyError{Side: "candidate", Path: "binaryInfo.installName", NoIndex: true}
	if diff := cmp.Diff(expect, *ke); diff != "" {
		t.Errorf("key error mismatch (-want +got):\n%s", diff)
	}
	if got := err.Error(); got != "candidate entry: no string at binaryInfo.installName: entry has no install name" {
		t.Errorf("unexpected message: %s", got)
	}
}

func TestKeyPathOption(t *testing.T) {
	base := mustList(t, `[{"id":"b","v":1},{"id":"a","v":1}]`)
	cand := mustList(t, `[{"id":"a","v":1},{"id":"b","v":2}]`)

	buf := &bytes.Buffer{}
	if _, err := New(OptionKeyPath("id"), OptionReporter(&TextReporter{W: buf})).CompareEntryList(base, cand); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("SDKDB[v] is not equal: 1 vs 2 in library b\n", buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestIsPublic(t *testing.T) {
	cases := []struct {
		db     string
		expect bool
	}{
		{`{}`, false},
		{`{"public":false}`, false},
		{`{"public":true}`, true},
		{`{"public":"yes"}`, false},
	}

	for _, c := range cases {
		if got := IsPublic(mustDB(t, c.db)); got != c.expect {
			t.Errorf("%s: want: %t. got: %t", c.db, c.expect, got)
		}
	}
}

func TestCompareDatabase(t *testing.T) {
	const (
		libA = `{"binaryInfo":{"installName":"A"},"v":1}`
		libB = `{"binaryInfo":{"installName":"B"},"v":1}`
	)

	cases := []struct {
		description     string
		base, candidate string
		equal           bool
		output          string
		targets         int
	}{
		{"identical", `{"ios":[` + libA + `]}`, `{"ios":[` + libA + `]}`, true, "", 1},
		{"private baseline, public candidate", `{"public":false,"ios":[` + libA + `]}`, `{"public":true,"ios":[` + libA + `]}`, true, "", 1},
		{"public baseline, public candidate", `{"public":true,"ios":[` + libA + `]}`, `{"public":true,"ios":[` + libA + `]}`, true, "", 1},
		{"public baseline, private candidate", `{"public":true,"ios":[` + libA + `]}`, `{"public":false,"ios":[]}`, false, "Comparing public to private is not supported\n", 0},
		{"public baseline, unflagged candidate", `{"public":true,"a":[` + libA + `]}`, `{"a":[]}`, false, "Comparing public to private is not supported\n", 0},
		{"missing target", `{"ios":[],"macos":[]}`, `{"ios":[]}`, false, "Target macos missing from SDKDB\n", 1},
		{"failed target stops remaining targets", `{"a":[` + libB + `],"b":[` + libA + `]}`, `{"a":[],"b":[]}`, false, "Missing B from SDKDB\n", 1},
		{"entry mismatch doesn't stop remaining targets", `{"a":[` + libA + `],"b":[` + libB + `]}`, `{"a":[{"binaryInfo":{"installName":"A"},"v":2}],"b":[` + libB + `]}`, true, "SDKDB[v] is not equal: 1 vs 2 in library A\n", 2},
		{"extra candidate targets ignored", `{}`, `{"ios":[` + libA + `]}`, true, "", 0},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			buf := &bytes.Buffer{}
			st := &Stats{}
			cmpr := New(OptionReporter(&TextReporter{W: buf}), OptionSetStats(st))

			equal, err := cmpr.CompareDatabase(mustDB(t, c.base), mustDB(t, c.candidate))
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if equal != c.equal {
				t.Errorf("result mismatch. want: %t. got: %t", c.equal, equal)
			}
			if diff := cmp.Diff(c.output, buf.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
			if st.Targets != c.targets {
				t.Errorf("targets compared mismatch. want: %d. got: %d", c.targets, st.Targets)
			}
		})
	}
}

func TestCompareDatabaseErrors(t *testing.T) {
	_, err := New().CompareDatabase(mustDB(t, `{"ios":{"a":1}}`), mustDB(t, `{"ios":[]}`))
	if !errors.Is(err, ErrNotEntryList) {
		t.Errorf("expected ErrNotEntryList, got: %v", err)
	}

	_, err = New().CompareDatabase(mustDB(t, `{"ios":[{"binaryInfo":{}}]}`), mustDB(t, `{"ios":[]}`))
	var ke *KeyError
	if !errors.As(err, &ke) {
		t.Fatalf("expected a *KeyError, got: %v", err)
	}
	if ke.Target != "ios" {
		t.Errorf("key error should name the target. got: %q", ke.Target)
	}

	if _, err := AsDatabase([]interface{}{}); !errors.Is(err, ErrNotDatabase) {
		t.Errorf("expected ErrNotDatabase, got: %v", err)
	}
}

func TestCompareDatabaseLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := New(OptionLogger(zap.New(core)))

	db := mustDB(t, `{"ios":[{"binaryInfo":{"installName":"A"}}],"macos":[]}`)
	if equal, err := c.CompareDatabase(db, db); err != nil || !equal {
		t.Fatalf("expected equal databases. got: %t, %v", equal, err)
	}

	entries := logs.FilterMessage("comparing target").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got: %d", len(entries))
	}
	if target := entries[0].ContextMap()["target"]; target != "ios" {
		t.Errorf("expected first target to be ios, got: %v", target)
	}
}

package parser

import (
	"strings"
	"testing"

	"github.com/aledsdavies/jsfront/runtime/ir"
)

// FuzzParserNoPanic verifies the parser never panics on any input.
func FuzzParserNoPanic(f *testing.F) {
	f.Add("")
	f.Add("function f(a) { return a; }")
	f.Add("\x00\x01\x02")
	f.Add(strings.Repeat("a", 10000))
	f.Add(strings.Repeat("{", 1000))
	f.Add(strings.Repeat("(", 1000))

	// Malformed constructs
	f.Add("try {")
	f.Add("for (var a, b in o)")
	f.Add("switch (x) { case")
	f.Add("x = /unterminated")
	f.Add("function (")
	f.Add("a: b: a: while (1) continue c;")

	f.Fuzz(func(t *testing.T, input string) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("Parser panicked: %v", r)
			}
		}()

		res, err := ParseString(input, "fuzz.js")
		if res == nil {
			t.Fatal("Parse returned nil")
		}
		if (err == nil) != (res.Script != nil) {
			t.Errorf("script is %v with error %v", res.Script, err)
		}
	})
}

// FuzzParserDeterminism verifies that parsing the same input twice produces
// identical trees, traces and diagnostics.
func FuzzParserDeterminism(f *testing.F) {
	f.Add("var x = 1;")
	f.Add("x = ;\ny = );")
	f.Add("try { f(); } catch (e if e) { } finally { g(); }")

	f.Fuzz(func(t *testing.T, input string) {
		res1, err1 := ParseString(input, "fuzz.js")
		res2, err2 := ParseString(input, "fuzz.js")

		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("Non-deterministic error: %v vs %v", err1, err2)
		}
		if len(res1.Errors) != len(res2.Errors) {
			t.Fatalf("Non-deterministic error count: %d vs %d", len(res1.Errors), len(res2.Errors))
		}
		for i := range res1.Errors {
			if res1.Errors[i] != res2.Errors[i] {
				t.Fatalf("Non-deterministic error at index %d: %v vs %v", i, res1.Errors[i], res2.Errors[i])
			}
		}
		if err1 != nil {
			return
		}
		if ir.DumpUnit(res1.Tree, res1.Script) != ir.DumpUnit(res2.Tree, res2.Script) {
			t.Error("Non-deterministic tree")
		}
		if decompile(res1) != decompile(res2) {
			t.Error("Non-deterministic trace")
		}
	})
}

// FuzzRoundTrip verifies that decompiled source parses back to the same
// tree.
func FuzzRoundTrip(f *testing.F) {
	f.Add("var x = 1, y;\nx += y * 2;")
	f.Add("function f(a, b) { return a + b; }")
	f.Add("outer: for (;;) { while (x) { if (y) continue outer; break outer; } }")
	f.Add("switch (x) { case 1: y(); default: z(); }")
	f.Add("with (o) { do k--; while (k) }")
	f.Add("a = [1, , 3]; b = {x: 1, 2: /r/g};")

	f.Fuzz(func(t *testing.T, input string) {
		first, err := ParseString(input, "fuzz.js")
		if err != nil {
			return
		}
		text := decompile(first)

		second, err := ParseString(text, "fuzz.js")
		if err != nil {
			t.Fatalf("decompiled source does not parse: %v\n%s", err, text)
		}
		if ir.DumpUnit(first.Tree, first.Script) != ir.DumpUnit(second.Tree, second.Script) {
			t.Errorf("tree changed after decompiling:\n%s", text)
		}
	})
}

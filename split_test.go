package rowexport

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitPairs(t *testing.T) {
	cases := []struct {
		in  string
		out []string
	}{
		{
			"a=1 b=2 c=3",
			[]string{"a=1", "b=2", "c=3"},
		}, {
			`a=1 b="two three"`,
			[]string{"a=1", `b="two three"`},
		}, {
			"  a=1\t\tb=2  ",
			[]string{"a=1", "b=2"},
		}, {
			`a="two \" three" b=4`,
			[]string{`a="two \" three"`, "b=4"},
		}, {
			`a="two \\" b=4`,
			[]string{`a="two \\"`, "b=4"},
		}, {
			`a="unterminated b=4`,
			[]string{`a="unterminated b=4`},
		},
	}

	for _, tc := range cases {
		res := splitPairs(tc.in)
		if !reflect.DeepEqual(res, tc.out) {
			t.Errorf("splitPairs(%q) -> %#v, expected %#v", tc.in, res, tc.out)
		}
	}
}

func TestInferValue(t *testing.T) {
	cases := []struct {
		in  string
		out Value
	}{
		{"123", int64(123)},
		{"-100", int64(-100)},
		{"123.45", 123.45},
		{"hello", "hello"},
		{"NaN", "NaN"},
		{"Inf", "Inf"},
		{"1e400", "1e400"},
	}

	for _, tc := range cases {
		if v := inferValue(tc.in); v != tc.out {
			t.Errorf("inferValue(%q) = %v (%T), expected %v (%T)", tc.in, v, v, tc.out, tc.out)
		}
	}
}

func TestDecodeKV(t *testing.T) {
	in := `# users
name=alice age=31 note="likes \"tea\""

name=bob id="007" age=
`
	rs, err := decodeKV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 2 {
		t.Fatalf("unexpected record count %d", len(rs))
	}

	expected := []map[string]Value{
		{"name": "alice", "age": int64(31), "note": `likes "tea"`},
		{"name": "bob", "id": "007", "age": nil},
	}
	keys := [][]string{{"name", "age", "note"}, {"name", "id", "age"}}
	for i, rec := range rs {
		if !reflect.DeepEqual(rec.Keys(), keys[i]) {
			t.Errorf("record %d keys %v, expected %v", i, rec.Keys(), keys[i])
		}
		for k, v := range expected[i] {
			if got, _ := rec.Get(k); got != v {
				t.Errorf("record %d %s = %#v, expected %#v", i, k, got, v)
			}
		}
	}
}

func TestDecodeKVErrors(t *testing.T) {
	cases := []string{
		"a=1 lonely",
		"=1",
		`a="unterminated`,
	}
	for _, in := range cases {
		if _, err := decodeKV(strings.NewReader(in)); err == nil {
			t.Errorf("unexpected success for %q", in)
		} else if !strings.HasPrefix(err.Error(), "line 1: ") {
			t.Errorf("unexpected error %q for %q", err, in)
		}
	}
}

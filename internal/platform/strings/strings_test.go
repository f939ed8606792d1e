package strings_test

import (
	"testing"

	str "slotwatch/internal/platform/strings"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"identity", "チェア1", "チェア1"},
		{"fullwidth digits", "チェア１", "チェア1"},
		{"fullwidth latin", "Ｄｒ山田", "Dr山田"},
		{"ideographic space trimmed", "　本日　", "本日"},
		{"halfwidth katakana", "ﾁｪｱ2", "チェア2"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := str.Fold(tc.in); got != tc.out {
				t.Fatalf("Fold(%q) = %q, want %q", tc.in, got, tc.out)
			}
		})
	}
}

func TestFoldEqual(t *testing.T) {
	if !str.FoldEqual("本日", "本日") {
		t.Fatal("identical strings should fold equal")
	}
	if !str.FoldEqual("チェア１", "チェア1") {
		t.Fatal("width variants should fold equal")
	}
	if str.FoldEqual("本日", "翌日") {
		t.Fatal("different tokens must not fold equal")
	}
}

func TestStripInvisible(t *testing.T) {
	in := " \u00a0a\u200b\ufeffb\u3000"
	if got := str.StripInvisible(in); got != " ab" {
		t.Fatalf("StripInvisible = %q", got)
	}
}

func TestMustPrefix(t *testing.T) {
	if got := str.MustPrefix(" run/ "); got != "/run" {
		t.Fatalf("MustPrefix = %q", got)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty prefix")
		}
	}()
	str.MustPrefix("  ")
}

func TestIfEmptyAndDeref(t *testing.T) {
	def := []string{"a"}
	if got := str.IfEmpty(nil, def); len(got) != 1 || got[0] != "a" {
		t.Fatalf("IfEmpty fallback failed: %v", got)
	}
	if str.Deref(nil) != "" {
		t.Fatal("Deref(nil) should be empty")
	}
	s := "x"
	if str.Deref(&s) != "x" {
		t.Fatal("Deref should return the pointed value")
	}
}

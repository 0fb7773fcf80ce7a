package pep440

import (
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple", input: "6.20.2", want: "6.20.2"},
		{name: "two components", input: "1.0", want: "1.0"},
		{name: "v prefix", input: "v1.2.3", want: "1.2.3"},
		{name: "epoch", input: "1!2.0", want: "1!2.0"},
		{name: "alpha", input: "1.0a1", want: "1.0a1"},
		{name: "alpha spelled out", input: "1.0.alpha1", want: "1.0a1"},
		{name: "beta dash", input: "1.0-beta2", want: "1.0b2"},
		{name: "release candidate", input: "2.0rc1", want: "2.0rc1"},
		{name: "c is rc", input: "2.0c1", want: "2.0rc1"},
		{name: "post", input: "1.0.post2", want: "1.0.post2"},
		{name: "implicit post", input: "1.0-1", want: "1.0.post1"},
		{name: "rev post", input: "1.0.rev3", want: "1.0.post3"},
		{name: "dev", input: "1.0.dev4", want: "1.0.dev4"},
		{name: "bare dev", input: "1.0.dev", want: "1.0.dev0"},
		{name: "local", input: "1.0+ubuntu.1", want: "1.0+ubuntu.1"},
		{name: "everything", input: "1!1.2.3rc4.post5.dev6+local.7", want: "1!1.2.3rc4.post5.dev6+local.7"},
		{name: "case insensitive", input: "1.0RC1", want: "1.0rc1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			if err != nil {
				t.Fatalf("ParseVersion(%q) error: %v", tt.input, err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("ParseVersion(%q).String() = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseVersionInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "1.0.0-", "1.*.0", "==1.0", "1.0 2.0"} {
		if _, err := ParseVersion(input); err == nil {
			t.Errorf("ParseVersion(%q) expected error, got nil", input)
		}
	}
}

// TestVersionOrdering feeds an ascending chain and checks every adjacent pair.
func TestVersionOrdering(t *testing.T) {
	ascending := []string{
		"0.9",
		"1.0.dev1",
		"1.0a1",
		"1.0a2",
		"1.0b1",
		"1.0rc1",
		"1.0rc1.post1", // post of a pre-release still sorts before the final
		"1.0",
		"1.0+local",
		"1.0.post1",
		"1.0.1",
		"1.1",
		"2.0",
		"1!0.1", // epoch dominates everything
	}

	for i := 0; i < len(ascending)-1; i++ {
		a := MustParseVersion(ascending[i])
		b := MustParseVersion(ascending[i+1])
		if !a.Less(b) {
			t.Errorf("expected %s < %s", ascending[i], ascending[i+1])
		}
		if b.Less(a) {
			t.Errorf("expected %s >= %s", ascending[i+1], ascending[i])
		}
	}
}

func TestVersionEqual(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"1.0", "1.0.0"},
		{"1.0", "1.0.0.0"},
		{"1.0a1", "1.0.alpha1"},
		{"1.0.post1", "1.0-1"},
		{"1.0RC1", "1.0rc1"},
		{"v6.20.2", "6.20.2"},
	}

	for _, tt := range tests {
		a, b := MustParseVersion(tt.a), MustParseVersion(tt.b)
		if !a.Equal(b) {
			t.Errorf("expected %s == %s (got Compare=%d)", tt.a, tt.b, a.Compare(b))
		}
	}
}

func TestVersionLocalOrdering(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0+a", "1.0+b", -1},
		{"1.0+1", "1.0+2", -1},
		{"1.0+abc", "1.0+1", -1}, // numeric local segments sort after alphanumeric
		{"1.0+a.1", "1.0+a", 1},
		{"1.0+a.1", "1.0+a.1", 0},
	}

	for _, tt := range tests {
		a, b := MustParseVersion(tt.a), MustParseVersion(tt.b)
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsPrerelease(t *testing.T) {
	if !MustParseVersion("1.0a1").IsPrerelease() {
		t.Error("1.0a1 should be a prerelease")
	}
	if !MustParseVersion("1.0.dev1").IsPrerelease() {
		t.Error("1.0.dev1 should be a prerelease")
	}
	if MustParseVersion("1.0.post1").IsPrerelease() {
		t.Error("1.0.post1 should not be a prerelease")
	}
	if MustParseVersion("6.20.2").IsPrerelease() {
		t.Error("6.20.2 should not be a prerelease")
	}
}

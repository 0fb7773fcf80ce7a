package pep440

import "testing"

func TestParseSpecifierSet(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "exact pin", input: "==6.20.2", want: "==6.20.2"},
		{name: "range", input: ">=6,<7", want: ">=6,<7"},
		{name: "spaces", input: " >= 6.1 , < 7 ", want: ">=6.1,<7"},
		{name: "compatible", input: "~=6.20.0", want: "~=6.20.0"},
		{name: "wildcard", input: "==6.20.*", want: "==6.20.*"},
		{name: "arbitrary", input: "===6.20.2", want: "===6.20.2"},
		{name: "empty", input: "", want: ""},
		{name: "missing operator", input: "6.20.2", wantErr: true},
		{name: "missing version", input: ">=", wantErr: true},
		{name: "wildcard with ordering op", input: ">=6.*", wantErr: true},
		{name: "garbage version", input: "==six", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseSpecifierSet(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSpecifierSet(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSpecifierSet(%q) error: %v", tt.input, err)
			}
			if got := set.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpecifierContains(t *testing.T) {
	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		// Exact equality, zero padding, local labels
		{"==6.20.2", "6.20.2", true},
		{"==6.20.2", "6.20.3", false},
		{"==1.0", "1.0.0", true},
		{"==1.0", "1.0+local", true}, // clause without local ignores candidate local
		{"==1.0+local", "1.0", false},

		// Wildcards
		{"==6.20.*", "6.20.2", true},
		{"==6.20.*", "6.21.0", false},
		{"!=6.20.*", "6.21.0", true},
		{"!=6.20.*", "6.20.9", false},

		// Ordered comparisons
		{">=7", "7.0.0", true},
		{">=7", "6.20.2", false},
		{"<7", "6.20.2", true},
		{"<7", "7.0.0", false},
		{"<7", "7.0.0rc1", false}, // pre-release of the bound is excluded
		{"<7.0.0rc2", "7.0.0rc1", true},
		{">1.0", "1.0.post1", false}, // post-release of the bound is excluded
		{">1.0", "1.1", true},
		{"<=6.20.2", "6.20.2", true},

		// Compatible release
		{"~=6.20.0", "6.20.2", true},
		{"~=6.20.0", "6.21.0", false},
		{"~=6.20.0", "6.19.9", false},
		{"~=1.4", "1.9", true},
		{"~=1.4", "2.0", false},

		// Arbitrary equality
		{"===6.20.2", "6.20.2", true},
		{"===6.20.2", "6.20.2.0", false}, // string match, not version match
	}

	for _, tt := range tests {
		t.Run(tt.spec+"/"+tt.version, func(t *testing.T) {
			spec, err := ParseSpecifier(tt.spec)
			if err != nil {
				t.Fatalf("ParseSpecifier(%q) error: %v", tt.spec, err)
			}
			v := MustParseVersion(tt.version)
			if got := spec.Contains(v); got != tt.want {
				t.Errorf("(%s).Contains(%s) = %v, want %v", tt.spec, tt.version, got, tt.want)
			}
		})
	}
}

func TestSpecifierSetContains(t *testing.T) {
	set, err := ParseSpecifierSet(">=6,<7")
	if err != nil {
		t.Fatal(err)
	}

	if !set.Contains(MustParseVersion("6.20.2")) {
		t.Error("6.20.2 should satisfy >=6,<7")
	}
	if set.Contains(MustParseVersion("7.0.0")) {
		t.Error("7.0.0 should not satisfy >=6,<7")
	}
	if set.Contains(MustParseVersion("5.9")) {
		t.Error("5.9 should not satisfy >=6,<7")
	}

	var empty SpecifierSet
	if !empty.Contains(MustParseVersion("0.0.1")) {
		t.Error("empty set should match everything")
	}
}

func TestPinnedVersion(t *testing.T) {
	tests := []struct {
		input string
		want  string // "" means no pin
	}{
		{"==6.20.2", "6.20.2"},
		{"===6.20.2", "6.20.2"},
		{">=6.20.2", ""},
		{"==6.20.*", ""},
		{">=6,<7", ""},
		{">=6,==6.20.2", "6.20.2"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			set, err := ParseSpecifierSet(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			pin := set.PinnedVersion()
			if tt.want == "" {
				if pin != nil {
					t.Errorf("PinnedVersion() = %v, want nil", pin)
				}
				if set.IsPin() {
					t.Error("IsPin() = true, want false")
				}
				return
			}
			if pin == nil || pin.String() != tt.want {
				t.Errorf("PinnedVersion() = %v, want %s", pin, tt.want)
			}
		})
	}
}

package manifest

import (
	"strings"
	"testing"
)

// sampleManifest mirrors the shape of a real pinned backend manifest,
// including a rationale comment on a compatibility pin.
const sampleManifest = `Django==4.2.11
djangorestframework==3.14.0
safe-eth-py==5.8.0
# safe-eth-py pulls in an incompatible web3>=7 if left unpinned
web3==6.20.2
boto3[crt]==1.34.49
gunicorn==21.2.0  # WSGI server
requests>=2.31,<3

-r requirements-dev.txt
git+https://github.com/example/fork.git#egg=fork
`

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleManifest))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	reqs := m.Requirements()
	if len(reqs) != 7 {
		t.Fatalf("len(Requirements()) = %d, want 7", len(reqs))
	}

	web3, ok := m.Get("web3")
	if !ok {
		t.Fatal("Get(web3) not found")
	}
	if !web3.Pinned() {
		t.Error("web3 should be pinned")
	}
	if got := web3.PinnedVersion().String(); got != "6.20.2" {
		t.Errorf("web3 pinned version = %s, want 6.20.2", got)
	}
	if web3.LineNumber != 5 {
		t.Errorf("web3 line number = %d, want 5", web3.LineNumber)
	}

	boto, ok := m.Get("boto3")
	if !ok {
		t.Fatal("Get(boto3) not found")
	}
	if len(boto.Extras) != 1 || boto.Extras[0] != "crt" {
		t.Errorf("boto3 extras = %v, want [crt]", boto.Extras)
	}

	gunicorn, _ := m.Get("gunicorn")
	if gunicorn.Comment != "WSGI server" {
		t.Errorf("gunicorn comment = %q, want %q", gunicorn.Comment, "WSGI server")
	}

	requests, _ := m.Get("requests")
	if requests.Pinned() {
		t.Error("requests is a range, not a pin")
	}

	if got := len(m.Directives()); got != 2 {
		t.Errorf("len(Directives()) = %d, want 2", got)
	}
}

func TestParseNormalizedLookup(t *testing.T) {
	m, err := Parse(strings.NewReader("Django==4.2.11\nzope.interface==6.1\n"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		lookup string
		found  bool
	}{
		{lookup: "django", found: true},
		{lookup: "DJANGO", found: true},
		{lookup: "zope-interface", found: true},
		{lookup: "zope_interface", found: true},
		{lookup: "flask", found: false},
	}

	for _, tt := range tests {
		if _, ok := m.Get(tt.lookup); ok != tt.found {
			t.Errorf("Get(%q) found = %v, want %v", tt.lookup, ok, tt.found)
		}
	}
}

func TestParseMarkers(t *testing.T) {
	m, err := Parse(strings.NewReader(`uvloop==0.19.0 ; sys_platform != "win32"` + "\n"))
	if err != nil {
		t.Fatal(err)
	}
	req := m.Requirements()[0]
	if req.Marker != `sys_platform != "win32"` {
		t.Errorf("Marker = %q", req.Marker)
	}
	if got := req.PinnedVersion().String(); got != "0.19.0" {
		t.Errorf("pinned version = %s", got)
	}
}

func TestParseContinuation(t *testing.T) {
	input := "web3==6.20.2 \\\n    ; python_version >= \"3.9\"\n"
	m, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	reqs := m.Requirements()
	if len(reqs) != 1 {
		t.Fatalf("len = %d, want 1", len(reqs))
	}
	if reqs[0].Marker != `python_version >= "3.9"` {
		t.Errorf("Marker = %q", reqs[0].Marker)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "bad specifier", input: "web3==not-a-version\n"},
		{name: "unterminated extras", input: "boto3[crt==1.0\n"},
		{name: "bare operator", input: "web3==\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Errorf("Parse(%q) expected error", tt.input)
			}
		})
	}
}

func TestDuplicates(t *testing.T) {
	m, err := Parse(strings.NewReader("web3==6.20.2\nrequests==2.31.0\nWeb3==6.19.0\n"))
	if err != nil {
		t.Fatal(err)
	}
	dups := m.Duplicates()
	if len(dups) != 1 {
		t.Fatalf("len(Duplicates()) = %d, want 1", len(dups))
	}
	if len(dups["web3"]) != 2 {
		t.Errorf("web3 duplicates = %d, want 2", len(dups["web3"]))
	}
}

func TestRoundTrip(t *testing.T) {
	input := "# header comment\n\nweb3==6.20.2  # compatibility pin\nsafe-eth-py==5.8.0\n"
	m, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.String(); got != input {
		t.Errorf("round trip mismatch:\ngot:  %q\nwant: %q", got, input)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Django", "django"},
		{"safe_eth_py", "safe-eth-py"},
		{"zope.interface", "zope-interface"},
		{"A--B__C", "a-b-c"},
		{" web3 ", "web3"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

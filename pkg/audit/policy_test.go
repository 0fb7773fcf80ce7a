package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/safemeridian/chaincfg/pkg/errors"
)

const samplePolicy = `
require_pins = true
forbidden = ["PyCrypto"]
exempt = ["pip", "setuptools"]

[[expected]]
package = "web3"
version = "6.20.2"
rationale = "safe-eth-py 5.8.0 breaks against web3 >= 7"

[[expected]]
package = "Django"
version = "4.2.11"
`

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPolicy(t *testing.T) {
	p, err := LoadPolicy(writePolicy(t, samplePolicy))
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if !p.RequirePins {
		t.Error("RequirePins not set")
	}
	if len(p.Expected) != 2 {
		t.Fatalf("Expected = %v", p.Expected)
	}
	// Names normalize on load so lookups match manifest keys.
	if p.Expected[1].Package != "django" {
		t.Errorf("Expected[1].Package = %q, want django", p.Expected[1].Package)
	}
	if !p.isForbidden("pycrypto") {
		t.Error("forbidden name not normalized")
	}
	if !p.isExempt("setuptools") {
		t.Error("exempt lookup failed")
	}
}

func TestLoadPolicyErrors(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.toml")); errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("missing file: got %v", err)
	}
	if _, err := LoadPolicy(writePolicy(t, "require_pins = [nope")); errors.GetCode(err) != errors.ErrCodeInvalidPolicy {
		t.Errorf("bad toml: got %v", err)
	}
	if _, err := LoadPolicy(writePolicy(t, "[[expected]]\npackage = \"web3\"\nversion = \"not-a-version\"\n")); errors.GetCode(err) != errors.ErrCodeInvalidPolicy {
		t.Errorf("bad version: got %v", err)
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if !p.RequirePins {
		t.Error("default policy must require pins")
	}
	if len(p.Expected) != 1 || p.Expected[0].Package != "web3" || p.Expected[0].Version != "6.20.2" {
		t.Errorf("Expected = %v", p.Expected)
	}
	if p.Expected[0].Rationale == "" {
		t.Error("web3 pin carries no rationale")
	}
}

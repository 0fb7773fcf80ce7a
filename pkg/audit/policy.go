package audit

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/safemeridian/chaincfg/pkg/errors"
	"github.com/safemeridian/chaincfg/pkg/manifest"
	"github.com/safemeridian/chaincfg/pkg/pep440"
)

// Policy declares what an audited manifest must look like. Policies are
// written in TOML:
//
//	require_pins = true
//	forbidden = ["pycrypto"]
//	exempt = ["pip"]
//
//	[[expected]]
//	package = "web3"
//	version = "6.20.2"
//	rationale = "safe-eth-py 5.8.0 breaks against web3 >= 7 (geth_poa_middleware removed)"
type Policy struct {
	// RequirePins requires every requirement to pin an exact version with ==.
	RequirePins bool `toml:"require_pins"`

	// Forbidden lists packages that must not appear in the manifest.
	Forbidden []string `toml:"forbidden"`

	// Exempt lists packages excluded from the RequirePins check.
	Exempt []string `toml:"exempt"`

	// Expected lists pins the manifest must carry at exactly the stated
	// version, each with a rationale explaining why the pin exists.
	Expected []ExpectedPin `toml:"expected"`
}

// ExpectedPin asserts that a package is pinned to an exact version.
type ExpectedPin struct {
	Package   string `toml:"package"`
	Version   string `toml:"version"`
	Rationale string `toml:"rationale"`
}

// DefaultPolicy returns the policy applied when no policy file is given:
// every requirement must be pinned, and web3 must stay on 6.20.2 because
// safe-eth-py 5.8.0 cannot run against web3 7.x, which removed
// geth_poa_middleware.
func DefaultPolicy() *Policy {
	return &Policy{
		RequirePins: true,
		Expected: []ExpectedPin{
			{
				Package:   "web3",
				Version:   "6.20.2",
				Rationale: "safe-eth-py 5.8.0 breaks against web3 >= 7 (geth_poa_middleware removed)",
			},
		},
	}
}

// LoadPolicy reads and validates a TOML policy file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "policy file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "cannot read policy file: %s", path)
	}
	var p Policy
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPolicy, err, "invalid policy file: %s", path)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every expected pin names a package and carries a
// parseable version. Package names are normalized in place so lookups
// against manifest keys work regardless of the spelling in the policy file.
func (p *Policy) Validate() error {
	for i := range p.Expected {
		e := &p.Expected[i]
		if e.Package == "" {
			return errors.New(errors.ErrCodeInvalidPolicy, "expected pin %d has no package name", i)
		}
		if _, err := pep440.ParseVersion(e.Version); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPolicy, err, "expected pin for %s has invalid version %q", e.Package, e.Version)
		}
		e.Package = manifest.Normalize(e.Package)
	}
	for i, name := range p.Forbidden {
		p.Forbidden[i] = manifest.Normalize(name)
	}
	for i, name := range p.Exempt {
		p.Exempt[i] = manifest.Normalize(name)
	}
	return nil
}

func (p *Policy) isForbidden(key string) bool {
	for _, f := range p.Forbidden {
		if f == key {
			return true
		}
	}
	return false
}

func (p *Policy) isExempt(key string) bool {
	for _, e := range p.Exempt {
		if e == key {
			return true
		}
	}
	return false
}

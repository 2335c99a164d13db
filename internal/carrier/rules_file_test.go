package carrier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

func TestLoadRegistryDefaults(t *testing.T) {
	reg, err := LoadRegistry("")
	require.NoError(t, err)
	assert.Len(t, reg.Canonical(), 18)
}

func TestLoadRegistryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
carriers:
  - id: alpha
    display_name: Alpha
    group_id: g1
    safe_duration_days: 90
    bl_risk_days: 30
  - id: beta
    display_name: Beta
    group_id: g1
    safe_duration_days: 90
    bl_risk_days: 30
groups:
  - id: g1
    display_name: Group One
    members: [alpha, beta]
`), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	rule, err := reg.RuleFor("alpha")
	require.NoError(t, err)
	assert.Equal(t, 90, rule.SafeDurationDays)

	res, err := reg.CheckTransfer("alpha", "beta")
	require.NoError(t, err)
	assert.True(t, res.Contaminated)
}

func TestLoadRegistryExemptGroupFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
carriers:
  - id: alpha
    group_id: g1
    safe_duration_days: 90
    bl_risk_days: 30
  - id: beta
    group_id: g1
    safe_duration_days: 90
    bl_risk_days: 30
groups:
  - id: g1
    exempt: true
    members: [alpha, beta]
`), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	res, err := reg.CheckTransfer("alpha", model.CarrierID("beta"))
	require.NoError(t, err)
	assert.False(t, res.Contaminated)
}

func TestLoadRegistryRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty carriers", "carriers: []\n"},
		{"invalid yaml", ":\n  - ["},
		{"member without rule", "carriers:\n  - id: a\n    group_id: g\ngroups:\n  - id: g\n    members: [a, ghost]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rules.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadRegistry(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

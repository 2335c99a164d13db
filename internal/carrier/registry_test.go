package carrier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

func TestNewDefaultValid(t *testing.T) {
	reg := NewDefault()

	rules := reg.Canonical()
	assert.Len(t, rules, 18)

	// Every carrier resolves to exactly one group.
	for _, rule := range rules {
		g, err := reg.GroupOf(rule.ID)
		require.NoError(t, err)
		assert.Equal(t, rule.GroupID, g.ID)
	}
}

func TestNewRegistryValidation(t *testing.T) {
	rule := func(id model.CarrierID) model.CarrierRule {
		return model.CarrierRule{ID: id, SafeDurationDays: 100, BLRiskDays: 90}
	}

	tests := []struct {
		name    string
		rules   []model.CarrierRule
		groups  []model.CarrierGroup
		wantErr string
	}{
		{
			name:    "empty rule id",
			rules:   []model.CarrierRule{rule("")},
			wantErr: "empty id",
		},
		{
			name:    "duplicate rule",
			rules:   []model.CarrierRule{rule("a"), rule("a")},
			wantErr: "duplicate rule",
		},
		{
			name:  "duplicate group",
			rules: []model.CarrierRule{rule("a")},
			groups: []model.CarrierGroup{
				{ID: "g", Members: []model.CarrierID{"a"}},
				{ID: "g"},
			},
			wantErr: "duplicate group",
		},
		{
			name:  "group references unknown carrier",
			rules: []model.CarrierRule{rule("a")},
			groups: []model.CarrierGroup{
				{ID: "g", Members: []model.CarrierID{"a", "ghost"}},
			},
			wantErr: "unknown carrier",
		},
		{
			name:  "carrier in two groups",
			rules: []model.CarrierRule{rule("a")},
			groups: []model.CarrierGroup{
				{ID: "g1", Members: []model.CarrierID{"a"}},
				{ID: "g2", Members: []model.CarrierID{"a"}},
			},
			wantErr: "belongs to both",
		},
		{
			name:    "carrier in no group",
			rules:   []model.CarrierRule{rule("a")},
			groups:  nil,
			wantErr: "belongs to no group",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.rules, tt.groups)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRuleForUnknown(t *testing.T) {
	reg := NewDefault()

	_, err := reg.RuleFor("carrier-from-nowhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnknownCarrier)

	_, err = reg.GroupOf("carrier-from-nowhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnknownCarrier)
}

func TestCanonicalOrderStable(t *testing.T) {
	reg := NewDefault()

	first := reg.Canonical()
	second := reg.Canonical()
	require.Equal(t, first, second)

	// Declaration order, not map order.
	assert.Equal(t, model.CarrierDocomo, first[0].ID)
	assert.Equal(t, model.CarrierAu, first[4].ID)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaWeightsSumTo100(t *testing.T) {
	assert.Equal(t, 100, TotalWeight())
}

func TestSchemaKeysUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, f := range Schema {
		assert.False(t, seen[f.Key], "duplicate key %s", f.Key)
		seen[f.Key] = true
	}
}

func TestFieldAccessors(t *testing.T) {
	p := &LeadProfile{}

	for _, f := range Schema {
		require.Empty(t, p.Field(f.Key))
		ok := p.SetField(f.Key, "val-"+f.Key)
		require.True(t, ok, "set %s", f.Key)
		assert.Equal(t, "val-"+f.Key, p.Field(f.Key))
	}
}

func TestSetFieldUnknownKey(t *testing.T) {
	p := &LeadProfile{}
	assert.False(t, p.SetField("no_such_field", "x"))
	assert.Empty(t, p.Field("no_such_field"))
}

func TestSpecFor(t *testing.T) {
	spec := SpecFor(FieldCompanyName)
	require.NotNil(t, spec)
	assert.Equal(t, 10, spec.Weight)
	assert.False(t, spec.Searchable)

	assert.Nil(t, SpecFor("bogus"))
}

func TestSearchableAllowlist(t *testing.T) {
	want := map[string]bool{
		FieldPhone:       true,
		FieldEmail:       true,
		FieldPOSSystem:   true,
		FieldCuisineType: true,
		FieldWebsite:     true,
	}
	for _, f := range Schema {
		assert.Equal(t, want[f.Key], f.Searchable, f.Key)
	}
}

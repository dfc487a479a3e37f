package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buyProductSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"patient", "product"},
		"properties": map[string]interface{}{
			"patient": map[string]interface{}{"type": "string", "minLength": 1},
			"product": map[string]interface{}{"type": "string", "minLength": 1},
		},
	}
}

func TestRegistryValidatesRegisteredKind(t *testing.T) {
	r := NewRegistry(16)
	require.NoError(t, r.Register("BuyProduct", buyProductSchema()))

	err := r.Validate("BuyProduct", map[string]interface{}{
		"patient": "p1",
		"product": "prod1",
	})
	assert.NoError(t, err)
}

func TestRegistryRejectsMissingField(t *testing.T) {
	r := NewRegistry(16)
	require.NoError(t, r.Register("BuyProduct", buyProductSchema()))

	err := r.Validate("BuyProduct", map[string]interface{}{"patient": "p1"})
	assert.Error(t, err)
}

func TestRegistryRejectsWrongType(t *testing.T) {
	r := NewRegistry(16)
	require.NoError(t, r.Register("BuyProduct", buyProductSchema()))

	err := r.Validate("BuyProduct", map[string]interface{}{
		"patient": "p1",
		"product": 42,
	})
	assert.Error(t, err)
}

func TestRegistryUnknownKindPassesThrough(t *testing.T) {
	r := NewRegistry(16)

	err := r.Validate("NoSuchKind", map[string]interface{}{"anything": true})
	assert.NoError(t, err)
}

func TestRegistryValidatesAfterCacheEviction(t *testing.T) {
	r := NewRegistry(2)
	require.NoError(t, r.Register("BuyProduct", buyProductSchema()))

	// Push the first entry out of the compile cache
	require.NoError(t, r.Register("KindA", buyProductSchema()))
	require.NoError(t, r.Register("KindB", buyProductSchema()))
	require.NoError(t, r.Register("KindC", buyProductSchema()))

	err := r.Validate("BuyProduct", map[string]interface{}{})
	assert.Error(t, err)

	err = r.Validate("BuyProduct", map[string]interface{}{
		"patient": "p1",
		"product": "prod1",
	})
	assert.NoError(t, err)
}

func TestRegistryRejectsBadSchema(t *testing.T) {
	r := NewRegistry(16)

	err := r.Register("Broken", map[string]interface{}{"type": "not-a-type"})
	assert.Error(t, err)
}

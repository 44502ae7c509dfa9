package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchema(t *testing.T) {
	s := DefaultSchema()

	assert.Equal(t, SchemaV1, s.Version())
	assert.Equal(t, 45, s.Width())
	assert.Equal(t, "TM", s.Names()[0])
	assert.Equal(t, "IR", s.Names()[44])
	assert.Equal(t, KindTemporal, s.KindOf(ColTM))
	assert.Equal(t, KindIntegerKey, s.KindOf(ColSTN))
	assert.Equal(t, KindCategorical, s.KindOf(ColCT))
	assert.Equal(t, KindCategorical, s.KindOf(ColWW))
	assert.Equal(t, KindNumeric, s.KindOf("TA"))
	assert.Equal(t, KindNumeric, s.KindOf("NOT_A_FIELD"))
	assert.Equal(t, []string{"CT", "STN", "TM", "WW"}, s.NonNumeric())
}

func TestLookupSchema(t *testing.T) {
	v2, err := LookupSchema(SchemaV2)
	require.NoError(t, err)
	assert.Equal(t, 46, v2.Width())
	i, ok := v2.Index("IX")
	assert.True(t, ok)
	assert.Equal(t, 45, i)

	_, err = LookupSchema("kma-sfctm3/1")
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestNewSchema(t *testing.T) {
	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := NewSchema("x", []Field{{Name: "A"}, {Name: "A"}})
		assert.Error(t, err)
	})

	t.Run("rejects unnamed fields", func(t *testing.T) {
		_, err := NewSchema("x", []Field{{Name: ""}})
		assert.Error(t, err)
	})

	t.Run("copies fields", func(t *testing.T) {
		fields := []Field{{Name: "A"}, {Name: "B", Kind: KindCategorical}}
		s, err := NewSchema("x", fields)
		require.NoError(t, err)
		fields[0].Name = "Z"
		assert.Equal(t, []string{"A", "B"}, s.Names())
	})
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "numeric", KindNumeric.String())
	assert.Equal(t, "temporal", KindTemporal.String())
	assert.Equal(t, "integer-key", KindIntegerKey.String())
	assert.Equal(t, "categorical", KindCategorical.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

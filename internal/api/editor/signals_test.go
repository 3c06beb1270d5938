package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{
		"tool": "drawPolygon",
		"strokewidth": 2.5,
		"deselect": true,
		"layerorder": ["b", "a", 3]
	}`))
	require.NoError(t, err)

	assert.Equal(t, "drawPolygon", s.String("tool"))
	assert.Equal(t, 2.5, s.Float("strokewidth"))
	assert.True(t, s.Bool("deselect"))
	// Non-string entries in a list are dropped, not coerced.
	assert.Equal(t, []string{"b", "a"}, s.Strings("layerorder"))

	assert.True(t, s.Has("tool"))
	assert.False(t, s.Has("missing"))
	assert.Equal(t, "", s.String("missing"))
	assert.Equal(t, 0.0, s.Float("tool"))
	assert.Nil(t, s.Strings("tool"))
}

func TestParseSignalsInvalidJSON(t *testing.T) {
	_, err := ParseSignals([]byte(`not json`))
	assert.Error(t, err)

	in := &SignalsInput{RawBody: []byte(`{`)}
	_, err = in.MustParse()
	assert.Error(t, err)
}

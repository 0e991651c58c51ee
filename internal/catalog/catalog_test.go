package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltIn(t *testing.T) {
	tpls, err := BuiltIn()
	require.NoError(t, err)
	require.NotEmpty(t, tpls)

	for _, tpl := range tpls {
		assert.True(t, tpl.BuiltIn, tpl.Key)
		assert.NotEmpty(t, tpl.Category, tpl.Key)
		for i, q := range tpl.Questions {
			assert.Equal(t, i, q.Position, tpl.Key)
			assert.NotEmpty(t, q.Type, tpl.Key)
		}
	}
}

func TestParseRejectsIncomplete(t *testing.T) {
	_, err := Parse([]byte("templates:\n  - key: x\n    title: X\n"))
	require.ErrorContains(t, err, "no questions")

	_, err = Parse([]byte("templates:\n  - title: X\n"))
	require.Error(t, err)

	_, err = Parse([]byte("templates: [\n"))
	require.Error(t, err)
}

package oxidb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandEncoding(t *testing.T) {
	limit := 5
	raw, err := json.Marshal(command{Cmd: "text_search", Collection: "c", Text: "great pasta", Limit: &limit})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cmd":"text_search","collection":"c","query":"great pasta","limit":5}`, string(raw))

	zero := 0
	raw, err = json.Marshal(command{Cmd: "find", Collection: "c", Query: filter(nil), Skip: &zero})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cmd":"find","collection":"c","query":{},"skip":0}`, string(raw))
}

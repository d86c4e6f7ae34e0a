package pdfdisarm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisarm_NeutralizesJavaScriptKeepingLength(t *testing.T) {
	src := []byte("1 0 obj << /OpenAction 2 0 R /JavaScript (app.alert(1)) >> endobj")

	out, changed := Disarm(src)

	require.True(t, changed)
	require.Equal(t, len(src), len(out))
	assert.False(t, bytes.Contains(out, []byte("/JavaScript")))
	assert.False(t, bytes.Contains(out, []byte("/OpenAction")))
}

func TestDisarm_CleanPDFUnchanged(t *testing.T) {
	src := []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj")

	out, changed := Disarm(src)

	assert.False(t, changed)
	assert.Equal(t, src, out)
}

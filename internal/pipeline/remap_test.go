package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tonebridge/reaper-sidecar/internal/models"
)

func TestIndexRemap_Apply_RewritesCanonicalToActual(t *testing.T) {
	remap := IndexRemap{14: 114, 15: 115}
	in := []models.ParamChange{{Index: 14, Value: 0.5}, {Index: 15, Value: 0.2}}
	out := remap.Apply(in)
	assert.Equal(t, 114, out[0].Index)
	assert.Equal(t, 0.5, out[0].Value)
	assert.Equal(t, 115, out[1].Index)
}

func TestIndexRemap_Apply_IgnoresIdentityEntries(t *testing.T) {
	remap := IndexRemap{14: 14}
	in := []models.ParamChange{{Index: 14, Value: 0.5}}
	out := remap.Apply(in)
	assert.Equal(t, in, out)
}

func TestIndexRemap_Apply_LeavesUnmappedIndicesAlone(t *testing.T) {
	remap := IndexRemap{14: 114}
	in := []models.ParamChange{{Index: 20, Value: 0.9}}
	out := remap.Apply(in)
	assert.Equal(t, in, out)
}

func TestIndexRemap_Apply_EmptyIsNoOp(t *testing.T) {
	in := []models.ParamChange{{Index: 14, Value: 0.5}}
	out := IndexRemap(nil).Apply(in)
	assert.Equal(t, in, out)
}

func TestIndexRemap_Reverse(t *testing.T) {
	remap := IndexRemap{14: 114, 15: 15}
	rev := remap.Reverse()
	assert.Equal(t, 14, rev[114])
	_, identityKept := rev[15]
	assert.False(t, identityKept)
}

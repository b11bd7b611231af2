package huggingface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric_backend/internal/feature/inspection/domain/entity"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{Score: 0.88, Label: "scratch", Box: Box{XMin: 5, YMin: 6, XMax: 25.9, YMax: 16}},
		{Score: 0.51, Label: "cat", Box: Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10}},
		{Score: 0.40, Label: "hole", Box: Box{XMin: -4, YMin: 90, XMax: 20, YMax: 130}},
	}

	dets := Normalize(rows, 100, 100)
	require.Len(t, dets, 3)

	assert.Equal(t, entity.ClassScratch, dets[0].Class)
	assert.Equal(t, entity.BBox{X: 5, Y: 6, Width: 20, Height: 10}, dets[0].BBox)
	assert.InDelta(t, 0.88, dets[0].Score, 1e-9)

	assert.Equal(t, entity.ClassOther, dets[1].Class)

	assert.Equal(t, entity.ClassHole, dets[2].Class)
	assert.Equal(t, entity.BBox{X: 0, Y: 90, Width: 20, Height: 10}, dets[2].BBox)
	assert.Nil(t, dets[2].Mask)
}

func TestNormalize_DoesNotFilterByScore(t *testing.T) {
	t.Parallel()

	rows := []Row{{Score: 0.01, Label: "stain", Box: Box{XMax: 1, YMax: 1}}}
	assert.Len(t, Normalize(rows, 10, 10), 1)
}

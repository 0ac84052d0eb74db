package intr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smeltcc/smelt/compiler/tile"
)

func TestForSliceTotal(t *testing.T) {
	widths := []tile.ElemWidth{tile.EW8, tile.EW16, tile.EW32, tile.EW64, tile.EW128}
	layouts := []tile.Layout{tile.Horizontal, tile.Vertical}

	seen := map[ID]bool{}

	for _, w := range widths {
		for _, l := range layouts {
			for _, load := range []bool{true, false} {
				id := ForSlice(w, l, load)

				assert.NotEqual(t, Invalid, id, "%v %v load=%v", w, l, load)
				assert.False(t, seen[id], "%v %v load=%v: duplicate %v", w, l, load, id)

				seen[id] = true
			}
		}
	}

	assert.Len(t, seen, 20)
}

func TestForSliceVariants(t *testing.T) {
	assert.Equal(t, Ld1BHoriz, ForSlice(tile.EW8, tile.Horizontal, true))
	assert.Equal(t, Ld1WVert, ForSlice(tile.EW32, tile.Vertical, true))
	assert.Equal(t, St1QVert, ForSlice(tile.EW128, tile.Vertical, false))
	assert.Equal(t, St1DHoriz, ForSlice(tile.EW64, tile.Horizontal, false))
}

func TestForSliceOutOfDomain(t *testing.T) {
	assert.Panics(t, func() { ForSlice(tile.ElemWidth(5), tile.Horizontal, true) })
	assert.Panics(t, func() { ForSlice(tile.EW8, tile.Layout(2), true) })
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "ld1b.horiz", Ld1BHoriz.String())
	assert.Equal(t, "ld1q.vert", Ld1QVert.String())
	assert.Equal(t, "st1w.horiz", St1WHoriz.String())
	assert.Equal(t, "st1d.vert", St1DVert.String())
	assert.Equal(t, "read.vert", ReadVert.String())
	assert.Equal(t, "write.horiz", WriteHoriz.String())
	assert.Equal(t, "cntsh", CntsH.String())
}

package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

// Testable property §8.3: a memory's buffer is sized to the promoted page
// count (Max when declared, Initial otherwise), not just Initial — a data
// segment placed past the initial page but within Max must be accepted.
func TestMemoryBufferSizedToPromotedMax(t *testing.T) {
	src := &wasm.Module{
		MemorySection: []wasm.Memory{{Type: wasm.MemoryType{Initial: 1, Max: 2, HasMax: true}}},
		DataSection: []wasm.DataSegment{
			{
				MemoryIndex: 0,
				// offset 70000 falls in the second page, past a 1-page buffer.
				Offset: wasm.ConstExpr{Op: wasm.ConstExprConst, Type: wasm.ValueTypeI32, ConstBits: 70000, Len: 1},
				Data:   []byte{0xaa},
			},
		},
	}
	out := runLower(t, src, DefaultConfig())
	require.Len(t, out.Memories, 1)
	mem := out.Memories[0]
	require.Len(t, mem.Data, 2*wasmPageSize)
	assert.Equal(t, byte(0xaa), mem.Data[70000])
}

// Without a declared max, the buffer stays sized to Initial.
func TestMemoryBufferSizedToInitialWithoutMax(t *testing.T) {
	src := &wasm.Module{
		MemorySection: []wasm.Memory{{Type: wasm.MemoryType{Initial: 3}}},
	}
	out := runLower(t, src, DefaultConfig())
	require.Len(t, out.Memories, 1)
	assert.Len(t, out.Memories[0].Data, 3*wasmPageSize)
}

// SplitMem promotes each data segment to its own named global instead of
// copying it into the flat buffer, and promotes a segment named ".rodata"
// to a read-only constant.
func TestSplitMemPromotesSegmentsToGlobals(t *testing.T) {
	src := &wasm.Module{
		MemorySection: []wasm.Memory{{Type: wasm.MemoryType{Initial: 1}}},
		DataSection: []wasm.DataSegment{
			{
				Name:        ".rodata",
				MemoryIndex: 0,
				Offset:      wasm.ConstExpr{Op: wasm.ConstExprConst, Type: wasm.ValueTypeI32, ConstBits: 8, Len: 1},
				Data:        []byte{0x01, 0x02},
			},
			{
				MemoryIndex: 0,
				Offset:      wasm.ConstExpr{Op: wasm.ConstExprConst, Type: wasm.ValueTypeI32, ConstBits: 32, Len: 1},
				Data:        []byte{0x03},
			},
		},
	}
	cfg := DefaultConfig()
	cfg.SplitMem = true
	out := runLower(t, src, cfg)
	require.Len(t, out.Memories, 1)
	mem := out.Memories[0]
	require.Len(t, mem.Segments, 2)

	ro := mem.Segments[0]
	assert.Equal(t, "__notdec_mem0_0x8", ro.Name)
	assert.Equal(t, ".rodata", ro.Section)
	assert.True(t, ro.ReadOnly)
	assert.Equal(t, []byte{0x01, 0x02}, ro.Data)

	plain := mem.Segments[1]
	assert.Equal(t, "__notdec_mem0_0x20", plain.Name)
	assert.Equal(t, ".addr_0x20", plain.Section)
	assert.False(t, plain.ReadOnly)

	// The flat buffer is untouched by split segments.
	for _, b := range mem.Data {
		assert.Zero(t, b)
	}
}

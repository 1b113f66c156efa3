package lower

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

const wasmPageSize = 65536

// memoryPages returns the page count a memory's buffer is sized to: the
// promoted Max when the memory declares one, Initial otherwise. A growable
// memory is allotted its ceiling up front rather than grown in place.
func memoryPages(initial, max uint32, hasMax bool) uint32 {
	if hasMax {
		return max
	}
	return initial
}

// lowerMemories declares every memory (imported and local) and, unless
// NoMemInitializer is set, materializes each one's content by applying its
// active data segments at their resolved offsets: as one flat zero-filled
// buffer by default, or (SplitMem) as a named global per segment.
func (c *Context) lowerMemories() ([]*ir.Memory, error) {
	out := make([]*ir.Memory, 0, int(c.src.ImportMemoryCount)+len(c.src.MemorySection))

	for _, imp := range c.src.ImportSection {
		if imp.Kind != wasm.ExternKindMemory {
			continue
		}
		out = append(out, &ir.Memory{
			Index:        uint32(len(out)),
			Name:         importName(imp.Module, imp.Field),
			Linkage:      ir.LinkageImport,
			ImportModule: imp.Module,
			ImportField:  imp.Field,
			Initial:      imp.Memory.Initial,
			Max:          imp.Memory.Max,
			HasMax:       imp.Memory.HasMax,
		})
	}
	for _, mem := range c.src.MemorySection {
		name := mem.Name
		if name == "" {
			name = defaultMemoryName(len(out))
		}
		m := &ir.Memory{
			Index:   uint32(len(out)),
			Name:    name,
			Initial: mem.Type.Initial,
			Max:     mem.Type.Max,
			HasMax:  mem.Type.HasMax,
			Section: ".bss",
		}
		if !c.cfg.NoMemInitializer {
			pages := memoryPages(mem.Type.Initial, mem.Type.Max, mem.Type.HasMax)
			m.Data = make([]byte, int(pages)*wasmPageSize)
		}
		out = append(out, m)
	}

	if c.cfg.NoMemInitializer {
		return out, nil
	}
	if c.cfg.SplitMem && len(out) > 1 {
		c.sink.Debugf("split-memory mode: resolving %d data segments independently against %d memories", len(c.src.DataSection), len(out))
	}

	for segIdx, ds := range c.src.DataSection {
		if int(ds.MemoryIndex) >= len(out) {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "data segment %d targets memory %d", segIdx, ds.MemoryIndex)
		}
		target := out[ds.MemoryIndex]
		if target.Linkage == ir.LinkageImport {
			// An imported memory's backing storage belongs to the host;
			// this lowerer performs no copy and does not evaluate the
			// segment's offset.
			continue
		}
		offset, err := evalConstExpr(ds.Offset, c.globalInit, c.globalResolving)
		if err != nil {
			return nil, errors.Wrapf(err, "data segment %d offset", segIdx)
		}

		sum := xxhash.Sum64(ds.Data)
		c.sink.WithField("memory", ds.MemoryIndex).Debugf(
			"installed data segment %d (%s) at offset %d, %d bytes, fingerprint %x",
			segIdx, segmentLabel(ds), offset, len(ds.Data), sum)

		if c.cfg.SplitMem {
			if installSplitSegment(target, ds, uint32(offset)) {
				c.sink.Warnf("data segment %d (%s) promoted to read-only .rodata", segIdx, segmentLabel(ds))
			}
			continue
		}

		end := int(offset) + len(ds.Data)
		if end > len(target.Data) {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "data segment %d end %d exceeds memory %d size %d",
				segIdx, end, ds.MemoryIndex, len(target.Data))
		}
		copy(target.Data[offset:end], ds.Data)
	}
	return out, nil
}

// installSplitSegment appends ds to target.Segments as its own
// internal-linkage global instead of copying it into a flat buffer: named
// "<memname>_0x<offset>" in section ".addr_0x<offset>", except a segment
// whose own declared name is ".rodata" (removeDollar-canonicalized,
// matching the toolchain convention that marks a segment read-only), which
// is promoted to a read-only constant instead. Reports whether that
// promotion happened, so the caller can warn about it.
func installSplitSegment(target *ir.Memory, ds wasm.DataSegment, offset uint32) (promoted bool) {
	section := fmt.Sprintf(".addr_0x%x", offset)
	name := fmt.Sprintf("%s_0x%x", target.Name, offset)
	readOnly := removeDollar(ds.Name) == ".rodata"
	if readOnly {
		section = ".rodata"
	}
	target.Segments = append(target.Segments, ir.MemorySegment{
		Name:     name,
		Section:  section,
		Offset:   offset,
		Data:     append([]byte(nil), ds.Data...),
		ReadOnly: readOnly,
	})
	return readOnly
}

// segmentLabel names a data segment for diagnostics: its own Name if the
// parser supplied one (the ".rodata" convention from a toolchain-emitted
// module), falling back to "<unnamed>" otherwise.
func segmentLabel(ds wasm.DataSegment) string {
	if ds.Name != "" {
		return ds.Name
	}
	return "<unnamed>"
}

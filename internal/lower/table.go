package lower

import (
	"github.com/pkg/errors"

	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

// lowerTables declares every table (imported and local) and builds each
// local table's dense Elements array: every slot is first null-filled
// (-1), then each applicable element segment punches in its function
// indexes at [offset, offset+len(FuncIndexes)) in declared order, so a
// later segment's overlap with an earlier one wins (last-writer-wins).
func (c *Context) lowerTables() ([]*ir.Table, error) {
	out := make([]*ir.Table, 0, int(c.src.ImportTableCount)+len(c.src.TableSection))

	for _, imp := range c.src.ImportSection {
		if imp.Kind != wasm.ExternKindTable {
			continue
		}
		if imp.Table.ElemType != wasm.ValueTypeFuncref {
			return nil, errors.Wrapf(ErrUnsupportedTableType, "imported table %q.%q", imp.Module, imp.Field)
		}
		out = append(out, &ir.Table{
			Index:        uint32(len(out)),
			Name:         importName(imp.Module, imp.Field),
			Linkage:      ir.LinkageImport,
			ImportModule: imp.Module,
			ImportField:  imp.Field,
			Initial:      imp.Table.Initial,
			Max:          imp.Table.Max,
			HasMax:       imp.Table.HasMax,
		})
	}

	for _, t := range c.src.TableSection {
		if t.Type.ElemType != wasm.ValueTypeFuncref {
			return nil, errors.Wrapf(ErrUnsupportedTableType, "table %q", t.Name)
		}
		if t.Type.HasMax && t.Type.Max != t.Type.Initial {
			c.sink.Warnf("table %q has max %d different from initial %d", t.Name, t.Type.Max, t.Type.Initial)
		}
		elems := make([]int64, t.Type.Initial)
		for i := range elems {
			elems[i] = -1
		}
		name := t.Name
		if name == "" {
			name = defaultTableName(len(out))
		}
		out = append(out, &ir.Table{
			Index:    uint32(len(out)),
			Name:     name,
			Initial:  t.Type.Initial,
			Max:      t.Type.Max,
			HasMax:   t.Type.HasMax,
			Elements: elems,
		})
	}

	for segIdx, seg := range c.src.ElementSection {
		if seg.Passive || seg.UseElemExprs {
			return nil, errors.Wrapf(ErrUnsupportedElemFlags, "element segment %d", segIdx)
		}
		if seg.ElemType != wasm.ValueTypeFuncref {
			return nil, errors.Wrapf(ErrUnsupportedTableType, "element segment %d", segIdx)
		}
		if int(seg.TableIndex) >= len(out) {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "element segment %d targets table %d", segIdx, seg.TableIndex)
		}
		target := out[seg.TableIndex]
		if target.Linkage == ir.LinkageImport {
			// The imported table's backing storage belongs to the host;
			// this segment is still validated but produces no local write.
			continue
		}
		offset, err := evalConstExpr(seg.Offset, c.globalInit, c.globalResolving)
		if err != nil {
			return nil, errors.Wrapf(err, "element segment %d offset", segIdx)
		}
		if offset != 0 {
			c.sink.Warnf("element segment %d has non-zero offset %d", segIdx, offset)
		}
		end := int(offset) + len(seg.FuncIndexes)
		if end > len(target.Elements) {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "element segment %d end %d exceeds table %d size %d",
				segIdx, end, seg.TableIndex, len(target.Elements))
		}
		for i, fi := range seg.FuncIndexes {
			target.Elements[int(offset)+i] = int64(fi)
		}
	}
	return out, nil
}

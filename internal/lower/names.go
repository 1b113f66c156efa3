package lower

import (
	"fmt"
	"strings"
)

// importName is the default name an imported entity takes when the
// import itself carries no separate alias: "<module>.<field>".
func importName(module, field string) string {
	return module + "." + field
}

// defaultMemoryName is the provisional name an unnamed memory takes:
// "__notdec_mem0" for the single-memory case this convention was defined
// for, generalized to "__notdec_mem<i>" for any further declared memory.
func defaultMemoryName(index int) string {
	if index == 0 {
		return "__notdec_mem0"
	}
	return fmt.Sprintf("__notdec_mem%d", index)
}

// defaultTableName is the provisional name an unnamed table takes.
func defaultTableName(index int) string {
	return fmt.Sprintf("table_%d", index)
}

// entryPointNames are the function names a FixNames-configured run treats
// as the module's canonical entry point: whichever of these a function
// carries, it is renamed to "main" and promoted to export linkage,
// evicting whatever function previously held that name.
var entryPointNames = map[string]bool{
	"__original_main":   true,
	"__main_argc_argv":  true,
}

// collidingRuntimeNames renames a small set of libc-shaped names that
// collide with symbols the final link step is expected to provide itself;
// lowering output keeps these resolvable without shadowing the host
// environment's definitions.
var collidingRuntimeNames = map[string]string{
	"memset": "memset_1",
	"memcpy": "memcpy_1",
}

// removeDollar strips a single leading '$' from a Wat-style identifier
// name, the textual format's sigil for a named (as opposed to
// index-referenced) entity.
func removeDollar(name string) string {
	return strings.TrimPrefix(name, "$")
}

// canonicalFuncName applies FixNames's rewrites to a non-imported
// function's declared name: dollar-stripping, entry-point promotion, and
// the runtime-name-collision dodge. evictMain reports whether this rename
// requires evicting "main" from whatever function currently holds it; the
// caller performs that eviction through its nameRegistry (eviction rather
// than suffixing).
func canonicalFuncName(name string, cfg Config) (newName string, evictMain bool) {
	if cfg.FixNames {
		if !cfg.NoRemoveDollar && strings.HasPrefix(name, "$") {
			name = removeDollar(name)
		}
		if entryPointNames[name] {
			return "main", true
		}
		if renamed, ok := collidingRuntimeNames[name]; ok {
			return renamed, false
		}
	}
	return name, false
}

// nameRegistry tracks which function currently holds each name so that a
// later rename (FixNames's main promotion, or an export's ForceExportName)
// can evict the prior holder instead of producing a duplicate name.
type nameRegistry struct {
	holders map[string]int // name -> function index.
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{holders: make(map[string]int)}
}

// assign gives name to funcIndex in the registry, replacing whichever
// function previously held it, if any. Returns the evicted function's
// index and whether an eviction happened; clearing that function's own
// name is left to the caller.
func (r *nameRegistry) assign(name string, funcIndex int) (evicted int, didEvict bool) {
	if name == "" {
		return 0, false
	}
	if prev, ok := r.holders[name]; ok && prev != funcIndex {
		evicted, didEvict = prev, true
	}
	r.holders[name] = funcIndex
	return
}

// exportName resolves a function's final name against one of its exports,
// per ForceExportName: when set, the export name always wins (evicting
// whoever held it); otherwise the export name only fills in an empty name.
func exportName(currentName, exportName string, forceExportName bool, reg *nameRegistry, funcIndex int) (newName string, evicted int, didEvict bool) {
	if exportName == "" {
		return currentName, 0, false
	}
	if forceExportName {
		evicted, didEvict = reg.assign(exportName, funcIndex)
		return exportName, evicted, didEvict
	}
	if currentName == "" {
		evicted, didEvict = reg.assign(exportName, funcIndex)
		return exportName, evicted, didEvict
	}
	return currentName, 0, false
}

package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/chili-lang/chili/internal/lower"
	"github.com/chili-lang/chili/internal/vm"
)

// DumpBytecode writes a human-readable rendering of a lowered Result to
// path: one instruction per line (offset, mnemonic, operand), then the
// constants pool and the global slot count, per spec §6's --verbose
// build artifact. Grounded on the teacher's stats-dump helpers in
// cmd/ailang/main.go, which use go-humanize for the same "N things"
// summary-line style.
func DumpBytecode(res *lower.Result, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "; start (%s instructions, %s locals)\n",
		humanize.Comma(int64(len(res.Start.Instructions))), humanize.Comma(int64(res.Start.Locals)))
	writeCode(&b, res.Start)

	fmt.Fprintf(&b, "\n; constants (%s)\n", humanize.Comma(int64(len(res.Constants))))
	for i, c := range res.Constants {
		fmt.Fprintf(&b, "  %4d  %s\n", i, describeValue(c))
	}

	fmt.Fprintf(&b, "\n; globals: %s slot(s)\n", humanize.Comma(int64(res.NGlobals)))

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func writeCode(b *strings.Builder, code *vm.CompiledCode) {
	for i, instr := range code.Instructions {
		fmt.Fprintf(b, "  %4d  %-16s %d\n", i, instr.Op.String(), instr.Operand)
	}
}

func describeValue(v vm.Value) string {
	switch t := v.(type) {
	case vm.Unit:
		return "Unit"
	case vm.Int:
		return fmt.Sprintf("Int(%d)", t.Bits)
	case vm.Float:
		return fmt.Sprintf("Float(%g)", t.Bits)
	case vm.Bool:
		return fmt.Sprintf("Bool(%t)", bool(t))
	case vm.Str:
		return fmt.Sprintf("Str(%q)", string(t))
	case *vm.Function:
		var nested strings.Builder
		if t.Code != nil {
			writeCode(&nested, t.Code)
		}
		return fmt.Sprintf("Function(%s)\n%s", t.Name, nested.String())
	default:
		return fmt.Sprintf("%T", v)
	}
}

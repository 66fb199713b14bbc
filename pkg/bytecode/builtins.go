package bytecode

import (
	"fmt"

	"github.com/lunet-lang/lunet/pkg/value"
)

// NativeFn is a built-in function. It receives exclusive access to the
// VM state, reads its arguments starting at the call base plus one, and
// returns the number of result values (currently ignored).
type NativeFn func(s *ExeState) int

// builtinNames maps each built-in tag to the global name it is
// registered under.
var builtinNames = map[value.BuiltinID]string{
	value.BuiltinPrint: "print",
}

// builtinTable dispatches built-in tags to their implementations. The
// set is closed: bytecode can only reach what is registered here.
var builtinTable = map[value.BuiltinID]NativeFn{
	value.BuiltinPrint: libPrint,
}

// libPrint writes the display form of its single argument and a
// newline.
func libPrint(s *ExeState) int {
	fmt.Fprintln(s.Out, s.Arg(0).String())
	return 0
}

package oruby

// #include "go-mrb.h"
import "C"
import (
	"fmt"
	"io"
	"strings"
)

func init() {
	Gem("print", func(mrb *MrbState) error {
		// Override oruby print functions so oruby output follows state writer
		kernel := mrb.KernelModule()

		kernel.DefineMethod("print", printPrint, ArgsAny())
		kernel.DefineMethod("puts", printPuts, ArgsAny())
		kernel.DefineMethod("p", printP, ArgsAny())

		return nil
	})
}

func printPrint(mrb *MrbState, self Value) MrbValue {
	w := mrb.Stdout()
	for _, arg := range mrb.GetArgs() {
		fmt.Fprint(w, mrb.String(arg))
	}
	return mrb.NilValue()
}

func printPuts(mrb *MrbState, self Value) MrbValue {
	args := mrb.GetArgs()
	if len(args) == 0 {
		fmt.Fprintln(mrb.Stdout())
		return mrb.NilValue()
	}

	var sb strings.Builder
	for _, arg := range args {
		putsLines(mrb, &sb, arg)
	}
	io.WriteString(mrb.Stdout(), sb.String())

	return mrb.NilValue()
}

// putsLines writes value as puts would, arrays one item per line
func putsLines(mrb *MrbState, sb *strings.Builder, v Value) {
	if v.IsArray() {
		l := int(C._rarray_len(v.v))
		if l == 0 {
			sb.WriteString("\n")
		}
		for i := 0; i < l; i++ {
			putsLines(mrb, sb, Value{C._rarray_ref(v.v, C.mrb_int(i))})
		}
		return
	}

	s := mrb.String(v)
	sb.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		sb.WriteString("\n")
	}
}

func printP(mrb *MrbState, self Value) MrbValue {
	args := mrb.GetArgs()
	w := mrb.Stdout()
	for _, arg := range args {
		v, err := mrb.Funcall(arg, "inspect")
		if err != nil {
			return mrb.RaiseError(err)
		}
		fmt.Fprintln(w, mrb.String(v))
	}

	switch len(args) {
	case 0:
		return mrb.NilValue()
	case 1:
		return args[0]
	default:
		items := make([]MrbValue, len(args))
		for i := range args {
			items[i] = args[i]
		}
		return mrb.ArrayValue(items...)
	}
}

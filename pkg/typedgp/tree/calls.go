package tree

import (
	"fmt"
	"iter"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/lang"
)

// Calls flattens t into the sequence of abstract calls a code generator has
// to emit, in post-order. Each call binds its result to a new symbol named by
// formatting resultFormat with the call's emission index, e.g. "result_%d"
// yields result_0, result_1 and so on. Terminals are not emitted; they appear
// as the bare symbols passed as arguments.
//
// Iteration stops at the first error, which is yielded with a nil call.
func Calls(t *Tree, resultFormat string) iter.Seq2[*lang.Call, error] {
	return func(yield func(*lang.Call, error) bool) {
		var stack []lang.Value
		emitted := 0
		for n := range t.PostOrder() {
			op := n.Operator()
			if op.IsTerminal() {
				v, err := op.Call(nil, nil)
				if err != nil {
					yield(nil, err)
					return
				}
				stack = append(stack, v)
				continue
			}

			args := append([]lang.Value(nil), stack[len(stack)-op.Arity():]...)
			stack = stack[:len(stack)-op.Arity()]

			target, err := lang.NewSymbol(fmt.Sprintf(resultFormat, emitted), op.Dtype())
			if err != nil {
				yield(nil, err)
				return
			}
			v, err := op.Call(target, args)
			if err != nil {
				yield(nil, err)
				return
			}
			emitted++
			if !yield(v.(*lang.Call), nil) {
				return
			}
			stack = append(stack, target)
		}
	}
}

// Symbols yields the symbol of every terminal node in post-order.
func Symbols(t *Tree) iter.Seq[*lang.Symbol] {
	return func(yield func(*lang.Symbol) bool) {
		for n := range t.PostOrder() {
			if !n.IsTerminal() {
				continue
			}
			if !yield(n.Operator().Symbol()) {
				return
			}
		}
	}
}

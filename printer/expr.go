// Copyright 2025 dllxray Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package printer

import (
	"fmt"
	"strings"

	"github.com/gorse-io/dllxray/ir"
)

// renderExpr renders e, parenthesizing it if its outermost operator
// binds less tightly than minPrec (the minimum precedence the caller's
// context requires of it).
func (p *printState) renderExpr(e ir.Expr, minPrec int) string {
	s := p.renderInner(e)
	if exprPrecedence(e) < minPrec {
		return "(" + s + ")"
	}
	return s
}

func (p *printState) renderInner(e ir.Expr) string {
	switch e.Kind {
	case ir.EConst:
		return renderIntLiteral(e.IntVal)
	case ir.EUConst:
		return renderUintLiteral(e.UIntVal)
	case ir.ESymConst:
		return e.SymName
	case ir.EReg, ir.EParam, ir.ELocal:
		return e.Name
	case ir.ESegmentBase:
		return e.Segment.String() + "_base"
	case ir.EAddrOf:
		return "&" + p.renderExpr(*e.Operand, precUnary)
	case ir.ELoad:
		return p.renderLoad(e)
	case ir.EBinOp:
		return p.renderBinOp(e)
	case ir.EUnOp:
		return p.renderUnOp(e)
	case ir.ECompare:
		return p.renderCompare(e)
	case ir.ETernary:
		return fmt.Sprintf("%s ? %s : %s",
			p.renderExpr(*e.Cond, precTernary+1),
			p.renderExpr(*e.WhenTrue, precTernary+1),
			p.renderExpr(*e.WhenFalse, precTernary+1))
	case ir.ECast:
		return fmt.Sprintf("(%s)%s", e.TargetType.CName(p.opts.UseStdIntNames), p.renderExpr(*e.Operand, precUnary))
	case ir.ECall:
		return p.renderCall(e)
	case ir.EIntrinsic:
		return fmt.Sprintf("%s(%s)", e.IntrinsicName, p.renderArgList("", e.Args))
	case ir.ELabelRef:
		return e.Label.String()
	default:
		return "/* unknown expr */"
	}
}

func renderIntLiteral(v int64) string {
	if v < 0 {
		return "-" + renderUintLiteral(uint64(-v))
	}
	return renderUintLiteral(uint64(v))
}

func renderUintLiteral(v uint64) string {
	if v < 10 {
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("0x%x", v)
}

func (p *printState) renderLoad(e ir.Expr) string {
	addr := p.renderExpr(*e.Address, 0)
	if prefix := e.Segment.String(); prefix != "" {
		addr = prefix + ":" + addr
	}
	return fmt.Sprintf("*((%s*)(%s))", e.ElemType.CName(p.opts.UseStdIntNames), addr)
}

func (p *printState) renderBinOp(e ir.Expr) string {
	prec := binOpPrecedence(e.BinOp)
	left := p.renderExpr(*e.Left, prec)
	right := p.renderExpr(*e.Right, prec+1)
	return fmt.Sprintf("%s %s %s", left, binOpSymbol(e.BinOp), right)
}

func (p *printState) renderUnOp(e ir.Expr) string {
	operand := p.renderExpr(*e.Operand, precUnary)
	switch ir.UnOp(e.BinOp) {
	case ir.OpNeg:
		return "-" + operand
	case ir.OpNot:
		return "~" + operand
	case ir.OpLNot:
		return "!" + operand
	default:
		return "?" + operand
	}
}

func (p *printState) renderCompare(e ir.Expr) string {
	prec := cmpOpPrecedence(e.CmpOp)
	left := p.renderExpr(*e.Left, prec)
	right := p.renderExpr(*e.Right, prec+1)
	text := fmt.Sprintf("%s %s %s", left, cmpOpSymbol(e.CmpOp), right)
	if !p.opts.CommentSignednessOnCmp {
		return text
	}
	if e.CmpOp.Signed() {
		return text + " /* signed */"
	}
	if e.CmpOp.Unsigned() {
		return text + " /* unsigned */"
	}
	return text
}

func (p *printState) renderCall(e ir.Expr) string {
	callee := e.Call.Symbol
	if callee == "" {
		addr := "?"
		if e.Call.Address != nil {
			addr = p.renderExpr(*e.Call.Address, 0)
		}
		return fmt.Sprintf("(*(void (*)())(%s))(%s)", addr, p.renderArgList("", e.Args))
	}
	return fmt.Sprintf("%s(%s)", callee, p.renderArgList(callee, e.Args))
}

func (p *printState) renderArgList(callee string, args []ir.Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = p.renderArg(callee, i, a)
	}
	return strings.Join(parts, ", ")
}

// renderArg renders one call argument, substituting a symbolic constant
// name when the callee's argIndex is known to expect a given enum type
// and the argument folds to a compile-time constant (a bare literal, or
// a simple Or/Add of two constants).
func (p *printState) renderArg(callee string, argIndex int, a ir.Expr) string {
	if callee != "" {
		if enumName, ok := p.opts.provider().TryGetArgExpectedEnumType(callee, argIndex); ok {
			if v, ok := foldSimpleConst(a); ok {
				if found, formatted := p.opts.provider().TryFormatValue(enumName, v); found {
					return formatted
				}
			}
		}
	}
	return p.renderExpr(a, 0)
}

// foldSimpleConst evaluates a to a constant if it is a bare literal, or
// an Or/Add of two values that themselves fold to constants. This is
// intentionally narrow: it only exists to recognize flag-combination
// idioms like `FILE_READ_DATA | FILE_WRITE_DATA` at a call site, not to
// duplicate passes.FoldConstants.
func foldSimpleConst(e ir.Expr) (uint64, bool) {
	if e.IsLiteral() {
		return e.AsUint64(), true
	}
	if e.Kind != ir.EBinOp || (e.BinOp != ir.OpOr && e.BinOp != ir.OpAdd) {
		return 0, false
	}
	l, lok := foldSimpleConst(*e.Left)
	r, rok := foldSimpleConst(*e.Right)
	if !lok || !rok {
		return 0, false
	}
	if e.BinOp == ir.OpOr {
		return l | r, true
	}
	return l + r, true
}

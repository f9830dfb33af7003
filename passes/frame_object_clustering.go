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

package passes

import (
	"fmt"

	"github.com/gorse-io/dllxray/ir"
)

// FrameObjectClusteringAndRspAlias finds memset((rsp + K), 0, N) calls
// (the shape a zero-initializing loop over a stack array lowers to),
// introduces a local named frame_0xK of type uint8_t* initialized to
// (uint8_t*)(rsp + K), and rewrites every memory reference in fn
// addressed as rsp+D with D in [K, K+N), whether it comes before or
// after the call, to be expressed relative to frame_0xK instead of raw
// rsp arithmetic.
func FrameObjectClusteringAndRspAlias(fn *ir.FunctionIR) {
	fn.Walk(func(_, _ int, s *ir.Stmt) {
		if s.Kind != ir.SCall || s.Call == nil || s.Call.Kind != ir.EIntrinsic {
			return
		}
		if s.Call.IntrinsicName != "memset_pattern" && s.Call.IntrinsicName != "memset" {
			return
		}
		if len(s.Call.Args) < 3 {
			return
		}
		dst, val, count := s.Call.Args[0], s.Call.Args[1], s.Call.Args[2]
		k, ok := rspOffset(dst)
		if !ok || !isZeroLiteral(val) || !count.IsLiteral() {
			return
		}
		n := count.AsUint64()
		if n == 0 {
			return
		}

		name := frameLocalName(k)
		ptrType := ir.Pointer(ir.Int(8, false))
		init := ir.Cast(ptrType, dst)
		fn.AddLocal(ir.LocalInfo{Name: name, Type: ptrType, Initializer: &init})
		rewriteFrameReferences(fn, k, k+n, name)
	})
}

// rspOffset reports whether e is exactly "rsp + K" for a literal K,
// returning K.
func rspOffset(e ir.Expr) (uint64, bool) {
	if e.Kind != ir.EBinOp || e.BinOp != ir.OpAdd {
		return 0, false
	}
	if e.Left == nil || e.Right == nil {
		return 0, false
	}
	if e.Left.Kind != ir.EReg || e.Left.Name != "rsp" || !e.Right.IsLiteral() {
		return 0, false
	}
	return e.Right.AsUint64(), true
}

func frameLocalName(k uint64) string {
	return fmt.Sprintf("frame_0x%x", k)
}

// rewriteFrameReferences replaces every ELoad address (and SStore
// address) shaped "rsp + D", D in [lo, hi), with an address expressed
// relative to the frame_0xK local instead.
func rewriteFrameReferences(fn *ir.FunctionIR, lo, hi uint64, localName string) {
	rewrite := func(e ir.Expr) ir.Expr {
		if e.Kind != ir.ELoad {
			return e
		}
		d, ok := rspOffset(*e.Address)
		if !ok || d < lo || d >= hi {
			return e
		}
		newAddr := frameRelativeAddress(localName, d-lo)
		e.Address = &newAddr
		return e
	}
	walkFunctionExprs(fn, rewrite)

	for bi := range fn.Blocks {
		stmts := fn.Blocks[bi].Statements
		for si := range stmts {
			s := &stmts[si]
			if s.Kind != ir.SStore || s.Address == nil {
				continue
			}
			d, ok := rspOffset(*s.Address)
			if !ok || d < lo || d >= hi {
				continue
			}
			newAddr := frameRelativeAddress(localName, d-lo)
			s.Address = &newAddr
		}
	}
}

func frameRelativeAddress(localName string, offset uint64) ir.Expr {
	base := ir.Local(localName, 64)
	if offset == 0 {
		return base
	}
	return ir.Bin(ir.OpAdd, base, ir.UConst(offset, 64), 64)
}

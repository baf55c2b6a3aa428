package handler

import (
	"fmt"
	"go/token"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// lintPreInit reports package-level variables touched by the pre-init hook or
// by any function of the same package it reaches through static calls. Such
// memory is not initialized yet when the hook runs.
func (p *pass) lintPreInit(h *Handler) {
	prog, pkgs := ssautil.Packages([]*packages.Package{p.pkg}, ssa.InstantiateGenerics)
	ssaPkg := pkgs[0]
	if ssaPkg == nil {
		return
	}
	ssaPkg.Build()

	root := ssaPkg.Func(h.Name)
	if root == nil {
		return
	}

	calls := newCallGraph()
	for fn := range ssautil.AllFunctions(prog) {
		if fn.Pkg != ssaPkg {
			continue
		}
		for _, block := range fn.Blocks {
			for _, instr := range block.Instrs {
				switch instr := instr.(type) {
				case ssa.CallInstruction:
					if callee := instr.Common().StaticCallee(); callee != nil && callee.Pkg == ssaPkg {
						calls.edge(fn, callee)
					}
				case *ssa.MakeClosure:
					if callee, ok := instr.Fn.(*ssa.Function); ok {
						calls.edge(fn, callee)
					}
				}
			}
		}
	}

	reported := map[token.Pos]bool{}
	for _, fn := range calls.reachable(root) {
		for _, block := range fn.Blocks {
			for _, instr := range block.Instrs {
				for _, op := range instr.Operands(nil) {
					global, ok := (*op).(*ssa.Global)
					if !ok || reported[instr.Pos()] {
						continue
					}
					pos := instr.Pos()
					if !pos.IsValid() {
						pos = fn.Pos()
					}
					reported[instr.Pos()] = true
					p.report(pos, Warning, fmt.Errorf("%w: %s uses %s", ErrPreInitStatic, fn.Name(), global.Name()))
				}
			}
		}
	}
}

// callGraph is the static call graph of one package.
type callGraph struct {
	g     *simple.DirectedGraph
	nodes map[*ssa.Function]graph.Node
	funcs map[int64]*ssa.Function
}

func newCallGraph() *callGraph {
	return &callGraph{
		g:     simple.NewDirectedGraph(),
		nodes: map[*ssa.Function]graph.Node{},
		funcs: map[int64]*ssa.Function{},
	}
}

func (c *callGraph) node(fn *ssa.Function) graph.Node {
	if n, ok := c.nodes[fn]; ok {
		return n
	}
	n := c.g.NewNode()
	c.g.AddNode(n)
	c.nodes[fn] = n
	c.funcs[n.ID()] = fn
	return n
}

func (c *callGraph) edge(from, to *ssa.Function) {
	if from == to {
		return
	}
	c.g.SetEdge(c.g.NewEdge(c.node(from), c.node(to)))
}

// reachable returns root and every function it can call.
func (c *callGraph) reachable(root *ssa.Function) []*ssa.Function {
	var out []*ssa.Function
	walker := traverse.DepthFirst{
		Visit: func(n graph.Node) {
			out = append(out, c.funcs[n.ID()])
		},
	}
	walker.Walk(c.g, c.node(root), nil)
	return out
}

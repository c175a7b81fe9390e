// Package assembler builds the global admittance system from link stamps,
// per spec §4.3, and writes the solved potential vector back to the nodes.
package assembler

import (
	"github.com/nasa-gunns/gunns-go/pkg/link"
	"github.com/nasa-gunns/gunns-go/pkg/matrix"
	"github.com/nasa-gunns/gunns-go/pkg/node"
)

// Assembler owns the global (N-1)x(N-1) admittance system and the row
// index each non-ground node occupies in it.
type Assembler struct {
	nodes    []*node.Node
	rowOf    map[*node.Node]int // 1-based row index; absent for ground
	matrix   *matrix.NetworkMatrix
	lastDirty bool
}

// New builds an Assembler over nodes, assigning row indices to every
// non-ground node in slice order.
func New(nodes []*node.Node) (*Assembler, error) {
	rowOf := make(map[*node.Node]int, len(nodes))
	row := 1
	for _, n := range nodes {
		if n.IsGround() {
			continue
		}
		rowOf[n] = row
		row++
	}
	m, err := matrix.NewNetworkMatrix(row - 1)
	if err != nil {
		return nil, err
	}
	return &Assembler{nodes: nodes, rowOf: rowOf, matrix: m}, nil
}

// rowFor returns the 1-based row for n, or 0 if n is ground (meaning "no
// row, stamps against it become StampConductance/StampSource no-ops that
// the link should instead route through the single-port ground path").
func (a *Assembler) rowFor(n *node.Node) int {
	return a.rowOf[n]
}

// Assemble clears the system (if any link's admittance changed) and
// restamps every link's local admittance/source contribution into the
// global rows/columns, per spec §4.3's contract: A_ij is the sum of link
// stamp entries touching both i and j; b_i sums link source contributions
// plus the per-node correction/thermal/compression terms (added
// separately by the caller via StampNodeSource before calling Solve).
func (a *Assembler) Assemble(links []link.Link) {
	a.lastDirty = false
	for _, l := range links {
		if l.AdmittanceUpdate() {
			a.lastDirty = true
			break
		}
	}
	if !a.lastDirty {
		return
	}
	a.matrix.Clear()
	for _, l := range links {
		a.stampLink(l)
	}
}

func (a *Assembler) stampLink(l link.Link) {
	ports := l.NodeMap()
	admittance := l.AdmittanceMatrix()
	source := l.SourceVector()
	n := len(ports)

	nodesByPort := make([]*node.Node, n)
	for i := range ports {
		nodesByPort[i] = a.nodeAtPort(l, i)
	}

	for i := 0; i < n; i++ {
		ni := nodesByPort[i]
		ri := a.rowFor(ni)
		if ri > 0 {
			a.matrix.StampSource(ri, source[i])
		}
		for j := 0; j < n; j++ {
			nj := nodesByPort[j]
			rj := a.rowFor(nj)
			if ri > 0 && rj > 0 {
				a.matrix.StampConductance(ri, rj, admittance[i*n+j])
			}
		}
	}
}

// nodeAtPort resolves the *node.Node for local port i of l. Concrete links
// expose resolved node pointers internally; the assembler only needs the
// node's row, which it derives from the network's canonical node slice by
// port index via NodeMap().
func (a *Assembler) nodeAtPort(l link.Link, i int) *node.Node {
	idx := l.NodeMap()[i]
	return a.nodes[idx]
}

// StampNodeSource adds a per-node source-vector contribution (pressure
// correction, thermal capacitance, compression) directly, bypassing link
// stamps.
func (a *Assembler) StampNodeSource(n *node.Node, value float64) {
	if r := a.rowFor(n); r > 0 {
		a.matrix.StampSource(r, value)
	}
}

// StampNodeDiagonal adds a per-node capacitance/dt term to the diagonal,
// used by capacitive nodes' implicit-integration contribution to [A].
func (a *Assembler) StampNodeDiagonal(n *node.Node, value float64) {
	if r := a.rowFor(n); r > 0 {
		a.matrix.StampConductance(r, r, value)
	}
}

// Solve factors and solves the system, then writes the solved potentials
// back to every non-ground node. Ground's potential is left untouched
// (always its configured fixed value).
func (a *Assembler) Solve() error {
	if err := a.matrix.Solve(); err != nil {
		return err
	}
	for n, row := range a.rowOf {
		n.SetPotential(a.matrix.Potential(row))
	}
	return nil
}

// Residual returns ||Ap - b||_inf for the solver-tolerance check.
func (a *Assembler) Residual() float64 { return a.matrix.Residual() }

// Dirty reports whether the most recent Assemble call found any link with
// admittanceUpdate=true (and therefore re-stamped the whole system).
func (a *Assembler) Dirty() bool { return a.lastDirty }

// Destroy releases the underlying sparse matrix.
func (a *Assembler) Destroy() { a.matrix.Destroy() }

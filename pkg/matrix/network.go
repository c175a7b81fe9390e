// Package matrix wraps the sparse solver in the admittance-assembler
// vocabulary of spec §4.3/§4.4: conductance stamps and source stamps into
// an (N-1)x(N-1) system with the ground node's row/column excluded, solved
// by the sparse package's LU/Cholesky-equivalent factorization.
package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// NetworkMatrix is the global admittance system [A]{p}={b}, grounded on
// the teacher's CircuitMatrix (branch-current MNA with complex/AC support)
// but trimmed to the real, non-branch-unknown system the network solver
// needs: every row is a non-ground node, there are no separate branch-
// current unknowns, and the complex/AC machinery is dropped since the
// network carries no AC analysis mode.
type NetworkMatrix struct {
	size     int
	matrix   *sparse.Matrix
	config   *sparse.Configuration
	source   []float64 // 1-based indexing, length size+1
	solution []float64
}

// NewNetworkMatrix allocates a size x size admittance system (size = number
// of non-ground nodes).
func NewNetworkMatrix(size int) (*NetworkMatrix, error) {
	config := &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}
	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("admittance matrix allocation failed: %w", err)
	}
	return &NetworkMatrix{
		size:     size,
		matrix:   mat,
		config:   config,
		source:   make([]float64, size+1),
		solution: make([]float64, size+1),
	}, nil
}

// Size returns the number of non-ground node rows.
func (m *NetworkMatrix) Size() int { return m.size }

// StampConductance adds value to A[i][j] (1-based row/col, i,j in
// [1,Size()]). Out-of-range indices are ignored (a link stamping a port
// mapped to ground passes 0 and the caller is expected to skip it instead).
func (m *NetworkMatrix) StampConductance(i, j int, value float64) {
	if i <= 0 || j <= 0 || i > m.size || j > m.size {
		return
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
}

// StampSource adds value to b[i].
func (m *NetworkMatrix) StampSource(i int, value float64) {
	if i <= 0 || i > m.size {
		return
	}
	m.source[i] += value
}

// Clear zeroes the matrix and source vector before the next minor step's
// assembly.
func (m *NetworkMatrix) Clear() {
	m.matrix.Clear()
	for i := range m.source {
		m.source[i] = 0
	}
}

// Solve factors [A] and solves for {p}. It factors on every call; a
// previous factorization is not reused, even when the assembler skipped
// restamping because no link's admittance-update flag was set.
func (m *NetworkMatrix) Solve() error {
	if err := m.matrix.Factor(); err != nil {
		return fmt.Errorf("admittance matrix singular or non-PD: %w", err)
	}
	solution, err := m.matrix.Solve(m.source)
	if err != nil {
		return fmt.Errorf("admittance solve failed: %w", err)
	}
	m.solution = solution
	return nil
}

// Potential returns the solved potential at row i (1-based).
func (m *NetworkMatrix) Potential(i int) float64 {
	if i <= 0 || i > m.size {
		return 0
	}
	return m.solution[i]
}

// Residual computes ||Ap - b||_inf for the current solution, for the
// solver-tolerance check in spec §4.4/§8.
func (m *NetworkMatrix) Residual() float64 {
	maxAbs := 0.0
	for i := 1; i <= m.size; i++ {
		sum := 0.0
		for j := 1; j <= m.size; j++ {
			sum += m.matrix.GetElement(int64(i), int64(j)).Real * m.solution[j]
		}
		diff := sum - m.source[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > maxAbs {
			maxAbs = diff
		}
	}
	return maxAbs
}

// Destroy releases the underlying sparse matrix's native resources.
func (m *NetworkMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}

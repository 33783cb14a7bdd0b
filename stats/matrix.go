package stats

// Matrix is a dense rows×cols matrix of uint64 counter values: one row per
// canonical timestamp, one column per schema entry.  All arithmetic is
// modular uint64, which is what the rollover fixup depends on.
type Matrix struct {
	rows, cols int
	elts       []uint64
}

func newMatrix(rows, cols int) *Matrix {
	return &Matrix{
		rows: rows,
		cols: cols,
		elts: make([]uint64, rows*cols),
	}
}

func (a *Matrix) Rows() int { return a.rows }
func (a *Matrix) Cols() int { return a.cols }

func (a *Matrix) At(i, j int) uint64 {
	return a.elts[i*a.cols+j]
}

func (a *Matrix) set(i, j int, v uint64) {
	a.elts[i*a.cols+j] = v
}

func (a *Matrix) setRow(i int, vals []uint64) {
	copy(a.elts[i*a.cols:(i+1)*a.cols], vals)
}

// Row returns row i.  The slice aliases the matrix; callers must not
// mutate it.
func (a *Matrix) Row(i int) []uint64 {
	return a.elts[i*a.cols : (i+1)*a.cols]
}

// add accumulates b into a elementwise.  The shapes always match here: every
// matrix of a job has len(times) rows and one column per schema entry.
func (a *Matrix) add(b *Matrix) {
	for i := range a.elts {
		a.elts[i] += b.elts[i]
	}
}

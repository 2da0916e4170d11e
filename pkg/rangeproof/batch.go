package rangeproof

// Plan partitions outputs into contiguous range-proof batches.
type Plan struct {
	sizes  []int
	starts []int
	batch  []int // output index -> batch index
}

// DefaultGrouping returns one output per batch.
func DefaultGrouping(outputs int) []int {
	g := make([]int, outputs)
	for i := range g {
		g[i] = 1
	}
	return g
}

// NewPlan validates grouping against the output count and the proof system.
// An empty grouping selects DefaultGrouping.
func NewPlan(t Type, outputs int, grouping []int) (*Plan, error) {
	if outputs <= 0 {
		return nil, ErrInvalidGrouping
	}
	if len(grouping) == 0 {
		grouping = DefaultGrouping(outputs)
	}
	limit := BulletproofMaxOutputs
	if t == TypeBorromean {
		limit = 1
	}

	p := &Plan{
		sizes:  append([]int(nil), grouping...),
		starts: make([]int, len(grouping)),
		batch:  make([]int, 0, outputs),
	}
	total := 0
	for i, n := range grouping {
		if n <= 0 || n > limit {
			return nil, ErrInvalidGrouping
		}
		p.starts[i] = total
		for k := 0; k < n; k++ {
			p.batch = append(p.batch, i)
		}
		total += n
		if total > outputs {
			return nil, ErrInvalidGrouping
		}
	}
	if total != outputs {
		return nil, ErrInvalidGrouping
	}
	return p, nil
}

// Grouping returns the batch sizes.
func (p *Plan) Grouping() []int {
	return append([]int(nil), p.sizes...)
}

// Batches returns the number of batches.
func (p *Plan) Batches() int {
	return len(p.sizes)
}

// BatchOf returns the batch index of output idx and the output range [start, end) it covers.
func (p *Plan) BatchOf(idx int) (batch, start, end int) {
	batch = p.batch[idx]
	start = p.starts[batch]
	return batch, start, start + p.sizes[batch]
}

// IsLastInBatch reports whether output idx closes its batch.
func (p *Plan) IsLastInBatch(idx int) bool {
	_, _, end := p.BatchOf(idx)
	return idx == end-1
}

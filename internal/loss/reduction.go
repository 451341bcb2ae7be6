package loss

import "fmt"

// Reduction selects how per-triplet penalties are aggregated into one scalar.
type Reduction int

const (
	// ReductionMean divides the summed penalty by the number of contributing triplets.
	ReductionMean Reduction = iota
	// ReductionSum returns the summed penalty unchanged.
	ReductionSum
)

// ParseReduction converts "mean" or "sum" into a Reduction.
func ParseReduction(s string) (Reduction, error) {
	switch s {
	case "mean":
		return ReductionMean, nil
	case "sum":
		return ReductionSum, nil
	}
	return 0, &InvalidReductionError{Value: s}
}

func (r Reduction) String() string {
	switch r {
	case ReductionMean:
		return "mean"
	case ReductionSum:
		return "sum"
	}
	return fmt.Sprintf("Reduction(%d)", int(r))
}

// Valid reports whether r is one of the known reductions.
func (r Reduction) Valid() bool {
	return r == ReductionMean || r == ReductionSum
}

// MarshalText implements encoding.TextMarshaler.
func (r Reduction) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, &InvalidReductionError{Value: r.String()}
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Reduction) UnmarshalText(text []byte) error {
	v, err := ParseReduction(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

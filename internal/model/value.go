package model

// Value is an explicit optional metric value. A sector absent from the event
// data has no value, which is not the same thing as a zero count, so absence
// is carried as Valid == false rather than NaN or a sentinel float. This
// keeps accidental arithmetic on missing data impossible.
type Value struct {
	Float64 float64 `json:"value"`
	Valid   bool    `json:"valid"`
}

// Some wraps a present metric value.
func Some(v float64) Value {
	return Value{Float64: v, Valid: true}
}

// None is the absent value.
func None() Value {
	return Value{}
}

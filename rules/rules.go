// Package rules translates declarative strategy descriptions into
// executable decision functions.
//
// A strategy document is a tree of comparison and logical nodes
// referencing indicators or constants. The JSON field names (type, left,
// right, conditions, name, params, value) are a stable wire format:
// externally generated strategies feed this package directly, so they
// must not change.
package rules

import (
	"encoding/json"
	"fmt"
)

// Strategy is the top-level document. Entry and Exit each hold a list of
// conditions combined with implicit AND: a single failing condition
// voids the signal for that bar.
type Strategy struct {
	Name  string      `json:"name,omitempty"`
	Entry []Condition `json:"entry"`
	Exit  []Condition `json:"exit"`
}

// Condition is either a binary comparison (left, right set) or a boolean
// combinator (conditions set). Supported types: greaterThan, lessThan,
// equals, crossover, crossunder, and, or.
type Condition struct {
	Type       string      `json:"type"`
	Left       *Operand    `json:"left,omitempty"`
	Right      *Operand    `json:"right,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// Operand is a leaf: either a constant (value set) or an indicator
// reference (name plus params) evaluated at the current bar. Price
// fields (open, high, low, close, volume) are indicator references with
// no params.
type Operand struct {
	Name   string    `json:"name,omitempty"`
	Params []float64 `json:"params,omitempty"`
	Value  *float64  `json:"value,omitempty"`
}

// Parse decodes a strategy document from JSON.
func Parse(data []byte) (Strategy, error) {
	var s Strategy
	if err := json.Unmarshal(data, &s); err != nil {
		return Strategy{}, fmt.Errorf("rules: parse strategy: %w", err)
	}
	return s, nil
}

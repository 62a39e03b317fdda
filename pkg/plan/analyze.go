package plan

import (
	"fmt"
)

// Analyze checks a plan before execution and returns the layout of its
// output. It rejects nil inputs, out-of-range columns, negative limits and
// offsets, and Values whose tuples do not fit their shape.
func Analyze(node Node) (Layout, error) {
	switch n := node.(type) {
	case nil:
		return Layout{}, fmt.Errorf("%w: missing input", ErrInvalidPlan)

	case *Scan:
		if n == nil {
			return Layout{}, fmt.Errorf("%w: nil scan", ErrInvalidPlan)
		}
		return Layout{Shape: ShapeStatement, Width: ShapeStatement.Width()}, nil

	case *Values:
		if n == nil {
			return Layout{}, fmt.Errorf("%w: nil values", ErrInvalidPlan)
		}
		return analyzeValues(n)

	case *Source:
		if n == nil || n.Operator == nil {
			return Layout{}, fmt.Errorf("%w: source without an operator", ErrInvalidPlan)
		}
		shape := n.Operator.Shape()
		width := n.Width
		if width == 0 {
			width = shape.Width()
		}
		if width <= 0 {
			return Layout{}, fmt.Errorf("%w: source of shape %s needs a width", ErrInvalidPlan, shape)
		}
		if fixed := shape.Width(); fixed != 0 && fixed != width {
			return Layout{}, fmt.Errorf("%w: source of shape %s cannot have width %d", ErrInvalidPlan, shape, width)
		}
		return Layout{Shape: shape, Width: width}, nil

	case *Filter:
		if n == nil {
			return Layout{}, fmt.Errorf("%w: nil filter", ErrInvalidPlan)
		}
		input, err := Analyze(n.Input)
		if err != nil {
			return Layout{}, err
		}
		if err := checkColumn(n.Column, input); err != nil {
			return Layout{}, fmt.Errorf("filter: %w", err)
		}
		return input, nil

	case *Project:
		if n == nil {
			return Layout{}, fmt.Errorf("%w: nil projection", ErrInvalidPlan)
		}
		input, err := Analyze(n.Input)
		if err != nil {
			return Layout{}, err
		}
		if len(n.Columns) == 0 {
			return Layout{}, fmt.Errorf("%w: projection without columns", ErrInvalidPlan)
		}
		for _, c := range n.Columns {
			if err := checkColumn(c, input); err != nil {
				return Layout{}, fmt.Errorf("projection: %w", err)
			}
		}
		return Layout{Shape: ShapeFor(len(n.Columns)), Width: len(n.Columns)}, nil

	case *Join:
		if n == nil {
			return Layout{}, fmt.Errorf("%w: nil join", ErrInvalidPlan)
		}
		left, err := Analyze(n.Left)
		if err != nil {
			return Layout{}, err
		}
		right, err := Analyze(n.Right)
		if err != nil {
			return Layout{}, err
		}
		width := left.Width + right.Width - 1
		return Layout{Shape: ShapeFor(width), Width: width}, nil

	case *Dedup:
		if n == nil {
			return Layout{}, fmt.Errorf("%w: nil dedup", ErrInvalidPlan)
		}
		return Analyze(n.Input)

	case *Limit:
		if n == nil {
			return Layout{}, fmt.Errorf("%w: nil limit", ErrInvalidPlan)
		}
		if n.Limit < 0 {
			return Layout{}, fmt.Errorf("%w: negative limit %d", ErrInvalidPlan, n.Limit)
		}
		return Analyze(n.Input)

	case *Offset:
		if n == nil {
			return Layout{}, fmt.Errorf("%w: nil offset", ErrInvalidPlan)
		}
		if n.Offset < 0 {
			return Layout{}, fmt.Errorf("%w: negative offset %d", ErrInvalidPlan, n.Offset)
		}
		return Analyze(n.Input)

	default:
		return Layout{}, fmt.Errorf("%w: unsupported plan node %T", ErrInvalidPlan, node)
	}
}

func analyzeValues(n *Values) (Layout, error) {
	width := n.Shape.Width()
	if width == 0 && len(n.Tuples) > 0 {
		width = len(n.Tuples[0])
	}
	if width == 0 {
		return Layout{}, fmt.Errorf("%w: values of shape %s need at least one tuple", ErrInvalidPlan, n.Shape)
	}
	for i, t := range n.Tuples {
		if len(t) != width {
			return Layout{}, fmt.Errorf("%w: values tuple %d has width %d, expected %d", ErrInvalidPlan, i, len(t), width)
		}
	}
	return Layout{Shape: n.Shape, Width: width}, nil
}

func checkColumn(column int, input Layout) error {
	if column < 0 || column >= input.Width {
		return fmt.Errorf("%w: column %d out of range for width %d", ErrInvalidPlan, column, input.Width)
	}
	return nil
}

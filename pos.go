package glang

import "fmt"

// Location points at a single character within a glang source file.
// Both fields are 1-indexed.  Synthetic nodes (implicit returns,
// end-of-scope markers) borrow the location of the block that
// produced them.
type Location struct {
	Line   int
	Column int
}

func NewLocation(line, column int) Location {
	return Location{Line: line, Column: column}
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// IsZero reports whether the location was never stamped.
func (l Location) IsZero() bool {
	return l.Line == 0 && l.Column == 0
}

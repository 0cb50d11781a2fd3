package parser

import "fmt"

// Error reports a syntax problem: an unexpected token where a specific one
// was expected, or trailing input left over once an expression is parsed.
type Error struct {
	Message string
	Got     string
	Line    int
}

func (e *Error) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("parser: %s at line %d", e.Message, e.Line)
	}
	return fmt.Sprintf("parser: %s, got %q at line %d", e.Message, e.Got, e.Line)
}

package domain

import (
	"fmt"
	"time"
)

// Period is 1-indexed. 0 means the error applies to the whole run,
// e.g. bad parameters.

type ValidationError struct {
	Period    int
	Timestamp time.Time
	Field     string
	Message   string
}

func (e *ValidationError) Error() string {
	if e.Period == 0 {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s in period %d (%s): %s", e.Field, e.Period, e.Timestamp.Format(time.RFC3339), e.Message)
}

type ArithmeticError struct {
	Period    int
	Timestamp time.Time
	Message   string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic error in period %d (%s): %s", e.Period, e.Timestamp.Format(time.RFC3339), e.Message)
}

type EmptyInputError struct {
	Message string
}

func (e *EmptyInputError) Error() string {
	return "empty input: " + e.Message
}

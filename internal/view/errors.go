package view

import "fmt"

// InvalidParameterError reports a parameter value that cannot be applied.
// The view state is left unchanged.
type InvalidParameterError struct {
	Param string
	Value interface{}
	Err   error
}

func (e *InvalidParameterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid parameter %s=%v", e.Param, e.Value)
	}
	return fmt.Sprintf("invalid parameter %s=%v: %v", e.Param, e.Value, e.Err)
}

func (e *InvalidParameterError) Unwrap() error {
	return e.Err
}

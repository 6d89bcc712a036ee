package errors

// WrapOpComponent provides a convenience helper to wrap errors with consistent
// Op and Component propagation. If err is nil, returns nil.
func WrapOpComponent(err error, op Operation, component string) error {
	if err == nil {
		return nil
	}
	return NewWithComponent(op, component, err)
}

// WrapOpComponentCode wraps an error with Op, Component, and Code.
// If err is nil, returns nil.
func WrapOpComponentCode(err error, op Operation, component string, code Code) error {
	if err == nil {
		return nil
	}
	return &CartError{
		Op:        op,
		Component: component,
		Code:      code,
		Err:       err,
	}
}

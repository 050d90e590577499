package meal

// ValidationError reports user input that fails a form-level constraint, such
// as an empty ingredient name. It is handled by refusing the mutation; the
// prior state is left untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

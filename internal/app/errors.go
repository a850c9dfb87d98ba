package app

// DomainError is an error with an associated HTTP status and stable code.
// Handlers map everything else to 500.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *DomainError) Error() string {
	return e.Message
}

func domainError(status int, code, message string) *DomainError {
	return &DomainError{Status: status, Code: code, Message: message}
}

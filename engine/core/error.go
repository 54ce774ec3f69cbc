package core

import "fmt"

// Error is the structured error payload recorded on executions and
// workflow results. It carries enough context to render a failure to an
// operator without access to the original error value.
type Error struct {
	Message string         `json:"message"           yaml:"message"`
	Code    string         `json:"code,omitempty"    yaml:"code,omitempty"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

func NewError(err error, code string, details map[string]any) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: err.Error(),
		Code:    code,
		Details: details,
	}
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Package generr defines the typed errors raised while matching, extracting and
// emitting generated code.
package generr

import (
	"fmt"
	"strings"
)

// ErrorType defines the category of the error.
type ErrorType string

const (
	TypeSemantic ErrorType = "SemanticError"
	TypeEmission ErrorType = "EmissionError"
)

// GenError is the interface for all ecsgen errors.
type GenError interface {
	error
	Type() ErrorType
}

// BaseError provides common fields for ecsgen errors.
type BaseError struct {
	Msg     string
	ErrType ErrorType
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("[%s] %s", e.ErrType, e.Msg)
}

func (e *BaseError) Type() ErrorType {
	return e.ErrType
}

// Position is a source position attached to an error.
type Position struct {
	FilePath string
	Line     int
	Column   int
}

func (p Position) prefix() string {
	if p.Line <= 0 {
		return ""
	}
	if p.FilePath != "" {
		return fmt.Sprintf("%s:%d:%d ", p.FilePath, p.Line, p.Column)
	}
	return fmt.Sprintf("line %d:%d ", p.Line, p.Column)
}

// SemanticError is raised when the symbol model does not have the shape a
// generator requires, e.g. a setter without a value parameter.
type SemanticError struct {
	BaseError
	Position
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("[%s] %s%s", e.ErrType, e.prefix(), e.Msg)
}

// EmissionError is raised when a matched declaration cannot be rendered.
type EmissionError struct {
	BaseError
	Position
	// Decl is the name of the declaration being emitted.
	Decl string
}

func (e *EmissionError) Error() string {
	if e.Decl != "" {
		return fmt.Sprintf("[%s] %s%s: %s", e.ErrType, e.prefix(), e.Decl, e.Msg)
	}
	return fmt.Sprintf("[%s] %s%s", e.ErrType, e.prefix(), e.Msg)
}

// MultiError collects multiple errors.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s) occurred:\n", len(m.Errors)))
	for _, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("- %v\n", err))
	}
	return sb.String()
}

func (m *MultiError) Type() ErrorType {
	if len(m.Errors) > 0 {
		if ge, ok := m.Errors[0].(GenError); ok {
			return ge.Type()
		}
	}
	return "MultiError"
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Append adds err when it is non-nil.
func (m *MultiError) Append(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrOrNil returns m when it holds at least one error.
func (m *MultiError) ErrOrNil() error {
	if m == nil || len(m.Errors) == 0 {
		return nil
	}
	return m
}

// NewSemanticError creates a new SemanticError.
func NewSemanticError(msg string) *SemanticError {
	return &SemanticError{
		BaseError: BaseError{
			Msg:     msg,
			ErrType: TypeSemantic,
		},
	}
}

// NewSemanticErrorInFile creates a SemanticError with file path, line, and column position.
func NewSemanticErrorInFile(filePath string, line, column int, msg string) *SemanticError {
	return &SemanticError{
		BaseError: BaseError{
			Msg:     msg,
			ErrType: TypeSemantic,
		},
		Position: Position{FilePath: filePath, Line: line, Column: column},
	}
}

// NewEmissionError creates an EmissionError for the named declaration.
func NewEmissionError(decl, msg string) *EmissionError {
	return &EmissionError{
		BaseError: BaseError{
			Msg:     msg,
			ErrType: TypeEmission,
		},
		Decl: decl,
	}
}

// At records where the declaration is. A position already set is kept.
func (e *EmissionError) At(filePath string, line, column int) *EmissionError {
	if e.Line <= 0 {
		e.Position = Position{FilePath: filePath, Line: line, Column: column}
	}
	return e
}

// NewEmissionErrorf is NewEmissionError with a format string.
func NewEmissionErrorf(decl, format string, args ...any) *EmissionError {
	return NewEmissionError(decl, fmt.Sprintf(format, args...))
}

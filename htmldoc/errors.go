package htmldoc

import (
	"errors"
	"fmt"
)

// ErrUnbalanced is wrapped by every SyntaxError
var ErrUnbalanced = errors.New("htmldoc: unbalanced markup")

// SyntaxError reports a closing tag without a matching opening tag, or an
// element left open at the end of the input.
type SyntaxError struct {
	Tag    string
	Offset int // byte offset of the offending token, or the input length
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: %s <%s> at offset %d", e.Err, e.Msg, e.Tag, e.Offset)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func syntaxError(tag string, offset int, msg string) *SyntaxError {
	return &SyntaxError{Tag: tag, Offset: offset, Msg: msg, Err: ErrUnbalanced}
}

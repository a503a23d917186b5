// Package transcode converts between the linear markdown form of a document
// and its tree form. Implementations hold no state between calls.
package transcode

import (
	"errors"
	"fmt"

	"github.com/gerunddev/duomark/internal/doctree"
)

var (
	// ErrParse is matched by every error returned from a failed Parse
	ErrParse = errors.New("parse failure")
	// ErrSerialize is matched by every error returned from a failed Serialize
	ErrSerialize = errors.New("serialize failure")
)

// Transcoder converts markdown text to a document tree and back
type Transcoder interface {
	Parse(text string) (*doctree.Node, error)
	Serialize(tree *doctree.Node) (string, error)
}

// ParseError reports that text could not be turned into a tree
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse markdown: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// SerializeError reports that a tree could not be turned into text
type SerializeError struct {
	Err error
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("failed to serialize document: %v", e.Err)
}

func (e *SerializeError) Unwrap() error { return e.Err }

func (e *SerializeError) Is(target error) bool { return target == ErrSerialize }

// Func adapts a pair of plain functions into a Transcoder. Errors returned by
// the functions are wrapped into ParseError and SerializeError.
type Func struct {
	ParseFunc     func(text string) (*doctree.Node, error)
	SerializeFunc func(tree *doctree.Node) (string, error)
}

// Parse implements Transcoder
func (f Func) Parse(text string) (tree *doctree.Node, err error) {
	if f.ParseFunc == nil {
		return nil, &ParseError{Err: errors.New("no parse function configured")}
	}
	defer recoverInto(&err, func(cause error) error { return &ParseError{Err: cause} })

	tree, err = f.ParseFunc(text)
	if err != nil && !errors.Is(err, ErrParse) {
		err = &ParseError{Err: err}
	}
	return tree, err
}

// Serialize implements Transcoder
func (f Func) Serialize(tree *doctree.Node) (text string, err error) {
	if f.SerializeFunc == nil {
		return "", &SerializeError{Err: errors.New("no serialize function configured")}
	}
	defer recoverInto(&err, func(cause error) error { return &SerializeError{Err: cause} })

	text, err = f.SerializeFunc(tree)
	if err != nil && !errors.Is(err, ErrSerialize) {
		err = &SerializeError{Err: err}
	}
	return text, err
}

// recoverInto turns a panic in the calling function into an error built by wrap
func recoverInto(err *error, wrap func(error) error) {
	r := recover()
	if r == nil {
		return
	}
	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("panic: %v", r)
	}
	*err = wrap(cause)
}

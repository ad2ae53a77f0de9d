package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoImageSelected = errors.New("no image selected")
	ErrDecode          = errors.New("decode image")
	ErrEncode          = errors.New("compression failed")
)

type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	if e.Err == nil {
		return ErrEncode.Error()
	}
	return fmt.Sprintf("%s: %v", ErrEncode, e.Err)
}

func (e *EncodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrEncode}
	}
	return []error{ErrEncode, e.Err}
}

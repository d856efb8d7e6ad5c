package monologo

import "errors"

var (
	ErrInputNotFound   = errors.New("input not found")
	ErrImageDecode     = errors.New("cannot decode image")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrWrite           = errors.New("cannot write output")
)

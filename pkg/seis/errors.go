package seis

import "errors"

var (
	ErrInvalidMagic     = errors.New("invalid SEIS magic")
	ErrUnsupportedMajor = errors.New("unsupported SEIS major version")
	ErrCorruptFile      = errors.New("corrupt SEIS file")
	ErrMissingSection   = errors.New("missing SEIS section")
)

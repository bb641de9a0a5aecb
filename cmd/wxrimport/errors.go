package main

import (
	"errors"

	"github.com/ha1tch/wxrimport/xmlproc"
)

func isSyntaxErr(err error) bool {
	var perr *xmlproc.Error
	return errors.As(err, &perr) && perr.Kind == xmlproc.Syntax
}

func isUnsupportedErr(err error) bool {
	var perr *xmlproc.Error
	return errors.As(err, &perr) && perr.Kind == xmlproc.Unsupported
}

package cds

import "errors"

// ErrMalformedRequest is returned when a SOAP envelope can't be parsed
// or doesn't carry a recognized action.
var ErrMalformedRequest = errors.New("cds: malformed or unrecognized SOAP request")

// ErrUpstream wraps a CatalogClient failure encountered while serving
// a Browse request.
var ErrUpstream = errors.New("cds: upstream catalog error")

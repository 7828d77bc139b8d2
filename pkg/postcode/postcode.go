// Package postcode resolves UK postcodes to councils and regions via the
// postcodes.io API, with an in-process memoizing cache.
package postcode

import "context"

// Place is the result of a successful postcode lookup.
type Place struct {
	Postcode    string `json:"postcode"`
	CouncilName string `json:"council_name"`
	Region      string `json:"region"`
	Country     string `json:"country"`
}

// Lookup resolves a postcode to a Place. Implementations return (nil, nil)
// for a postcode with no match; errors mean the backend itself failed.
// Callers treat both as "no match" — a postcode can never fail a request.
type Lookup interface {
	Lookup(ctx context.Context, postcode string) (*Place, error)
}

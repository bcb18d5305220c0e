// Package tracer defines the domain vocabulary shared by every engine
// component: worker types and their fixed profiles, targets and their SCUP
// balance, the pathway network, and the Route value produced by routing.
//
// Everything in this package is immutable or returned by copy, so values can
// be passed between goroutines without synchronization.
package tracer

// Package throttle limits repeated failed sign-ins.
//
// A Limiter counts failures per key inside a fixed window. Once MaxFailures
// is reached, Allowed reports false until the window expires or Reset is
// called after a successful sign-in. Memory keeps the counters in process;
// Redis shares them between server instances.
package throttle

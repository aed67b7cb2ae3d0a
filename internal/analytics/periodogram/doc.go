// Package periodogram computes the generalized (floating-mean, error-weighted)
// Lomb-Scargle periodogram and the false-alarm probability of a peak.
//
// FAP methods are registered by name, mirroring the algorithm registries of the
// other analytics packages:
//
//	single     probability for one independent frequency
//	naive      single-frequency probability raised to the effective number of frequencies
//	davies     Davies upper bound
//	baluev     Baluev (2008) approximation, the default
//	bootstrap  resampled maximum-power distribution
//
// The statistics follow Zechmeister & Kürster (2009) for the power and
// Baluev (2008) for the significance.
package periodogram

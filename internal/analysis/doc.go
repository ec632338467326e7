// Package analysis characterises recorded motor signals.
//
//   - [PowerSpectrum]: single-sided amplitude spectrum of a uniformly sampled signal
//   - [DominantFrequency]: strongest non-DC component
//   - [Ripple]: mean, extremes and ripple ratio
//   - [Torque]: electromagnetic shaft torque rebuilt from stored samples
//
// Speed and torque ripple of six-step drive shows up at six times the
// electrical frequency:
//
//	f, _ := analysis.DominantFrequency(omega, 1/dt)
package analysis

// Package viz renders a running motor simulation in the terminal.
//
// [Model] is a Bubble Tea program that advances the simulation a fixed
// number of steps per frame and shows:
//
//   - a Braille rotor dial with the three phase axes
//   - speed, phase currents and the active switch pattern
//   - an asciigraph trace of the speed
//   - motor parameters that can be tuned while running
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	Tab   - Select next parameter
//	↑/↓   - Tune selected parameter by ±5%
//	+/-   - More or fewer steps per frame
//	?     - Show help overlay
//	Q     - Quit
package viz

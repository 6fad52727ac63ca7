// Package viz renders sandsim grids in the terminal.
//
// It is built on Bubble Tea and lipgloss:
//
//   - [Model]: live view that steps a simulation and accepts block drops
//   - [Player]: replays frames recorded by the storage package
//   - [App]: preset picker that opens a live view
//   - [RenderFrame] and [WriteGIF]: one-shot renderers for a frame
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Step once while paused
//	R     - Rebuild the scenario
//	O     - Drop a block at the marker (H/L to aim, D to change material)
//	G     - Toggle GIF recording
//	T     - Cycle color themes
//	?     - Show help overlay
package viz

// Package viz renders foil cycles and equilibrium datasets in the terminal.
//
// The package provides:
//
//   - [RecordTable], [CorrelationTable], [SummaryView]: lipgloss tables
//   - [CycleGraphs], [ScanGraph]: asciigraph charts
//   - [FoilView]: Braille side view of the heave path and the wing chord
//   - [Explorer]: interactive Bubble Tea model of one stroke cycle
//
// # Key Bindings
//
//	Tab     - Select the next stroke parameter
//	Up/Down - Adjust the selected parameter
//	S       - Solve the equilibrium and jump to it
//	Space   - Pause the stroke animation
//	C       - Cycle color themes
//	?       - Show help overlay
package viz

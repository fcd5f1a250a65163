// Package viz renders simulation results for the terminal.
//
//   - [PlotColumns]: line charts of recorded probes
//   - [Canvas]: Braille pixel canvas, used by [Phase]
//   - [MetricTable], [Header], [Sparkline]: styled summaries
//   - [TraceSVG], [PhaseSVG]: vector exports
//
// Colors come from the current [Theme]; set it with [SetTheme].
package viz

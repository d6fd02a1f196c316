// Package tui renders compression progress for the medialib CLI.
//
// [Model] is a bubbletea model fed by the orchestrator's progress channel;
// it quits when the channel is closed. Ctrl-C inside the model requests
// cancellation rather than exiting, so the run can finish its current move
// and report a summary. [RenderSummary] prints the final lipgloss table.
package tui

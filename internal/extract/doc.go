// Package extract locates the per-minute temperature series inside a loosely
// structured spreadsheet grid.
//
// Detection runs in two independent stages:
//
//	LocateAnchorRow(table, marker)             -> header row index
//	LocateNumericColumn(table, start, pred)    -> column index
//
// Extract combines them with the configured Options: the data region starts
// on the row after the marker row ("DATA PANTAUAN" by default), and the
// temperature column is the first one holding more than MinCount values above
// Threshold. Missing cells are dropped, not interpolated; dropped cells that
// sit between real samples are reported in Extraction.Gaps because they
// shift every later minute index by one.
package extract

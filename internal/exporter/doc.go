// Package exporter writes tables produced by the converter and the batch
// predictor.
//
// CSVWriter: CSV output with an optional UTF-8 BOM so Excel opens Chinese
// headers correctly. Tables are streamed row at a time through a StreamWriter.
//
// XLSXWriter: single-sheet workbook output with numeric cells preserved.
//
// Example usage:
//
//	err := exporter.WriteTable("data/train/load_0.2.csv", table)
//
//	w := exporter.NewCSVWriter("out", true)
//	stream, err := w.CreateStreamWriter("predictions.csv", headers)
package exporter

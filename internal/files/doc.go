// Package files reads tabular sources and discovers them on disk.
//
// Reading: ReadFile returns every sheet of a CSV or XLSX file as a raw grid
// of typed cells. Trim drops blank rows and columns and HeaderTable takes the
// first row as the header.
//
// Discovery: FindTabularFiles lists CSV and workbook files in a directory,
// Expand turns a file-or-directory argument into a file list.
//
// Example usage:
//
//	sheets, err := files.ReadFile("data/train/load_0.2.xlsx")
//
//	discovery := files.NewDiscovery("/path/to/base")
//	inputs, err := discovery.FindTabularFiles("data/predict")
package files

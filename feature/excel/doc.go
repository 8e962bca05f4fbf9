// Package excel loads XLSX worksheets as sync sources.
//
// The first row of the selected worksheet is the header; every following row
// becomes a field-name-to-value map. Cells arrive as the strings excelize
// renders, which suits the engine's string-normalized comparison.
package excel

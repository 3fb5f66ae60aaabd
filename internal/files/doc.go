// Package files finds batch log exports on disk and writes processing
// output next to them.
//
// Discovery lists the .dbf tables and .xlsx/.xlsm workbooks of a directory,
// skipping the "~$" lock files Excel leaves behind. Manager writes output
// files relative to a base directory, creating parents as needed and
// replacing files atomically.
package files

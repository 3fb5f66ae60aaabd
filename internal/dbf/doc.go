// Package dbf decodes dBase-family binary tables as exported by the plant
// process-control system.
//
// # Format
//
// A table is a 32 byte header, a list of 32 byte field descriptors closed by
// a 0x0D terminator, and fixed-length records. Byte 0 of every record is a
// deletion flag; records flagged with '*' are skipped.
//
//	offset  size  meaning
//	     4     4  record count (little endian)
//	     8     2  header length (little endian)
//	    10     2  record length (little endian)
//	    29     1  code page / language driver id
//	    32   32n  field descriptors
//
// # Usage
//
//	rows, err := dbf.Decode(data)
//	if err != nil {
//	    var decErr *dbf.DecodeError
//	    if errors.As(err, &decErr) {
//	        // decErr.Kind, decErr.Start, decErr.End
//	    }
//	}
//
// Decoded rows are untyped: each value is a string, a float64, a date string
// (YYYY-MM-DD), a bool, or nil. The package has no domain knowledge.
package dbf

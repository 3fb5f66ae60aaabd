package dbf

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// CodePage is the text codec selected from the header language driver byte
type CodePage struct {
	ID       byte
	Name     string
	Encoding encoding.Encoding
}

// Language driver ids with a dedicated codec. Everything else is read as
// Windows-1252.
const (
	codePageDOSUS    byte = 0x01
	codePageDOSMulti byte = 0x02
)

var defaultCodePage = CodePage{Name: "windows-1252", Encoding: charmap.Windows1252}

// SelectCodePage maps the header byte at offset 29 to a codec. It never
// fails: headers too short to carry the byte get the default codec.
func SelectCodePage(data []byte) CodePage {
	if len(data) <= offCodePage {
		return defaultCodePage
	}
	id := data[offCodePage]
	switch id {
	case codePageDOSUS:
		return CodePage{ID: id, Name: "cp437", Encoding: charmap.CodePage437}
	case codePageDOSMulti:
		return CodePage{ID: id, Name: "cp850", Encoding: charmap.CodePage850}
	default:
		cp := defaultCodePage
		cp.ID = id
		return cp
	}
}

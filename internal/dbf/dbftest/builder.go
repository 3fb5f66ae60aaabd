// Package dbftest builds small dBase tables in memory for tests.
package dbftest

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

type field struct {
	name     string
	typ      byte
	length   int
	decimals int
}

type record struct {
	deleted bool
	values  []string
}

// Builder assembles a table. Values are written left-aligned and space
// padded; numeric values are right-aligned as dBase writers do.
type Builder struct {
	codePage byte
	fields   []field
	records  []record
}

// NewBuilder returns an empty builder using the Windows-1252 code page id.
func NewBuilder() *Builder {
	return &Builder{codePage: 0x57}
}

// CodePage sets the language driver byte
func (b *Builder) CodePage(id byte) *Builder {
	b.codePage = id
	return b
}

// Field declares a column
func (b *Builder) Field(name string, typ byte, length, decimals int) *Builder {
	b.fields = append(b.fields, field{name: name, typ: typ, length: length, decimals: decimals})
	return b
}

// Record appends a live record
func (b *Builder) Record(values ...string) *Builder {
	b.records = append(b.records, record{values: values})
	return b
}

// Deleted appends a record flagged as deleted
func (b *Builder) Deleted(values ...string) *Builder {
	b.records = append(b.records, record{deleted: true, values: values})
	return b
}

// HeaderLength returns the header size the builder will declare
func (b *Builder) HeaderLength() int {
	return 32 + 32*len(b.fields) + 1
}

// RecordLength returns the record size the builder will declare
func (b *Builder) RecordLength() int {
	n := 1
	for _, f := range b.fields {
		n += f.length
	}
	return n
}

// Bytes renders the table, ending with the 0x1A end-of-file marker
func (b *Builder) Bytes() []byte {
	headerLen := b.HeaderLength()
	recordLen := b.RecordLength()

	buf := make([]byte, headerLen, headerLen+recordLen*len(b.records)+1)
	buf[0] = 0x03
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(b.records)))
	binary.LittleEndian.PutUint16(buf[8:], uint16(headerLen))
	binary.LittleEndian.PutUint16(buf[10:], uint16(recordLen))
	buf[29] = b.codePage

	for i, f := range b.fields {
		desc := buf[32+32*i : 64+32*i]
		copy(desc[0:11], f.name)
		desc[11] = f.typ
		desc[16] = byte(f.length)
		desc[17] = byte(f.decimals)
	}
	buf[headerLen-1] = 0x0D

	enc := charmap.Windows1252.NewEncoder()
	for _, r := range b.records {
		rec := make([]byte, recordLen)
		rec[0] = ' '
		if r.deleted {
			rec[0] = '*'
		}
		pos := 1
		for i, f := range b.fields {
			val := ""
			if i < len(r.values) {
				val = r.values[i]
			}
			encoded, err := enc.String(val)
			if err != nil {
				panic(fmt.Sprintf("dbftest: cannot encode %q: %v", val, err))
			}
			copy(rec[pos:pos+f.length], pad(encoded, f.length, f.typ == 'N' || f.typ == 'F'))
			pos += f.length
		}
		buf = append(buf, rec...)
	}

	return append(buf, 0x1A)
}

func pad(s string, n int, right bool) string {
	if len(s) >= n {
		return s[:n]
	}
	if right {
		return strings.Repeat(" ", n-len(s)) + s
	}
	return s + strings.Repeat(" ", n-len(s))
}

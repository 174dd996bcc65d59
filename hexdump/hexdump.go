package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// StartOffset is the address printed for the first byte
	StartOffset uint64

	// OffsetWidth is the width of the offset column in hex digits
	OffsetWidth int

	// MaxBytes truncates the dump (0 for no limit)
	MaxBytes int
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() Options {
	return Options{
		BytesPerLine: 16,
		OffsetWidth:  8,
	}
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 8
	}

	shown := data
	if options.MaxBytes > 0 && len(shown) > options.MaxBytes {
		shown = shown[:options.MaxBytes]
	}

	for offset := 0; offset < len(shown); offset += options.BytesPerLine {
		end := min(offset+options.BytesPerLine, len(shown))
		formatLine(writer, shown[offset:end], options.StartOffset+uint64(offset), options)
	}

	if len(shown) < len(data) {
		fmt.Fprintf(writer, "... %d more bytes\n", len(data)-len(shown))
	}
}

// formatLine formats a single line of the hex dump
func formatLine(writer io.Writer, data []byte, offset uint64, options Options) {
	fmt.Fprintf(writer, "%0*x  ", options.OffsetWidth, offset)

	half := options.BytesPerLine / 2
	parts := make([]string, 0, options.BytesPerLine+1)
	for i := 0; i < options.BytesPerLine; i++ {
		if i == half && options.BytesPerLine >= 8 {
			parts = append(parts, "|")
		}
		if i < len(data) {
			parts = append(parts, fmt.Sprintf("%02x", data[i]))
		} else {
			// keep the ASCII column aligned on short lines
			parts = append(parts, "  ")
		}
	}
	fmt.Fprint(writer, strings.Join(parts, " "))

	fmt.Fprint(writer, "  |")
	for _, b := range data {
		if b >= 0x20 && b < 0x7f {
			fmt.Fprintf(writer, "%c", b)
		} else {
			fmt.Fprint(writer, ".")
		}
	}
	fmt.Fprintln(writer, "|")
}

// DumpBytes creates a simple hex dump with default options
func DumpBytes(data []byte) string {
	return Dump(data, DefaultOptions())
}

// Preview dumps at most limit bytes of data labelled from base
func Preview(data []byte, base uint64, limit int) string {
	options := DefaultOptions()
	options.StartOffset = base
	options.OffsetWidth = 16
	options.MaxBytes = limit
	return Dump(data, options)
}

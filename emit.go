package monologo

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

const (
	// ArrayName is the identifier of the emitted array.
	ArrayName = "PapyrixLogo"
	// ValuesPerLine is how many byte literals go on one line.
	ValuesPerLine = 19

	indent = "    "
)

// WriteHeader renders data as a C++ header declaring
// static const uint8_t PapyrixLogo[].
func WriteHeader(w io.Writer, data []byte) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("#pragma once\n")
	bw.WriteString("#include <cstdint>\n")
	bw.WriteString("\n")
	fmt.Fprintf(bw, "static const uint8_t %s[] = {\n", ArrayName)

	for i, v := range data {
		if i%ValuesPerLine == 0 {
			bw.WriteString(indent)
		}
		fmt.Fprintf(bw, "0x%02X", v)
		if i < len(data)-1 {
			bw.WriteString(", ")
		}
		if (i+1)%ValuesPerLine == 0 {
			bw.WriteString("\n")
		}
	}
	if len(data)%ValuesPerLine != 0 {
		bw.WriteString("\n")
	}

	bw.WriteString("};\n")
	return bw.Flush()
}

// WriteHeaderFile renders the header in memory and then writes it to path,
// replacing any existing file.
func WriteHeaderFile(path string, data []byte) error {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, data); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

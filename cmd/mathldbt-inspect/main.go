// Command mathldbt-inspect decodes a MATHLDBT v1 frame and prints its
// schema, row count, and the on-wire encoding chosen for each column.
//
// Usage:
//
//	mathldbt-inspect [file]
//
// With no argument, the frame is read from stdin.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mathilde-trade/mathldbt/codec"
)

func main() {
	data, err := readInput(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	summary, err := codec.Inspect(data)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("row_count: %d\n", summary.RowCount)
	fmt.Printf("columns: %d\n", len(summary.Columns))
	for i, col := range summary.Columns {
		name := col.Name
		if !col.HasName {
			name = "(unnamed)"
		}
		fmt.Printf("  [%d] %-20s type=%-18s encoding=%-16s payload_bytes=%d\n",
			i, name, col.Type, codec.EncodingName(col.EncodingID), col.PayloadBytes)
	}
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

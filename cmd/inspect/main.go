package main

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/ipc"
	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
	"gopkg.in/alecthomas/kingpin.v2"
)

// Decodes an encoded buffer dumped to disk and rewrites it as a Parquet file
// for offline inspection.
func main() {
	app := kingpin.New("inspect", "Convert an encoded buffer to a Parquet file.")
	input := app.Flag("input", "Path to the encoded buffer.").Required().String()
	output := app.Flag("output", "Path of the Parquet file to write.").Required().String()
	if _, err := app.Parse(os.Args[1:]); err != nil {
		log.Fatalln(err)
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalln(err)
	}

	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		log.Fatalln(err)
	}
	defer reader.Release()

	records := make([]arrow.Record, 0, 1)
	for reader.Next() {
		record := reader.Record()
		record.Retain()
		defer record.Release()
		records = append(records, record)
	}
	if err := reader.Err(); err != nil {
		log.Fatalln(err)
	}
	if len(records) == 0 {
		log.Fatalln("buffer holds no record batches")
	}

	table := array.NewTableFromRecords(reader.Schema(), records)
	defer table.Release()

	out, err := os.Create(*output)
	if err != nil {
		log.Fatalln(err)
	}
	defer out.Close()

	props := parquet.NewWriterProperties()
	if err := pqarrow.WriteTable(table, out, table.NumRows(), props, pqarrow.DefaultWriterProps()); err != nil {
		log.Fatalln(err)
	}
	fmt.Println("wrote", table.NumRows(), "rows to", *output)
}

package errors

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	FileOp   string `json:"file_op,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	CSVLine  int    `json:"csv_line,omitempty"`
	CSVCol   int    `json:"csv_column,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		d.FileOp = pathErr.Op
		d.FilePath = pathErr.Path
	}

	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		d.CSVLine = csvErr.Line
		d.CSVCol = csvErr.Column
	}

	return d
}

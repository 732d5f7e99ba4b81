package pricing

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DhKDc/precios3d/models"
)

// SnapshotWriter writes a materialized price list. Unlike the history file,
// the price list is fully overwritten each run.
type SnapshotWriter interface {
	Write(snapshots []*models.PriceSnapshot) error
	Close() error
	Validate() error
}

// NewWriter builds a writer for the given output format.
func NewWriter(format, filename string) (SnapshotWriter, error) {
	switch format {
	case "csv":
		return NewCSVWriter(filename)
	case "json":
		return NewJSONWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// CSVWriter writes the price list as CSV.
type CSVWriter struct {
	filename string
	file     *os.File
	writer   *csv.Writer
}

// NewCSVWriter truncates filename and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create price list: %w", err)
	}

	writer := csv.NewWriter(f)
	header := []string{"Product Name", "Price", "Stock", "Brand", "Category"}
	if err := writer.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write price list header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush price list header: %w", err)
	}

	return &CSVWriter{filename: filename, file: f, writer: writer}, nil
}

// Write appends snapshots to the price list.
func (cw *CSVWriter) Write(snapshots []*models.PriceSnapshot) error {
	for _, snapshot := range snapshots {
		row := []string{
			snapshot.ProductName,
			strconv.FormatFloat(snapshot.Price, 'f', -1, 64),
			snapshot.Stock,
			snapshot.Brand,
			snapshot.Category,
		}
		if err := cw.writer.Write(row); err != nil {
			return fmt.Errorf("write price list row: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush price list rows: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush price list writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the written file exists and is non-empty. Safe to call
// after Close.
func (cw *CSVWriter) Validate() error {
	info, err := os.Stat(cw.filename)
	if err != nil {
		return fmt.Errorf("stat price list: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("price list is empty")
	}
	return nil
}

// JSONWriter writes the price list as newline-delimited JSON.
type JSONWriter struct {
	filename string
	file     *os.File
	writer   *bufio.Writer
	encoder  *json.Encoder
}

// NewJSONWriter initialises the JSON writer, truncating filename.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json price list: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		filename: filename,
		file:     f,
		writer:   buffer,
		encoder:  json.NewEncoder(buffer),
	}, nil
}

// Write appends snapshots in JSONL format.
func (jw *JSONWriter) Write(snapshots []*models.PriceSnapshot) error {
	for _, snapshot := range snapshots {
		if err := jw.encoder.Encode(snapshot); err != nil {
			return fmt.Errorf("encode price list row: %w", err)
		}
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json price list: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json price list: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data. Safe to call after Close.
func (jw *JSONWriter) Validate() error {
	info, err := os.Stat(jw.filename)
	if err != nil {
		return fmt.Errorf("stat json price list: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json price list is empty")
	}
	return nil
}

// DualWriter writes both CSV and JSON price lists.
type DualWriter struct {
	csvWriter  *CSVWriter
	jsonWriter *JSONWriter
}

// NewDualWriter creates writers for both output files.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, err
	}
	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, err
	}
	return &DualWriter{csvWriter: csvWriter, jsonWriter: jsonWriter}, nil
}

// Write writes snapshots to both outputs.
func (dw *DualWriter) Write(snapshots []*models.PriceSnapshot) error {
	if err := dw.csvWriter.Write(snapshots); err != nil {
		return err
	}
	return dw.jsonWriter.Write(snapshots)
}

// Close closes both writers.
func (dw *DualWriter) Close() error {
	var errs []error
	if err := dw.csvWriter.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := dw.jsonWriter.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close price list writers: %v", errs)
	}
	return nil
}

// Validate validates both output files.
func (dw *DualWriter) Validate() error {
	if err := dw.csvWriter.Validate(); err != nil {
		return err
	}
	return dw.jsonWriter.Validate()
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

package rag

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ExportFormat defines the available export formats
type ExportFormat int

const (
	// ExportFormatJSONL exports as JSON Lines (one JSON object per line)
	ExportFormatJSONL ExportFormat = iota
	// ExportFormatJSON exports as a JSON array
	ExportFormatJSON
	// ExportFormatCSV exports as comma-separated values
	ExportFormatCSV
	// ExportFormatTSV exports as tab-separated values
	ExportFormatTSV
)

// String returns a human-readable representation of the export format
func (ef ExportFormat) String() string {
	switch ef {
	case ExportFormatJSONL:
		return "jsonl"
	case ExportFormatJSON:
		return "json"
	case ExportFormatCSV:
		return "csv"
	case ExportFormatTSV:
		return "tsv"
	default:
		return "unknown"
	}
}

// FileExtension returns the typical file extension for this format
func (ef ExportFormat) FileExtension() string {
	switch ef {
	case ExportFormatJSONL:
		return ".jsonl"
	case ExportFormatJSON:
		return ".json"
	case ExportFormatCSV:
		return ".csv"
	case ExportFormatTSV:
		return ".tsv"
	default:
		return ".txt"
	}
}

// ParseExportFormat maps a format name or file extension to an ExportFormat
func ParseExportFormat(name string) (ExportFormat, bool) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "jsonl", "ndjson":
		return ExportFormatJSONL, true
	case "json":
		return ExportFormatJSON, true
	case "csv":
		return ExportFormatCSV, true
	case "tsv":
		return ExportFormatTSV, true
	}
	return ExportFormatJSONL, false
}

// ExportConfig holds configuration options for export
type ExportConfig struct {
	Format ExportFormat

	// IncludeMetadata adds the chunk metadata to JSON records
	IncludeMetadata bool

	// UseContextText exports TextWithContext instead of Text
	UseContextText bool

	// IncludeHeader writes a header row in CSV/TSV exports
	IncludeHeader bool

	// PrettyPrint indents JSON output
	PrettyPrint bool
}

// DefaultExportConfig returns the default export configuration
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		Format:          ExportFormatJSONL,
		IncludeMetadata: true,
		IncludeHeader:   true,
	}
}

// CSVExportConfig returns a configuration for CSV export
func CSVExportConfig() ExportConfig {
	config := DefaultExportConfig()
	config.Format = ExportFormatCSV
	return config
}

// TSVExportConfig returns a configuration for TSV export
func TSVExportConfig() ExportConfig {
	config := DefaultExportConfig()
	config.Format = ExportFormatTSV
	return config
}

// Exporter writes chunks in one of the export formats
type Exporter struct {
	config ExportConfig
}

// NewExporter creates an exporter with the default configuration
func NewExporter() *Exporter {
	return &Exporter{config: DefaultExportConfig()}
}

// NewExporterWithConfig creates an exporter with a custom configuration
func NewExporterWithConfig(config ExportConfig) *Exporter {
	return &Exporter{config: config}
}

// ExportedChunk is the record written for each chunk
type ExportedChunk struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata *ChunkMetadata `json:"metadata,omitempty"`
}

// csvColumns are the columns of CSV and TSV exports
var csvColumns = []string{
	"chunk_id", "text", "document_title", "section_path", "heading_level",
	"chunk_index", "level", "block_types", "char_count", "word_count",
}

// Export writes chunks to w
func (e *Exporter) Export(chunks []*Chunk, w io.Writer) error {
	switch e.config.Format {
	case ExportFormatJSONL:
		return e.exportJSONL(chunks, w)
	case ExportFormatJSON:
		return e.exportJSON(chunks, w)
	case ExportFormatCSV:
		return e.exportCSV(chunks, w, ',')
	case ExportFormatTSV:
		return e.exportCSV(chunks, w, '\t')
	default:
		return fmt.Errorf("unsupported export format: %v", e.config.Format)
	}
}

// ExportToString exports chunks to a string
func (e *Exporter) ExportToString(chunks []*Chunk) (string, error) {
	var buf bytes.Buffer
	if err := e.Export(chunks, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Exporter) prepare(chunk *Chunk) ExportedChunk {
	exported := ExportedChunk{ID: chunk.ID, Text: e.text(chunk)}
	if e.config.IncludeMetadata {
		meta := chunk.Metadata
		exported.Metadata = &meta
	}
	return exported
}

func (e *Exporter) text(chunk *Chunk) string {
	if e.config.UseContextText {
		return chunk.TextWithContext
	}
	return chunk.Text
}

func (e *Exporter) exportJSONL(chunks []*Chunk, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if e.config.PrettyPrint {
		encoder.SetIndent("", "  ")
	}
	for i, chunk := range chunks {
		if err := encoder.Encode(e.prepare(chunk)); err != nil {
			return fmt.Errorf("encoding chunk %d: %w", i, err)
		}
	}
	return nil
}

func (e *Exporter) exportJSON(chunks []*Chunk, w io.Writer) error {
	exported := make([]ExportedChunk, len(chunks))
	for i, chunk := range chunks {
		exported[i] = e.prepare(chunk)
	}
	encoder := json.NewEncoder(w)
	if e.config.PrettyPrint {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(exported)
}

func (e *Exporter) exportCSV(chunks []*Chunk, w io.Writer, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if e.config.IncludeHeader {
		if err := cw.Write(csvColumns); err != nil {
			return fmt.Errorf("writing CSV header: %w", err)
		}
	}
	for i, chunk := range chunks {
		m := chunk.Metadata
		row := []string{
			chunk.ID,
			e.text(chunk),
			m.DocumentTitle,
			chunk.SectionPathString(),
			strconv.Itoa(m.HeadingLevel),
			strconv.Itoa(m.ChunkIndex),
			m.Level.String(),
			strings.Join(m.BlockTypes, ";"),
			strconv.Itoa(m.CharCount),
			strconv.Itoa(m.WordCount),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Package rag splits document trees into chunks for retrieval-augmented
// generation and exports them for embedding pipelines.
//
// # Chunking
//
// The [Chunker] walks the top-level blocks of a document. Headings up to
// [ChunkerConfig.MinHeadingLevel] open a new section; every chunk records the
// path of headings above it. A section that fits in
// [ChunkerConfig.MaxChunkSize] becomes one chunk. Larger sections are split
// between blocks, and a single oversized paragraph is split between
// sentences. Tables, lists and code blocks are never split.
//
//	chunker := rag.NewChunker()
//	result, err := chunker.Chunk(doc)
//
// Chunk text is markdown, so tables and lists keep their structure.
//
// # Export
//
// The [Exporter] writes chunks as JSON Lines, a JSON array, CSV or TSV:
//
//	exporter := rag.NewExporterWithConfig(rag.CSVExportConfig())
//	err := exporter.Export(result.Chunks, w)
package rag

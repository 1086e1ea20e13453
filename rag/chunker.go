package rag

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/tsawler/markit/markdown"
	"github.com/tsawler/markit/model"
)

// ErrNotDocument is returned when the chunker is given a node that is not a
// document root.
var ErrNotDocument = errors.New("rag: not a document")

// ChunkLevel represents how a chunk was cut from its section
type ChunkLevel int

const (
	// ChunkLevelSection is a whole section
	ChunkLevelSection ChunkLevel = iota
	// ChunkLevelBlock is a run of blocks from an oversized section
	ChunkLevelBlock
	// ChunkLevelSentence is a run of sentences from an oversized paragraph
	ChunkLevelSentence
)

// String returns a human-readable representation of the chunk level
func (cl ChunkLevel) String() string {
	switch cl {
	case ChunkLevelSection:
		return "section"
	case ChunkLevelBlock:
		return "block"
	case ChunkLevelSentence:
		return "sentence"
	default:
		return "unknown"
	}
}

// ChunkMetadata describes where a chunk sits in its document
type ChunkMetadata struct {
	// DocumentTitle is the "title" entry of the document data
	DocumentTitle string `json:"document_title,omitempty"`

	// SectionPath holds the headings above the chunk, outermost first
	SectionPath []string `json:"section_path,omitempty"`

	// SectionTitle is the innermost heading (last element of SectionPath)
	SectionTitle string `json:"section_title,omitempty"`

	// HeadingLevel is the level of the section heading, 0 before the first heading
	HeadingLevel int `json:"heading_level,omitempty"`

	ChunkIndex  int        `json:"chunk_index"`
	TotalChunks int        `json:"total_chunks,omitempty"`
	Level       ChunkLevel `json:"level"`

	// BlockTypes lists the block types in the chunk in order of appearance
	BlockTypes []string `json:"block_types,omitempty"`

	HasTable bool `json:"has_table,omitempty"`
	HasList  bool `json:"has_list,omitempty"`
	HasCode  bool `json:"has_code,omitempty"`
	HasImage bool `json:"has_image,omitempty"`

	CharCount int `json:"char_count"`
	WordCount int `json:"word_count"`

	// EstimatedTokens is a rough token count (chars/4)
	EstimatedTokens int `json:"estimated_tokens"`
}

// Chunk is a piece of a document prepared for retrieval
type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`

	// TextWithContext is the text preceded by the section path
	TextWithContext string `json:"text_with_context,omitempty"`

	Metadata ChunkMetadata `json:"metadata"`
}

// NewChunk creates a chunk and fills in its text statistics
func NewChunk(id, text string, metadata ChunkMetadata) *Chunk {
	metadata.CharCount = len(text)
	metadata.WordCount = countWords(text)
	metadata.EstimatedTokens = len(text) / 4

	chunk := &Chunk{
		ID:       id,
		Text:     text,
		Metadata: metadata,
	}
	chunk.TextWithContext = chunk.contextualText()
	return chunk
}

func (c *Chunk) contextualText() string {
	if len(c.Metadata.SectionPath) == 0 {
		return c.Text
	}
	return fmt.Sprintf("[%s]\n\n%s", c.SectionPathString(), c.Text)
}

// SectionPathString returns the section path joined with " > "
func (c *Chunk) SectionPathString() string {
	return strings.Join(c.Metadata.SectionPath, " > ")
}

// ChunkerConfig holds configuration options for the chunker
type ChunkerConfig struct {
	// MaxChunkSize is the size limit for chunks in bytes. Tables, lists
	// and code blocks larger than the limit become chunks of their own.
	// Default: 2000
	MaxChunkSize int

	// MinChunkSize is the size below which a chunk is merged into the
	// next chunk of the same section.
	// Default: 100
	MinChunkSize int

	// MinHeadingLevel is the deepest heading level that opens a section.
	// Deeper headings stay in the chunk text.
	// Default: 3
	MinHeadingLevel int

	// IncludeHeadings keeps the section heading as the first line of the
	// first chunk of each section.
	// Default: true
	IncludeHeadings bool

	// IDPrefix is a prefix for generated chunk IDs
	// Default: "chunk"
	IDPrefix string

	// Markdown selects the syntax the chunk text is printed with
	Markdown markdown.Options
}

// DefaultChunkerConfig returns the default configuration
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxChunkSize:    2000,
		MinChunkSize:    100,
		MinHeadingLevel: 3,
		IncludeHeadings: true,
		IDPrefix:        "chunk",
		Markdown:        markdown.DefaultOptions(),
	}
}

// Chunker splits documents into chunks
type Chunker struct {
	config ChunkerConfig
}

// NewChunker creates a chunker with the default configuration
func NewChunker() *Chunker {
	return &Chunker{config: DefaultChunkerConfig()}
}

// NewChunkerWithConfig creates a chunker with a custom configuration
func NewChunkerWithConfig(config ChunkerConfig) *Chunker {
	return &Chunker{config: config}
}

// ChunkResult contains the chunking output
type ChunkResult struct {
	// Chunks are the generated chunks in reading order
	Chunks []*Chunk

	DocumentTitle string
	Stats         ChunkStats
}

// ChunkStats summarizes a chunking run
type ChunkStats struct {
	TotalChunks     int
	TotalCharacters int
	TotalWords      int
	TotalTokensEst  int
	AvgChunkSize    int
	MinChunkSize    int
	MaxChunkSize    int
	SectionChunks   int
	BlockChunks     int
	SentenceChunks  int
}

// section is a heading with the blocks up to the next heading of the same
// or a higher level
type section struct {
	title  string
	level  int
	path   []string
	blocks []piece
}

// piece is a block printed as markdown
type piece struct {
	node model.Node
	text string
}

// Chunk splits a document into chunks
func (c *Chunker) Chunk(doc model.Node) (*ChunkResult, error) {
	if !doc.IsDocument() {
		return nil, ErrNotDocument
	}
	sections, err := c.buildSections(doc)
	if err != nil {
		return nil, err
	}

	result := &ChunkResult{DocumentTitle: doc.Data.String("title")}
	index := 0
	for _, s := range sections {
		result.Chunks = append(result.Chunks, c.chunkSection(s, &index, result.DocumentTitle)...)
	}
	for _, chunk := range result.Chunks {
		chunk.Metadata.TotalChunks = len(result.Chunks)
	}
	result.Stats = calculateStats(result.Chunks)
	return result, nil
}

// buildSections groups the top-level blocks under their headings
func (c *Chunker) buildSections(doc model.Node) ([]*section, error) {
	maxLevel := c.config.MinHeadingLevel
	if maxLevel <= 0 {
		maxLevel = 3
	}
	var path []string
	var levels []int
	current := &section{}
	sections := []*section{current}

	for _, n := range doc.Nodes {
		if level := model.HeadingLevel(n.Type); level > 0 && level <= maxLevel {
			for len(levels) > 0 && levels[len(levels)-1] >= level {
				levels = levels[:len(levels)-1]
				path = path[:len(path)-1]
			}
			title := strings.TrimSpace(n.Text())
			levels = append(levels, level)
			path = append(path, title)
			current = &section{
				title: title,
				level: level,
				path:  append([]string(nil), path...),
			}
			sections = append(sections, current)
			if !c.config.IncludeHeadings {
				continue
			}
		}
		text, err := markdown.Render(c.config.Markdown, n)
		if err != nil {
			return nil, fmt.Errorf("printing %s block: %w", n.Type, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			current.blocks = append(current.blocks, piece{node: n, text: text})
		}
	}
	return sections, nil
}

// chunkSection cuts a section into chunks of at most MaxChunkSize bytes
func (c *Chunker) chunkSection(s *section, index *int, docTitle string) []*Chunk {
	limit := c.config.MaxChunkSize
	if limit <= 0 {
		limit = 2000
	}
	if size := joinedSize(s.blocks); size == 0 {
		return nil
	} else if size <= limit {
		return []*Chunk{c.createChunk(s, s.blocks, ChunkLevelSection, index, docTitle)}
	}

	var chunks []*Chunk
	var pending []piece
	size := 0
	flush := func() {
		if len(pending) > 0 {
			chunks = append(chunks, c.createChunk(s, pending, ChunkLevelBlock, index, docTitle))
		}
		pending, size = nil, 0
	}

	for _, p := range s.blocks {
		added := len(p.text)
		if len(pending) > 0 {
			added += 2
		}
		if size+added > limit && size >= c.config.MinChunkSize {
			flush()
			added = len(p.text)
		}
		if len(p.text) > limit && p.node.Type == model.BlockParagraph {
			flush()
			for _, text := range splitBySentences(p.text, limit) {
				chunks = append(chunks, c.createChunk(s, []piece{{node: p.node, text: text}}, ChunkLevelSentence, index, docTitle))
			}
			continue
		}
		pending = append(pending, p)
		size += added
	}
	flush()
	return chunks
}

func (c *Chunker) createChunk(s *section, pieces []piece, level ChunkLevel, index *int, docTitle string) *Chunk {
	texts := make([]string, len(pieces))
	meta := ChunkMetadata{
		DocumentTitle: docTitle,
		SectionPath:   s.path,
		SectionTitle:  s.title,
		HeadingLevel:  s.level,
		ChunkIndex:    *index,
		Level:         level,
	}
	seen := make(map[string]bool)
	for i, p := range pieces {
		texts[i] = p.text
		if !seen[p.node.Type] {
			seen[p.node.Type] = true
			meta.BlockTypes = append(meta.BlockTypes, p.node.Type)
		}
		switch p.node.Type {
		case model.BlockTable:
			meta.HasTable = true
		case model.BlockUnorderedList, model.BlockOrderedList:
			meta.HasList = true
		case model.BlockCode:
			meta.HasCode = true
		}
		if containsType(p.node, model.InlineImage) {
			meta.HasImage = true
		}
	}
	id := fmt.Sprintf("%s_%d", c.config.IDPrefix, *index)
	*index++
	return NewChunk(id, strings.Join(texts, "\n\n"), meta)
}

func joinedSize(pieces []piece) int {
	size := 0
	for i, p := range pieces {
		if i > 0 {
			size += 2
		}
		size += len(p.text)
	}
	return size
}

func containsType(n model.Node, typ string) bool {
	if n.Type == typ {
		return true
	}
	for _, child := range n.Nodes {
		if containsType(child, typ) {
			return true
		}
	}
	return false
}

func calculateStats(chunks []*Chunk) ChunkStats {
	stats := ChunkStats{TotalChunks: len(chunks)}
	for i, chunk := range chunks {
		m := chunk.Metadata
		stats.TotalCharacters += m.CharCount
		stats.TotalWords += m.WordCount
		stats.TotalTokensEst += m.EstimatedTokens
		if i == 0 || m.CharCount < stats.MinChunkSize {
			stats.MinChunkSize = m.CharCount
		}
		if m.CharCount > stats.MaxChunkSize {
			stats.MaxChunkSize = m.CharCount
		}
		switch m.Level {
		case ChunkLevelSection:
			stats.SectionChunks++
		case ChunkLevelBlock:
			stats.BlockChunks++
		case ChunkLevelSentence:
			stats.SentenceChunks++
		}
	}
	if len(chunks) > 0 {
		stats.AvgChunkSize = stats.TotalCharacters / len(chunks)
	}
	return stats
}

// splitBySentences packs the sentences of text into pieces of at most
// limit bytes. A single sentence longer than limit is kept whole.
func splitBySentences(text string, limit int) []string {
	var pieces []string
	var current strings.Builder
	for _, sentence := range splitIntoSentences(text) {
		added := len(sentence)
		if current.Len() > 0 {
			added++
		}
		if current.Len() > 0 && current.Len()+added > limit {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}

func countWords(text string) int {
	return len(strings.FieldsFunc(text, unicode.IsSpace))
}

// splitIntoSentences splits text after '.', '!' or '?' unless the next
// rune is a lower case letter or the mark ends a single capital ("J. Doe").
func splitIntoSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if i+2 < len(runes) && unicode.IsLower(runes[i+2]) {
			continue
		}
		if r == '.' && i >= 1 && unicode.IsUpper(runes[i-1]) && (i == 1 || unicode.IsSpace(runes[i-2])) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

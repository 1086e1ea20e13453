package epubdoc

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tsawler/markit/htmldoc"
	"github.com/tsawler/markit/model"
)

// Archive errors.
var (
	ErrInvalidArchive = errors.New("epub: not a valid zip archive")
	ErrNotEPUB        = errors.New("epub: wrong mimetype")
	ErrMissingContent = errors.New("epub: no readable chapter")
)

const epubMimeType = "application/epub+zip"

// Book is an opened EPUB archive
type Book struct {
	files    map[string]*zip.File
	metadata model.Data
	chapters []string
}

// Open opens the EPUB file at filename. The whole file is read into memory.
func Open(filename string) (*Book, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

// OpenReader opens an EPUB archive of the given size
func OpenReader(ra io.ReaderAt, size int64) (*Book, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	// the mimetype entry is optional, but must be right when present
	if f, ok := files["mimetype"]; ok {
		data, err := readFile(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}
		if string(bytes.TrimSpace(data)) != epubMimeType {
			return nil, ErrNotEPUB
		}
	}
	if err := checkForDRM(files); err != nil {
		return nil, err
	}

	opfPath, err := rootfilePath(files)
	if err != nil {
		return nil, err
	}
	metadata, chapters, err := readPackage(files, opfPath)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("epub %q: %d chapters", metadata.String("title"), len(chapters))
	return &Book{files: files, metadata: metadata, chapters: chapters}, nil
}

// Metadata returns the book metadata using document data keys: title,
// author, language, identifier, publisher, date, description, subject and
// rights.
func (b *Book) Metadata() model.Data {
	return b.metadata
}

// Chapters returns the archive paths of the chapters in reading order
func (b *Book) Chapters() []string {
	return append([]string(nil), b.chapters...)
}

// Document parses every chapter and joins them into one document. Missing
// or malformed chapters are skipped; a book without any readable chapter is
// an error.
func (b *Book) Document(opts htmldoc.Options) (model.Node, error) {
	var nodes []model.Node
	read := 0
	for _, name := range b.chapters {
		chapter, err := b.chapter(name, opts)
		if err != nil {
			tracer().Infof("skipping chapter %s: %v", name, err)
			continue
		}
		read++
		if len(chapter.Nodes) == 0 {
			continue
		}
		if len(nodes) > 0 {
			nodes = append(nodes, model.NewVoidBlock(model.BlockHR, nil))
		}
		nodes = append(nodes, chapter.Nodes...)
	}
	if read == 0 {
		return model.Node{}, ErrMissingContent
	}
	return model.NewDocument(b.metadata, nodes...), nil
}

func (b *Book) chapter(name string, opts htmldoc.Options) (model.Node, error) {
	f, ok := b.files[name]
	if !ok {
		return model.Node{}, fmt.Errorf("missing %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return model.Node{}, err
	}
	defer rc.Close()
	return htmldoc.OpenReader(rc, opts)
}

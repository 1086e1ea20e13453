package epubdoc

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/tsawler/markit/model"
)

// Archive structure errors.
var (
	ErrNoContainer = errors.New("epub: missing META-INF/container.xml")
	ErrNoRootfile  = errors.New("epub: no rootfile found in container.xml")
	ErrNoOPF       = errors.New("epub: missing package document (OPF)")
	ErrInvalidOPF  = errors.New("epub: invalid package document")
	ErrEmptySpine  = errors.New("epub: no content in spine")
)

const packageMediaType = "application/oebps-package+xml"

// META-INF/container.xml
type containerXML struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// The OPF package document
type opfPackage struct {
	Metadata struct {
		Title       []string `xml:"title"`
		Creator     []string `xml:"creator"`
		Language    []string `xml:"language"`
		Identifier  []string `xml:"identifier"`
		Publisher   []string `xml:"publisher"`
		Date        []string `xml:"date"`
		Description []string `xml:"description"`
		Subject     []string `xml:"subject"`
		Rights      []string `xml:"rights"`
	} `xml:"metadata"`
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef  string `xml:"idref,attr"`
		Linear string `xml:"linear,attr"`
	} `xml:"spine>itemref"`
}

// rootfilePath returns the path of the package document named by the
// container. A rootfile without media type is accepted too.
func rootfilePath(files map[string]*zip.File) (string, error) {
	f, ok := files["META-INF/container.xml"]
	if !ok {
		return "", ErrNoContainer
	}
	var container containerXML
	if err := decodeXML(f, &container); err != nil {
		return "", fmt.Errorf("epub: invalid container.xml: %w", err)
	}
	for _, rf := range container.Rootfiles {
		if rf.FullPath != "" && (rf.MediaType == packageMediaType || rf.MediaType == "") {
			return rf.FullPath, nil
		}
	}
	if len(container.Rootfiles) > 0 && container.Rootfiles[0].FullPath != "" {
		return container.Rootfiles[0].FullPath, nil
	}
	return "", ErrNoRootfile
}

// readPackage decodes the package document and returns the book metadata
// and the archive paths of the linear spine items in reading order.
func readPackage(files map[string]*zip.File, opfPath string) (model.Data, []string, error) {
	f, ok := files[opfPath]
	if !ok {
		return nil, nil, ErrNoOPF
	}
	var opf opfPackage
	if err := decodeXML(f, &opf); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidOPF, err)
	}

	hrefs := make(map[string]string, len(opf.Manifest))
	for _, item := range opf.Manifest {
		hrefs[item.ID] = item.Href
	}

	base := path.Dir(opfPath)
	var chapters []string
	for _, ref := range opf.Spine {
		href, ok := hrefs[ref.IDRef]
		if !ok || ref.Linear == "no" {
			continue
		}
		chapters = append(chapters, resolveHref(base, href))
	}
	if len(chapters) == 0 {
		return nil, nil, ErrEmptySpine
	}

	m := opf.Metadata
	data := model.NewData(
		"title", first(m.Title),
		"author", joined(m.Creator),
		"language", first(m.Language),
		"identifier", first(m.Identifier),
		"publisher", first(m.Publisher),
		"date", first(m.Date),
		"description", first(m.Description),
		"subject", joined(m.Subject),
		"rights", first(m.Rights),
	)
	return data, chapters, nil
}

// resolveHref resolves a manifest href against the directory of the
// package document
func resolveHref(base, href string) string {
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if base == "." || base == "" {
		return path.Clean(href)
	}
	return path.Join(base, href)
}

func decodeXML(f *zip.File, v any) error {
	data, err := readFile(f)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func first(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func joined(values []string) string {
	var parts []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

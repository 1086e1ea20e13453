// Command markit converts documents between markdown, HTML and the
// document tree encodings. EPUB books are read as well.
//
// Usage:
//
//	markit [flags] [input]
//
// Without an input file the document is read from stdin.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/k0kubun/pp"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/tsawler/markit"
	"github.com/tsawler/markit/format"
	"github.com/tsawler/markit/htmldoc"
	"github.com/tsawler/markit/model"
	"github.com/tsawler/markit/rag"
)

const (
	targetDump   = "dump"
	defaultWidth = 80
)

var navigationModes = map[string]htmldoc.NavigationExclusionMode{
	"none":     htmldoc.NavigationExclusionNone,
	"explicit": htmldoc.NavigationExclusionExplicit,
	"standard": htmldoc.NavigationExclusionStandard,
}

type config struct {
	from       string
	to         string
	outPath    string
	noTemplate bool
	noMath     bool
	unending   []string
	navigation string
	stats      bool
	toc        bool
	width      int
	chunks     string
	chunkSize  int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command and returns its exit status: 0 on success, 1
// when the conversion fails and 2 on bad usage.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cfg config
	flags := pflag.NewFlagSet("markit", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&cfg.from, "from", "f", "", "Input format: markdown|html|json|yaml|epub (default from extension)")
	flags.StringVarP(&cfg.to, "to", "t", "", "Output format: markdown|html|json|yaml|dump (default from --output, else the other of markdown/html)")
	flags.StringVarP(&cfg.outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVar(&cfg.noTemplate, "no-template", false, "Treat {{ }}, {% %} and {# #} as plain text")
	flags.BoolVar(&cfg.noMath, "no-math", false, "Treat $$ as plain text")
	flags.StringSliceVar(&cfg.unending, "unending", nil, "Template tags without a closing tag (comma separated)")
	flags.StringVar(&cfg.navigation, "exclude-nav", "none", "Drop HTML page furniture: none|explicit|standard")
	flags.BoolVar(&cfg.stats, "stats", false, "Print document statistics to stderr")
	flags.BoolVar(&cfg.toc, "toc", false, "Print the table of contents instead of converting")
	flags.IntVarP(&cfg.width, "width", "w", 0, "Wrap width of --toc output (0 uses terminal width if available)")
	flags.StringVar(&cfg.chunks, "chunks", "", "Export RAG chunks instead of converting: jsonl|json|csv|tsv")
	flags.IntVar(&cfg.chunkSize, "chunk-size", 0, "Maximum chunk size in bytes for --chunks (default 2000)")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: markit [flags] [input]\n")
		fmt.Fprintln(stderr, "\nIf no input is provided, the document is read from stdin.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(stderr, err)
		flags.Usage()
		return 2
	}
	if flags.NArg() > 1 {
		fmt.Fprintln(stderr, "at most one input may be given")
		return 2
	}

	conv, source, inputSize, err := openInput(flags.Arg(0), cfg.from, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "open input: %v\n", err)
		return 2
	}
	mode, ok := navigationModes[strings.ToLower(cfg.navigation)]
	if !ok {
		fmt.Fprintf(stderr, "invalid --exclude-nav %q\n", cfg.navigation)
		return 2
	}
	conv = conv.
		Template(!cfg.noTemplate).
		Math(!cfg.noMath).
		UnendingTags(cfg.unending...).
		ExcludeNavigation(mode)

	var target format.Format
	exportFormat, ok := rag.ParseExportFormat(cfg.chunks)
	switch {
	case cfg.chunks != "":
		if !ok {
			fmt.Fprintf(stderr, "unknown chunk format %q\n", cfg.chunks)
			return 2
		}
	case cfg.toc, strings.EqualFold(cfg.to, targetDump):
	default:
		if target, err = resolveTarget(cfg, source); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
	}

	writer, closeOut, err := resolveOutput(cfg.outPath, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "open output: %v\n", err)
		return 1
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}

	doc, err := conv.Document()
	if err != nil {
		fmt.Fprintf(stderr, "read: %v\n", err)
		return 1
	}
	// the parsed tree is printed with the same template and math syntax
	parsed := markit.FromDocument(doc).
		Template(!cfg.noTemplate).
		Math(!cfg.noMath).
		UnendingTags(cfg.unending...)

	var out []byte
	switch {
	case cfg.chunks != "":
		if out, err = exportChunks(parsed, exportFormat, cfg.chunkSize); err != nil {
			fmt.Fprintf(stderr, "chunks: %v\n", err)
			return 1
		}
	case cfg.toc:
		out = []byte(renderTOC(model.TableOfContents(doc), resolveWidth(cfg.width, writer)))
	case strings.EqualFold(cfg.to, targetDump):
		pp.ColoringEnabled = isTerminal(writer)
		out = []byte(pp.Sprintln(doc))
	default:
		if out, err = parsed.To(target); err != nil {
			fmt.Fprintf(stderr, "write: %v\n", err)
			return 1
		}
	}

	if _, err := writer.Write(out); err != nil {
		fmt.Fprintf(stderr, "write: %v\n", err)
		return 1
	}
	if cfg.stats {
		printStats(stderr, doc, inputSize, len(out))
	}
	return 0
}

// exportChunks splits the document into chunks and encodes them
func exportChunks(conv *markit.Conversion, f rag.ExportFormat, size int) ([]byte, error) {
	config := rag.DefaultChunkerConfig()
	if size > 0 {
		config.MaxChunkSize = size
		config.MinChunkSize = min(config.MinChunkSize, size/2)
	}
	result, err := conv.Chunks(config)
	if err != nil {
		return nil, err
	}
	exportConfig := rag.DefaultExportConfig()
	exportConfig.Format = f
	var buf bytes.Buffer
	if err := rag.NewExporterWithConfig(exportConfig).Export(result.Chunks, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// openInput returns a conversion of the named file, or of stdin when name
// is empty or "-", together with the source format and the input size in
// bytes.
func openInput(name, from string, stdin io.Reader) (*markit.Conversion, format.Format, int, error) {
	source := format.Unknown
	if from != "" {
		source = format.Parse(from)
		if source == format.Unknown {
			return nil, source, 0, fmt.Errorf("unknown input format %q", from)
		}
	}

	var data []byte
	var err error
	if name == "" || name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
		if source == format.Unknown {
			source = format.Detect(name)
		}
	}
	if err != nil {
		return nil, source, 0, err
	}
	if source == format.Unknown {
		source = format.DetectFromMagic(data)
	}
	return markit.FromReader(bytes.NewReader(data), source), source, len(data), nil
}

// resolveTarget picks the output format: the --to flag, the extension of
// the output file, or the other one of markdown and HTML.
func resolveTarget(cfg config, source format.Format) (format.Format, error) {
	if cfg.to != "" {
		if target := format.Parse(cfg.to); writable(target) {
			return target, nil
		}
		return format.Unknown, fmt.Errorf("unknown output format %q", cfg.to)
	}
	if target := format.Detect(cfg.outPath); writable(target) {
		return target, nil
	}
	if source == format.Markdown {
		return format.HTML, nil
	}
	return format.Markdown, nil
}

func writable(f format.Format) bool {
	switch f {
	case format.Markdown, format.HTML, format.JSON, format.YAML:
		return true
	}
	return false
}

func resolveOutput(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return stdout, nil, nil
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func resolveWidth(width int, w io.Writer) int {
	if width > 0 {
		return width
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return defaultWidth
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// renderTOC writes one line per heading, indented two spaces per level
// below the first and wrapped at width.
func renderTOC(toc []model.TOCEntry, width int) string {
	var sb strings.Builder
	for _, entry := range toc {
		pad := uint(2 * (entry.Level - 1))
		line := "- " + entry.Text
		if entry.ID != "" {
			line += " (#" + entry.ID + ")"
		}
		wrapped := wordwrap.String(line, max(width-int(pad), 20))
		wrapped = strings.ReplaceAll(wrapped, "\n", "\n  ")
		sb.WriteString(indent.String(wrapped, pad))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func printStats(w io.Writer, doc model.Node, inputSize, outputSize int) {
	stats := model.CountNodes(doc)
	fmt.Fprintf(w, "Input: %s, output: %s\n", humanize.Bytes(uint64(inputSize)), humanize.Bytes(uint64(outputSize)))
	fmt.Fprintf(w, "Nodes: %s blocks, %s inlines, %s texts\n",
		humanize.Comma(int64(stats.Blocks)),
		humanize.Comma(int64(stats.Inlines)),
		humanize.Comma(int64(stats.Texts)))
	fmt.Fprintf(w, "Headings: %d\n", len(model.TableOfContents(doc)))

	types := make([]string, 0, len(stats.Types))
	for typ := range stats.Types {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		fmt.Fprintf(w, "  %-16s %s\n", typ, humanize.Comma(int64(stats.Types[typ])))
	}

	marks := make([]string, 0, len(stats.Marks))
	for mark := range stats.Marks {
		marks = append(marks, mark)
	}
	sort.Strings(marks)
	for _, mark := range marks {
		fmt.Fprintf(w, "  %-16s %s\n", "*"+mark, humanize.Comma(int64(stats.Marks[mark])))
	}
}

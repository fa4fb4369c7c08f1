// Command folio prints information about PDF files, renders their pages
// to PNG and extracts or searches their text.
//
// Usage:
//
//	folio [options] file.pdf
//
// Modes: info, render, text, search, outline, links, ocr.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tsawler/folio"
	"github.com/tsawler/folio/logging"
	"github.com/tsawler/folio/pages"
)

type config struct {
	mode        string
	page        int
	dpi         float64
	out         string
	term        string
	ignoreCase  bool
	password    string
	annotations bool
	rotate      int
	lang        string
	verbose     bool
	path        string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("folio", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cfg config
	fs.StringVar(&cfg.mode, "mode", "info", "Mode: info, render, text, search, outline, links, ocr")
	fs.IntVar(&cfg.page, "page", 1, "Page number, counting from 1 (0 means every page for text and search)")
	fs.Float64Var(&cfg.dpi, "dpi", 72, "Resolution for render and ocr")
	fs.StringVar(&cfg.out, "o", "page.png", "Output file for render")
	fs.StringVar(&cfg.term, "term", "", "Search term")
	fs.BoolVar(&cfg.ignoreCase, "i", false, "Case-insensitive search")
	fs.StringVar(&cfg.password, "password", "", "Document password")
	fs.BoolVar(&cfg.annotations, "annots", false, "Render annotations")
	fs.IntVar(&cfg.rotate, "rotate", 0, "Extra rotation for render: 0, 90, 180 or 270")
	fs.StringVar(&cfg.lang, "lang", "eng", "Tesseract language for ocr")
	fs.BoolVar(&cfg.verbose, "v", false, "Write debug logs to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "Usage: folio [options] file.pdf")
		fs.PrintDefaults()
		return 2
	}
	cfg.path = fs.Arg(0)

	var logs *logging.BufferedHandler
	var opts []folio.Option
	if cfg.verbose {
		logs = logging.NewBufferedHandler(&slog.HandlerOptions{Level: slog.LevelDebug})
		opts = append(opts, folio.WithLogger(slog.New(logs)))
	}

	err := execute(cfg, stdout, opts)
	if logs != nil {
		logs.WriteTo(stderr)
	}
	if err != nil {
		fmt.Fprintf(stderr, "folio: %v\n", err)
		return 1
	}
	return 0
}

func execute(cfg config, w io.Writer, opts []folio.Option) error {
	e := folio.New(opts...)
	defer e.Close()

	d, err := e.OpenFile(cfg.path, cfg.password)
	if err != nil {
		return err
	}

	switch strings.ToLower(cfg.mode) {
	case "info":
		return handleInfo(e, d, w)
	case "render":
		return handleRender(e, d, cfg)
	case "text":
		return handleText(e, d, cfg.page, w)
	case "search":
		if cfg.term == "" {
			return errors.New("the -term flag must be specified for search")
		}
		return handleSearch(e, d, cfg, w)
	case "outline":
		return handleOutline(e, d, w)
	case "links":
		return handleLinks(e, d, cfg.page, w)
	case "ocr":
		return handleOCR(e, d, cfg, w)
	}
	return fmt.Errorf("unknown mode %q", cfg.mode)
}

func handleInfo(e *folio.Engine, d folio.Document, w io.Writer) error {
	n, err := e.PageCount(d)
	if err != nil {
		return err
	}
	version, _ := e.Version(d)
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Pages:   %d\n", n)
	for _, tag := range []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer", "CreationDate", "ModDate"} {
		if s, _ := e.MetaText(d, tag); s != "" {
			fmt.Fprintf(w, "%s: %s\n", tag, s)
		}
	}
	for i := range n {
		size, err := e.PageSizeByIndex(d, i, 72)
		if err != nil {
			fmt.Fprintf(w, "Page %d: %v\n", i+1, err)
			continue
		}
		fmt.Fprintf(w, "Page %d: %d x %d pt\n", i+1, size.Width, size.Height)
	}
	return nil
}

func handleRender(e *folio.Engine, d folio.Document, cfg config) error {
	p, err := e.LoadPage(d, cfg.page-1)
	if err != nil {
		return err
	}
	defer e.ClosePage(p)

	opts := folio.DefaultRenderOptions()
	opts.Annotations = cfg.annotations
	opts.Rotation = cfg.rotate
	img, err := e.RenderImage(p, cfg.dpi, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(cfg.out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// pageRange maps the -page flag to an inclusive 0-based range.
func pageRange(e *folio.Engine, d folio.Document, page int) (int, int, error) {
	if page > 0 {
		return page - 1, page - 1, nil
	}
	n, err := e.PageCount(d)
	return 0, n - 1, err
}

func handleText(e *folio.Engine, d folio.Document, page int, w io.Writer) error {
	from, to, err := pageRange(e, d, page)
	if err != nil {
		return err
	}
	tps, err := e.LoadTextPages(d, from, to)
	if err != nil {
		return err
	}
	for _, tp := range tps {
		n, _ := e.CharCount(tp)
		s, err := e.Text(tp, 0, n)
		if err != nil {
			return err
		}
		s = strings.ReplaceAll(s, "\r\n", "\n")
		if !strings.HasSuffix(s, "\n") {
			s += "\n"
		}
		fmt.Fprint(w, s)
		e.CloseTextPage(tp)
	}
	return nil
}

func handleSearch(e *folio.Engine, d folio.Document, cfg config, w io.Writer) error {
	from, to, err := pageRange(e, d, cfg.page)
	if err != nil {
		return err
	}
	for i := from; i <= to; i++ {
		tps, err := e.LoadTextPages(d, i, i)
		if err != nil {
			return err
		}
		tp := tps[0]
		s, err := e.FindStart(tp, cfg.term, !cfg.ignoreCase, 0)
		if err != nil {
			return err
		}
		for {
			found, err := e.FindNext(s)
			if err != nil {
				return err
			}
			if !found {
				break
			}
			at, _ := e.MatchIndex(s)
			n, _ := e.MatchCount(s)
			match, _ := e.Text(tp, at, n)
			rects, _ := e.Rects(tp, at, n)
			fmt.Fprintf(w, "page %d char %d: %q", i+1, at, match)
			for _, r := range rects {
				fmt.Fprintf(w, " [%.2f %.2f %.2f %.2f]", r.Left, r.Bottom, r.Right, r.Top)
			}
			fmt.Fprintln(w)
		}
		e.CloseTextPage(tp)
	}
	return nil
}

func handleOutline(e *folio.Engine, d folio.Document, w io.Writer) error {
	nodes, err := e.Outline(d)
	if err != nil {
		return err
	}
	printOutline(w, nodes, 0)
	return nil
}

func printOutline(w io.Writer, nodes []*pages.OutlineNode, depth int) {
	for _, n := range nodes {
		page := "-"
		if n.Dest != nil && n.Dest.PageIndex >= 0 {
			page = fmt.Sprint(n.Dest.PageIndex + 1)
		}
		fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", depth), n.Title, page)
		printOutline(w, n.Children, depth+1)
	}
}

func handleLinks(e *folio.Engine, d folio.Document, page int, w io.Writer) error {
	from, to, err := pageRange(e, d, page)
	if err != nil {
		return err
	}
	ps, err := e.LoadPages(d, from, to)
	if err != nil {
		return err
	}
	defer e.ClosePages(ps...)
	for i, p := range ps {
		links, err := e.Links(p)
		if err != nil {
			return err
		}
		for _, l := range links {
			target := l.URI
			if l.Dest != nil {
				target = fmt.Sprintf("page %d", l.Dest.PageIndex+1)
			}
			fmt.Fprintf(w, "page %d [%.2f %.2f %.2f %.2f] %s\n",
				from+i+1, l.Rect.Left, l.Rect.Bottom, l.Rect.Right, l.Rect.Top, target)
		}
	}
	return nil
}

func handleOCR(e *folio.Engine, d folio.Document, cfg config, w io.Writer) error {
	p, err := e.LoadPage(d, cfg.page-1)
	if err != nil {
		return err
	}
	defer e.ClosePage(p)
	s, err := e.OCRPage(p, cfg.dpi, cfg.lang)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, s)
	return nil
}

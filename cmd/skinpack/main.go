// Command skinpack loads theme documents, packs every referenced source
// region into atlas pages and writes the pages plus an atlas.json. With
// -preview it also renders one image to a PNG.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/phanxgames/skin"
	"github.com/phanxgames/skin/raster"
)

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	themes   stringList
	sources  string
	out      string
	page     int
	padding  int
	maxPages int

	preview string
	image   string
	size    string
	state   string
	elapsed time.Duration

	verbose bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "skinpack: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	def := skin.DefaultPackConfig()
	fs := flag.NewFlagSet("skinpack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&o.themes, "theme", "theme document (.toml, .yaml, .json); repeat to merge several")
	fs.StringVar(&o.sources, "sources", ".", "directory holding source textures")
	fs.StringVar(&o.out, "out", "atlas", "output directory")
	fs.IntVar(&o.page, "page", def.PageSize, "atlas page size in pixels")
	fs.IntVar(&o.padding, "padding", def.Padding, "padding between packed regions")
	fs.IntVar(&o.maxPages, "max-pages", def.MaxPages, "maximum number of pages, 0 for no limit")
	fs.StringVar(&o.preview, "preview", "", "write a preview PNG of -image to this path")
	fs.StringVar(&o.image, "image", "", "image to preview, as set/image")
	fs.StringVar(&o.size, "size", "64x64", "preview size as WxH")
	fs.StringVar(&o.state, "state", "Normal", `preview state, e.g. "Active + Hover"`)
	fs.DurationVar(&o.elapsed, "elapsed", 0, "animation time of the preview")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: skinpack -theme FILE [-theme FILE...] [flags]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if len(o.themes) == 0 {
		fs.Usage()
		return nil, errors.New("at least one -theme is required")
	}
	if o.preview != "" && o.image == "" {
		return nil, errors.New("-preview requires -image")
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	skin.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	docs := make([]*skin.Document, 0, len(o.themes))
	for _, p := range o.themes {
		doc, err := skin.ReadDocument(os.DirFS(filepath.Dir(p)), filepath.Base(p))
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	cfg := skin.PackConfig{PageSize: o.page, Padding: o.padding, MaxPages: o.maxPages}
	gen, err := skin.Build(docs, skin.NewFSProvider(os.DirFS(o.sources)), cfg)
	if err != nil {
		return err
	}

	if err := writeAtlas(o.out, gen.Atlas); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "packed %d regions into %d page(s), %.1f%% used, digest %s\n",
		len(gen.Atlas.Regions()), len(gen.Atlas.Pages), gen.Atlas.Utilization()*100, gen.Atlas.Digest()[:12])

	if o.preview == "" {
		return nil
	}
	return writePreview(o, gen)
}

func writeAtlas(dir string, atlas *skin.Atlas) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, page := range atlas.Pages {
		if err := writePNG(filepath.Join(dir, skin.PageFileName(i)), page); err != nil {
			return err
		}
	}
	data, err := atlas.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "atlas.json"), data, 0o644)
}

func writePreview(o *options, gen *skin.Generation) error {
	w, h, err := parseSize(o.size)
	if err != nil {
		return err
	}
	flags, err := skin.ParseStateKey(o.state)
	if err != nil {
		return err
	}
	if _, _, ok := gen.Theme.Lookup(o.image); !ok {
		return fmt.Errorf("image %q not found", o.image)
	}

	prims := gen.Draw(o.image, flags, skin.Rect{Width: float64(w), Height: float64(h)}, o.elapsed)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if missing := raster.Draw(dst, gen.Atlas, prims, image.Point{}); missing > 0 {
		skin.Logger().Warn("skinpack: preview primitives missing from atlas", slog.Int("count", missing))
	}
	return writePNG(o.preview, dst)
}

func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q: must be positive", s)
	}
	return w, h, nil
}

func writePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}

// Command imgdec converts IFF and XCF images to PNG, TIFF or BMP.
//
// Usage:
//
//	imgdec [flags] file...
//
// With one input, -o names the output file. Otherwise each input is written
// next to itself with the extension given by -to. Inputs are decoded
// concurrently on -workers goroutines.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gogpu/imgdec"
	"github.com/gogpu/imgdec/internal/image"
	"github.com/gogpu/imgdec/internal/parallel"
)

func main() {
	var (
		output   = flag.String("o", "", "output file (single input only)")
		to       = flag.String("to", "png", "output extension for batch conversion: png, tiff or bmp")
		frame    = flag.Int("frame", 0, "frame to decode in multi-frame IFF files")
		maxAlloc = flag.Int64("max-alloc", imgdec.DefaultMaxAlloc, "largest raster or layer buffer in bytes (negative: unlimited)")
		maxBytes = flag.Int64("max-bytes", 0, "largest number of bytes read per file (0: unlimited)")
		info     = flag.Bool("info", false, "print image information instead of converting")
		workers  = flag.Int("workers", 0, "number of concurrent decodes (0: GOMAXPROCS)")
		scale    = flag.Float64("scale", 1, "resample the output by this factor")
		timeout  = flag.Duration("timeout", 0, "per-file decode timeout (0: none)")
		verbose  = flag.Bool("v", false, "log decoder diagnostics to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: imgdec [flags] file...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *output != "" && len(files) > 1 {
		log.Fatalf("-o needs exactly one input, got %d", len(files))
	}
	if *scale <= 0 {
		log.Fatalf("-scale must be positive, got %v", *scale)
	}

	if *verbose {
		imgdec.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	pool := parallel.NewWorkerPool(*workers)
	defer pool.Close()

	c := &converter{
		opts: []imgdec.Option{
			imgdec.WithFrame(*frame),
			imgdec.WithMaxAlloc(*maxAlloc),
			imgdec.WithMaxBytes(*maxBytes),
			imgdec.WithPool(imgdec.NewPool(pool.Workers())),
		},
		info:    *info,
		output:  *output,
		ext:     "." + strings.TrimPrefix(*to, "."),
		scale:   *scale,
		timeout: *timeout,
	}

	ctx := context.Background()
	errs := pool.Run(ctx, len(files), func(ctx context.Context, i int) error {
		return c.convert(ctx, files[i])
	})

	failed := 0
	for i, err := range errs {
		if err != nil {
			log.Printf("%s: %v", files[i], err)
			failed++
		}
	}
	if failed > 0 {
		log.Fatalf("%d of %d files failed", failed, len(files))
	}
}

// converter holds the settings shared by every file of a run.
type converter struct {
	opts    []imgdec.Option
	info    bool
	output  string
	ext     string
	scale   float64
	timeout time.Duration
}

func (c *converter) convert(ctx context.Context, path string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.info {
		cfg, err := decodeConfig(ctx, path, c.opts)
		if err != nil {
			return err
		}
		fmt.Print(describe(path, cfg))
		return nil
	}

	dst := c.output
	if dst == "" {
		dst = strings.TrimSuffix(path, filepath.Ext(path)) + c.ext
	}
	// Fail before decoding if the output cannot be written.
	if _, err := image.OutputFormatFor(dst); err != nil {
		return err
	}

	start := time.Now()
	r, err := imgdec.DecodeFile(ctx, path, c.opts...)
	if err != nil {
		return err
	}
	for _, w := range r.Metadata.Warnings {
		log.Printf("%s: warning: %s", path, w)
	}

	img := r.Image()
	if c.scale != 1 {
		img = image.Scaled(img, c.scale)
	}
	if err := image.Save(dst, img); err != nil {
		return err
	}
	log.Printf("%s -> %s (%dx%d %s, %v)", path, dst, r.Width, r.Height, r.Format, time.Since(start).Round(time.Millisecond))
	return nil
}

func decodeConfig(ctx context.Context, path string, opts []imgdec.Option) (imgdec.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return imgdec.Config{}, err
	}
	defer f.Close()
	return imgdec.DecodeConfig(ctx, f, opts...)
}

// describe formats cfg as an indented block.
func describe(path string, cfg imgdec.Config) string {
	var b strings.Builder
	md := cfg.Metadata
	fmt.Fprintf(&b, "%s:\n", path)
	if md.Container == imgdec.ContainerIFF {
		fmt.Fprintf(&b, "  container:  IFF %s\n", strings.TrimSpace(md.FormType))
	} else {
		fmt.Fprintf(&b, "  container:  %s\n", md.Container)
	}
	fmt.Fprintf(&b, "  size:       %dx%d\n", cfg.Width, cfg.Height)
	fmt.Fprintf(&b, "  format:     %s\n", cfg.Format)
	fmt.Fprintf(&b, "  frame:      %d of %d\n", md.Frame+1, md.Frames)
	if md.Layers > 0 {
		fmt.Fprintf(&b, "  layers:     %d\n", md.Layers)
	}
	if md.ResolutionX > 0 || md.ResolutionY > 0 {
		fmt.Fprintf(&b, "  resolution: %.0fx%.0f dpi\n", md.ResolutionX*0.0254, md.ResolutionY*0.0254)
	}
	if len(md.ICC) > 0 {
		fmt.Fprintf(&b, "  icc:        %d bytes\n", len(md.ICC))
	}
	for _, k := range slices.Sorted(maps.Keys(md.Text)) {
		fmt.Fprintf(&b, "  %-11s %s\n", strings.ToLower(k)+":", md.Text[k])
	}
	return b.String()
}

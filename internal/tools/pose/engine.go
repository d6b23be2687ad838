// Package pose turns a sprite into pixelated stills and short motion GIFs.
package pose

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"frames-ai/internal/tools"
)

type action int

const (
	actionPixelate action = iota
	actionMotion
	actionSimulate
)

type keyword struct {
	name        string
	description string
	action      action
}

// keywords in routing priority order.
var keywords = []keyword{
	{"pixelate", "Generate pixelated character", actionPixelate},
	{"walk", "Generate walking pose sequence", actionMotion},
	{"run", "Generate running animation", actionMotion},
	{"sit", "Generate seated pose", actionSimulate},
	{"jump", "Generate jumping pose", actionMotion},
	{"turn", "Generate turning motion", actionSimulate},
}

// KeywordNames returns the pose keywords in priority order.
func KeywordNames() []string {
	names := make([]string, 0, len(keywords))
	for _, k := range keywords {
		names = append(names, k.name)
	}
	return names
}

const (
	defaultPixelSize   = 10
	defaultFrames      = 5
	defaultStepDegrees = 5
	defaultFrameDelay  = 20 // hundredths of a second
	jpegQuality        = 90
)

type Engine struct {
	outputDir   string
	pixelSize   int
	frames      int
	stepDegrees float64
	frameDelay  int
}

func NewEngine(outputDir string) *Engine {
	if outputDir == "" {
		outputDir = "."
	}
	return &Engine{
		outputDir:   outputDir,
		pixelSize:   defaultPixelSize,
		frames:      defaultFrames,
		stepDegrees: defaultStepDegrees,
		frameDelay:  defaultFrameDelay,
	}
}

// Register adds a handler for every pose keyword.
func (e *Engine) Register(reg *tools.Registry) error {
	for _, k := range keywords {
		if err := reg.Register(k.name, e.Handler(k.name)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) Handler(name string) tools.Handler {
	return func(ctx context.Context, args string) (string, error) {
		return e.Handle(ctx, name, args)
	}
}

// Handle runs the action bound to the keyword name on the image named in args.
func (e *Engine) Handle(ctx context.Context, name, args string) (string, error) {
	kw, ok := lookup(name)
	if !ok {
		return "", fmt.Errorf("pose: unknown keyword %q", name)
	}
	req, err := parseRequest(args)
	if err != nil {
		return "", fmt.Errorf("pose: %w", err)
	}

	switch kw.action {
	case actionPixelate:
		out, err := e.Pixelate(ctx, req.path, req.size)
		if err != nil {
			return "", fmt.Errorf("pose: %w", err)
		}
		return fmt.Sprintf("🩰 Pixelated image saved as %s", out), nil
	case actionMotion:
		out, err := e.Motion(ctx, req.path, kw.name)
		if err != nil {
			return "", fmt.Errorf("pose: %w", err)
		}
		return fmt.Sprintf("🩰 GIF for '%s' saved as %s", kw.name, out), nil
	default:
		return fmt.Sprintf("🩰 PoseEngine: %s for %s (simulation only for now).", kw.description, req.path), nil
	}
}

func lookup(name string) (keyword, bool) {
	for _, k := range keywords {
		if k.name == name {
			return k, true
		}
	}
	return keyword{}, false
}

// Pixelate downsamples the image to size (or to 1/pixelSize of its bounds when
// size is zero) and scales it back up with nearest-neighbour sampling. The
// result is written as pixelated_<basename> in the output directory.
func (e *Engine) Pixelate(ctx context.Context, path string, size image.Point) (string, error) {
	src, err := decode(path)
	if err != nil {
		return "", err
	}
	b := src.Bounds()
	if size == (image.Point{}) {
		size = image.Pt(max(1, b.Dx()/e.pixelSize), max(1, b.Dy()/e.pixelSize))
	}

	small := image.NewRGBA(image.Rectangle{Max: size})
	draw.NearestNeighbor.Scale(small, small.Bounds(), src, b, draw.Src, nil)

	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.NearestNeighbor.Scale(out, out.Bounds(), small, small.Bounds(), draw.Src, nil)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(e.outputDir, "pixelated_"+filepath.Base(path))
	if err := encode(dst, out); err != nil {
		return "", err
	}
	slog.Info("pose_pixelated", "source", path, "output", dst, "block", size.String())
	return dst, nil
}

// Motion writes a looping GIF of progressively rotated copies of the image as
// <name>_<stem>.gif in the output directory. Cancelling ctx stops it between
// frames without writing anything.
func (e *Engine) Motion(ctx context.Context, path, name string) (string, error) {
	src, err := decode(path)
	if err != nil {
		return "", err
	}

	pal := framePalette()
	anim := &gif.GIF{LoopCount: 0}
	for i := 0; i < e.frames; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		frame := rotate(src, float64(i)*e.stepDegrees)
		p := image.NewPaletted(frame.Bounds(), pal)
		draw.FloydSteinberg.Draw(p, p.Bounds(), frame, frame.Bounds().Min)
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, e.frameDelay)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	base := filepath.Base(path)
	stem, _, _ := strings.Cut(base, ".")
	dst := filepath.Join(e.outputDir, fmt.Sprintf("%s_%s.gif", name, stem))

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure output dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("encode gif: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dst, err)
	}
	slog.Info("pose_motion", "source", path, "output", dst, "frames", e.frames)
	return dst, nil
}

func framePalette() color.Palette {
	pal := make(color.Palette, 0, len(palette.WebSafe)+1)
	pal = append(pal, palette.WebSafe...)
	return append(pal, color.Transparent)
}

// rotate turns src counter-clockwise by deg degrees about its centre, keeping
// the original canvas size. Uncovered corners stay transparent.
func rotate(src image.Image, deg float64) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if deg == 0 {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}

	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	csx := float64(b.Min.X) + float64(b.Dx())/2
	csy := float64(b.Min.Y) + float64(b.Dy())/2
	cdx := float64(b.Dx()) / 2
	cdy := float64(b.Dy()) / 2

	s2d := f64.Aff3{
		cos, sin, cdx - cos*csx - sin*csy,
		-sin, cos, cdy + sin*csx - cos*csy,
	}
	draw.BiLinear.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func encode(dst string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	switch strings.ToLower(filepath.Ext(dst)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
	case ".gif":
		err = gif.Encode(f, img, nil)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	return f.Close()
}

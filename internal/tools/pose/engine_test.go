package pose

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"frames-ai/internal/tools"
)

// writeSprite writes a w x h PNG with a distinct colour in each quadrant.
func writeSprite(t *testing.T, name string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 255, A: 255}
			switch {
			case x >= w/2 && y < h/2:
				c = color.RGBA{G: 255, A: 255}
			case x < w/2 && y >= h/2:
				c = color.RGBA{B: 255, A: 255}
			case x >= w/2 && y >= h/2:
				c = color.RGBA{R: 255, G: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(name)
	if err != nil {
		t.Fatalf("create sprite: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode sprite: %v", err)
	}
}

func TestHandle_Pixelate(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSprite(t, "zeus.png", 40, 20)

	e := NewEngine("out")
	msg, err := e.Handle(context.Background(), "pixelate", "zeus.png")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := filepath.Join("out", "pixelated_zeus.png")
	if !strings.Contains(msg, want) {
		t.Fatalf("message %q does not name %s", msg, want)
	}

	f, err := os.Open(want)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	out, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 20 {
		t.Fatalf("output size %v, want 40x20", out.Bounds())
	}
	// default block size 10 gives a 4x2 grid; every block is uniform
	for by := 0; by < 2; by++ {
		for bx := 0; bx < 4; bx++ {
			ref := out.At(bx*10, by*10)
			for y := by * 10; y < (by+1)*10; y++ {
				for x := bx * 10; x < (bx+1)*10; x++ {
					if out.At(x, y) != ref {
						t.Fatalf("block (%d,%d) not uniform at (%d,%d)", bx, by, x, y)
					}
				}
			}
		}
	}
}

func TestHandle_PixelateCustomSize(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSprite(t, "hero.png", 32, 32)

	e := NewEngine(".")
	if _, err := e.Handle(context.Background(), "pixelate", "2x2 hero.png"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	f, err := os.Open("pixelated_hero.png")
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	out, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 2x2 blocks of 16 pixels each keep the four quadrant colours
	want := map[image.Point]color.RGBA{
		{0, 0}:   {R: 255, A: 255},
		{31, 0}:  {G: 255, A: 255},
		{0, 31}:  {B: 255, A: 255},
		{31, 31}: {R: 255, G: 255, A: 255},
	}
	for p, c := range want {
		if got := color.RGBAModel.Convert(out.At(p.X, p.Y)); got != c {
			t.Fatalf("pixel %v: got %v, want %v", p, got, c)
		}
	}
}

func TestHandle_Motion(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSprite(t, "hero.sprite.png", 24, 24)

	e := NewEngine("anim")
	msg, err := e.Handle(context.Background(), "walk", "make hero.sprite.png")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	path := filepath.Join("anim", "walk_hero.gif")
	if !strings.Contains(msg, path) {
		t.Fatalf("message %q does not name %s", msg, path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open gif: %v", err)
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}
	if len(g.Image) != 5 {
		t.Fatalf("want 5 frames, got %d", len(g.Image))
	}
	if g.LoopCount != 0 {
		t.Fatalf("want infinite loop, got %d", g.LoopCount)
	}
	for i, d := range g.Delay {
		if d != 20 {
			t.Fatalf("frame %d delay %d, want 20", i, d)
		}
	}
	if g.Image[0].Bounds().Dx() != 24 {
		t.Fatalf("frame size changed: %v", g.Image[0].Bounds())
	}
}

func TestHandle_KeywordInsideFilename(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSprite(t, "walk.png", 16, 16)
	writeSprite(t, "run-cycle.png", 16, 16)

	e := NewEngine("anim")
	tests := []struct {
		keyword string
		args    string
		want    string
	}{
		{"walk", "animate walk.png", filepath.Join("anim", "walk_walk.gif")},
		{"run", "animate run-cycle.png", filepath.Join("anim", "run_run-cycle.gif")},
	}
	for _, tt := range tests {
		msg, err := e.Handle(context.Background(), tt.keyword, tt.args)
		if err != nil {
			t.Fatalf("%s %q: %v", tt.keyword, tt.args, err)
		}
		if !strings.Contains(msg, tt.want) {
			t.Fatalf("message %q does not name %s", msg, tt.want)
		}
		if _, err := os.Stat(tt.want); err != nil {
			t.Fatalf("output missing: %v", err)
		}
	}
}

func TestHandle_Cancelled(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSprite(t, "hero.png", 16, 16)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEngine("out")
	for _, kw := range []string{"walk", "pixelate"} {
		if _, err := e.Handle(ctx, kw, "hero.png"); !errors.Is(err, context.Canceled) {
			t.Fatalf("%s: expected context.Canceled, got %v", kw, err)
		}
	}
	if _, err := os.Stat("out"); !os.IsNotExist(err) {
		t.Fatalf("cancelled run wrote output: %v", err)
	}
}

func TestHandle_Simulate(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSprite(t, "hero.png", 8, 8)

	msg, err := NewEngine(".").Handle(context.Background(), "sit", "hero.png")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(msg, "simulation only") {
		t.Fatalf("unexpected message: %q", msg)
	}
	entries, _ := os.ReadDir(".")
	if len(entries) != 1 {
		t.Fatalf("simulation should not write files, got %d entries", len(entries))
	}
}

func TestHandle_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSprite(t, "hero.png", 8, 8)
	if err := os.WriteFile("broken.png", []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name    string
		keyword string
		args    string
		want    error
	}{
		{"missing file", "pixelate", "ghost.png", ErrImageNotFound},
		{"no filename", "walk", "around the block", ErrNoImage},
		{"zero size", "pixelate", "0x10 hero.png", ErrInvalidSize},
		{"huge size", "pixelate", "99999x10 hero.png", ErrInvalidSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(".").Handle(context.Background(), tt.keyword, tt.args)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := NewEngine(".").Handle(context.Background(), "pixelate", "broken.png"); err == nil {
		t.Fatalf("want decode error")
	}
	if _, err := os.Stat("pixelated_ghost.png"); !os.IsNotExist(err) {
		t.Fatalf("no output should be written for a missing file")
	}
	if _, err := os.Stat("pixelated_broken.png"); !os.IsNotExist(err) {
		t.Fatalf("no output should be written for an undecodable file")
	}
}

func TestParseRequest_SizeInsideFilenameIgnored(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSprite(t, "sprite64x64.png", 4, 4)

	req, err := parseRequest("sprite64x64.png")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.size != (image.Point{}) {
		t.Fatalf("size parsed from filename: %v", req.size)
	}
	if req.path != "sprite64x64.png" {
		t.Fatalf("path = %q", req.path)
	}
}

func TestRegister(t *testing.T) {
	reg := tools.NewRegistry()
	if err := NewEngine(".").Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	got := strings.Join(reg.Names(), ",")
	if got != "jump,pixelate,run,sit,turn,walk" {
		t.Fatalf("unexpected names: %s", got)
	}
	if strings.Join(KeywordNames(), ",") != "pixelate,walk,run,sit,jump,turn" {
		t.Fatalf("keyword order changed: %v", KeywordNames())
	}

	res := reg.Invoke(context.Background(), "pixelate", "ghost.png")
	if !res.IsError || !strings.Contains(res.Content, "not found") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

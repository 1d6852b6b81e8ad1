package screenshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/kbinani/screenshot"

	"screen-timer-llm/src/platform"
)

const defaultJPEGQuality = 90

// Image is a captured frame ready for upload.
type Image struct {
	Data     []byte
	MIMEType string
	// Path is the saved JPEG copy, empty when saving is disabled or failed.
	Path   string
	Bounds image.Rectangle
}

type Options struct {
	IncludeCursor bool
	Save          bool
	SaveDir       string
	JPEGQuality   int
}

// Provider captures the whole virtual screen.
type Provider struct {
	opts     Options
	displays func() []image.Rectangle
	grab     func(image.Rectangle) (*image.RGBA, error)
	cursor   func() (image.Point, bool)
	now      func() time.Time
}

func NewProvider(opts Options) *Provider {
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = defaultJPEGQuality
	}
	return &Provider{
		opts:     opts,
		displays: activeDisplayBounds,
		grab:     screenshot.CaptureRect,
		cursor:   platform.CursorPosition,
		now:      time.Now,
	}
}

// Capture grabs the union of all active displays, composites the cursor when
// enabled, returns the frame as JPEG and optionally saves that JPEG.
func (p *Provider) Capture(ctx context.Context) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	bounds, err := VirtualBounds(p.displays())
	if err != nil {
		return Image{}, err
	}
	img, err := p.grab(bounds)
	if err != nil {
		return Image{}, fmt.Errorf("failed to capture screen: %w", err)
	}

	if p.opts.IncludeCursor {
		if pt, ok := p.cursor(); ok && pt.In(bounds) {
			DrawCursor(img, pt.Sub(bounds.Min))
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.opts.JPEGQuality}); err != nil {
		return Image{}, fmt.Errorf("failed to encode image as JPEG: %w", err)
	}
	out := Image{Data: buf.Bytes(), MIMEType: "image/jpeg", Bounds: bounds}

	if p.opts.Save {
		path, err := p.save(out.Data)
		if err != nil {
			log.Printf("screenshot: could not save copy: %v", err)
		} else {
			out.Path = path
			log.Printf("screenshot: saved %s", path)
		}
	}
	return out, nil
}

func (p *Provider) save(data []byte) (string, error) {
	dir := p.opts.SaveDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("screenshot_%s.jpg", p.now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return path, nil
}

func activeDisplayBounds() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	bounds := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		bounds = append(bounds, screenshot.GetDisplayBounds(i))
	}
	return bounds
}

// VirtualBounds returns the union of all display bounds.
func VirtualBounds(displays []image.Rectangle) (image.Rectangle, error) {
	if len(displays) == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	union := displays[0]
	for _, b := range displays[1:] {
		union = union.Union(b)
	}
	if union.Empty() {
		return image.Rectangle{}, fmt.Errorf("display bounds are empty")
	}
	return union, nil
}

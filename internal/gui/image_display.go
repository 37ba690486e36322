package gui

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// ImageDisplay shows the illustration of the active definition slot. Images
// arrive as URLs (backend-served, cache-busted) or local file paths; remote
// ones are fetched in the background. A fetch counter discards responses for
// URLs that were replaced while the fetch was in flight.
type ImageDisplay struct {
	widget.BaseWidget

	container   *fyne.Container
	imageCanvas *canvas.Image
	imageLabel  *widget.Label

	httpClient *http.Client
	fetchSeq   atomic.Uint64
}

// NewImageDisplay creates an image display widget.
func NewImageDisplay() *ImageDisplay {
	d := &ImageDisplay{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	d.imageCanvas = canvas.NewImageFromResource(nil)
	d.imageCanvas.FillMode = canvas.ImageFillContain
	d.imageCanvas.SetMinSize(fyne.NewSize(280, 220))

	d.imageLabel = widget.NewLabel("No image")
	d.imageLabel.Alignment = fyne.TextAlignCenter

	d.container = container.NewBorder(
		nil,
		d.imageLabel,
		nil, nil,
		d.imageCanvas,
	)

	d.ExtendBaseWidget(d)
	return d
}

// CreateRenderer implements fyne.Widget
func (d *ImageDisplay) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(d.container)
}

// SetURL loads and displays the image at url; "" clears the display. Must be
// called on the UI thread.
func (d *ImageDisplay) SetURL(url string) {
	seq := d.fetchSeq.Add(1)
	if url == "" {
		d.clearCanvas()
		d.imageLabel.SetText("No image")
		return
	}

	d.imageLabel.SetText("Loading image...")
	go func() {
		img, err := d.fetch(url)
		fyne.Do(func() {
			if d.fetchSeq.Load() != seq {
				return
			}
			if err != nil {
				d.clearCanvas()
				d.imageLabel.SetText(fmt.Sprintf("Error loading image: %v", err))
				return
			}
			d.imageCanvas.Image = img
			d.imageCanvas.Refresh()
			d.imageLabel.SetText("")
		})
	}()
}

// Clear clears the display. Must be called on the UI thread.
func (d *ImageDisplay) Clear() {
	d.fetchSeq.Add(1)
	d.clearCanvas()
	d.imageLabel.SetText("No image")
}

func (d *ImageDisplay) clearCanvas() {
	d.imageCanvas.Image = nil
	d.imageCanvas.Refresh()
}

func (d *ImageDisplay) fetch(url string) (image.Image, error) {
	var r io.ReadCloser
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		resp, err := d.httpClient.Get(url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		// Local path from direct mode, possibly with a cache-bust suffix.
		path := url
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	return img, err
}

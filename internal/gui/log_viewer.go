package gui

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// LogViewer is a widget that displays recent log messages. It captures
// stderr through a pipe, so everything the leveled logger writes shows up
// here as well as on the terminal.
type LogViewer struct {
	widget.BaseWidget

	container  *fyne.Container
	logEntry   *widget.Entry
	scrollView *container.Scroll

	mu          sync.Mutex
	messages    []string
	maxMessages int

	originalStderr *os.File
	pipeWriter     *os.File
}

// NewLogViewer creates a new log viewer widget
func NewLogViewer() *LogViewer {
	v := &LogViewer{
		maxMessages: 500,
	}

	v.logEntry = widget.NewMultiLineEntry()
	v.logEntry.Disable() // read-only
	v.logEntry.Wrapping = fyne.TextWrapWord

	v.scrollView = container.NewScroll(v.logEntry)
	v.scrollView.SetMinSize(fyne.NewSize(0, 120))
	v.scrollView.Direction = container.ScrollBoth

	v.container = container.NewBorder(
		widget.NewLabel("Log messages (newest first):"),
		nil,
		nil,
		nil,
		v.scrollView,
	)

	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget
func (v *LogViewer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.container)
}

// StartCapture redirects stderr through the viewer. The original stream
// still receives everything.
func (v *LogViewer) StartCapture() {
	v.originalStderr = os.Stderr

	r, w, err := os.Pipe()
	if err != nil {
		return
	}
	os.Stderr = w
	v.pipeWriter = w

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := scanner.Text()
			if v.originalStderr != nil {
				v.originalStderr.WriteString(line + "\n")
			}
			if strings.TrimSpace(line) != "" {
				v.AddMessage(line)
			}
		}
	}()
}

// StopCapture restores stderr.
func (v *LogViewer) StopCapture() {
	if v.originalStderr != nil {
		os.Stderr = v.originalStderr
	}
	if v.pipeWriter != nil {
		v.pipeWriter.Close()
	}
}

// AddMessage appends a message, newest first, trimming old ones.
func (v *LogViewer) AddMessage(message string) {
	v.mu.Lock()
	v.messages = append([]string{message}, v.messages...)
	if len(v.messages) > v.maxMessages {
		v.messages = v.messages[:v.maxMessages]
	}
	text := strings.Join(v.messages, "\n")
	v.mu.Unlock()

	fyne.Do(func() {
		v.logEntry.SetText(text)
	})
}

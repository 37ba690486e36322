package imagectl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/flashvoz/internal/api"
	"github.com/example/flashvoz/internal/card"
	"github.com/example/flashvoz/internal/testutil"
)

// fakeBackend scripts the image endpoints.
type fakeBackend struct {
	mu            sync.Mutex
	generateErrs  []error
	generateCalls int
	deleteCalls   int
	deleteErr     error
	uploadErr     error
	uploadCalls   int
}

func (f *fakeBackend) GenerateImage(ctx context.Context, req api.ImageRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.generateCalls
	f.generateCalls++
	if i < len(f.generateErrs) && f.generateErrs[i] != nil {
		return "", f.generateErrs[i]
	}
	return fmt.Sprintf("/media/images/card_%d_def_%d.png", req.Index, req.DefIndex), nil
}

func (f *fakeBackend) DeleteImage(ctx context.Context, category, deck string, index, defIndex int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeBackend) UploadImage(ctx context.Context, r io.Reader, filename, category, deck string, cardIndex, defIndex int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	io.Copy(io.Discard, r)
	return "/media/images/uploaded.png", nil
}

func (f *fakeBackend) AbsoluteURL(path string) string {
	return "http://backend" + path
}

func (f *fakeBackend) generated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generateCalls
}

// fakePreloader answers preload probes by URL substring.
type fakePreloader struct {
	failAll bool
}

func (f *fakePreloader) Preload(ctx context.Context, url string) error {
	if f.failAll {
		return errors.New("not reachable")
	}
	return nil
}

func testCard(defs int) *card.Card {
	c := &card.Card{ID: 7, Name: "gato", Phonetic: "/ˈga.to/"}
	for i := 0; i < defs; i++ {
		c.Definitions = append(c.Definitions, card.Definition{
			Meaning:      fmt.Sprintf("meaning %d", i),
			UsageExample: fmt.Sprintf("example %d", i),
		})
	}
	return c
}

func newTestController(backend Backend, preloader Preloader, status *testutil.StatusRecorder, opts ...Option) *Controller {
	all := append([]Option{WithRetryDelay(5 * time.Millisecond)}, opts...)
	if status != nil {
		all = append(all, WithStatusFunc(func(s Status) { status.Record(s.Text, s.IsError) }))
	}
	return NewController(backend, preloader, all...)
}

func TestDisplayForIndexPreloadsPersistedPath(t *testing.T) {
	backend := &fakeBackend{}
	status := &testutil.StatusRecorder{}
	images := &testutil.StringRecorder{}

	ctl := newTestController(backend, &fakePreloader{}, status,
		WithImageFunc(images.Record))

	crd := testCard(1)
	stored := "/media/images/stored.png"
	crd.Definitions[0].ImagePath = &stored
	ctl.SetCard("nouns", "animals", crd)

	ctl.DisplayForIndex(context.Background(), 0)

	if backend.generated() != 0 {
		t.Errorf("persisted image must not trigger generation, got %d calls", backend.generated())
	}
	last := images.Last()
	if !strings.Contains(last, "/media/images/stored.png?t=") {
		t.Errorf("displayed URL %q lacks cache-busted stored path", last)
	}
	if ctl.State(0) != Displayed {
		t.Errorf("state = %v, want Displayed", ctl.State(0))
	}
}

func TestDisplayForIndexFallsBackToGeneration(t *testing.T) {
	backend := &fakeBackend{}
	images := &testutil.StringRecorder{}
	paths := map[int]*string{}
	var mu sync.Mutex

	ctl := newTestController(backend, &fakePreloader{failAll: true}, nil,
		WithImageFunc(images.Record),
		WithPathUpdateFunc(func(cardID int, path *string, defIndex int) {
			mu.Lock()
			paths[defIndex] = path
			mu.Unlock()
		}))

	crd := testCard(1)
	stored := "/media/images/gone.png"
	crd.Definitions[0].ImagePath = &stored
	ctl.SetCard("nouns", "animals", crd)

	ctl.DisplayForIndex(context.Background(), 0)

	if backend.generated() != 1 {
		t.Fatalf("expected 1 generation call, got %d", backend.generated())
	}
	if !strings.Contains(images.Last(), "card_7_def_0.png?t=") {
		t.Errorf("displayed URL %q is not the generated image", images.Last())
	}
	mu.Lock()
	p := paths[0]
	mu.Unlock()
	if p == nil || *p != "/media/images/card_7_def_0.png" {
		t.Errorf("path update = %v, want generated path", p)
	}
}

func TestGenerateRetriesWithDelay(t *testing.T) {
	boom := errors.New("boom")
	backend := &fakeBackend{generateErrs: []error{boom, nil}}
	status := &testutil.StatusRecorder{}

	ctl := newTestController(backend, &fakePreloader{}, status)
	ctl.SetCard("nouns", "animals", testCard(1))

	ctl.DisplayForIndex(context.Background(), 0)
	if backend.generated() != 1 {
		t.Fatalf("expected 1 immediate attempt, got %d", backend.generated())
	}

	// The retry fires on a timer.
	waitFor(t, func() bool { return backend.generated() == 2 })
	waitFor(t, func() bool { return ctl.State(0) == Displayed })
	if !status.Contains("Image (Def 1) ready!") {
		t.Errorf("missing ready status: %v", status.Messages())
	}
}

func TestGenerateStopsAfterMaxAttempts(t *testing.T) {
	boom := errors.New("boom")
	backend := &fakeBackend{generateErrs: []error{boom, boom, boom, boom}}
	status := &testutil.StatusRecorder{}

	ctl := newTestController(backend, &fakePreloader{}, status)
	ctl.SetCard("nouns", "animals", testCard(1))

	ctl.DisplayForIndex(context.Background(), 0)
	waitFor(t, func() bool { return ctl.State(0) == Failed && ctl.Attempts(0) == MaxAttempts })

	if backend.generated() != MaxAttempts {
		t.Fatalf("expected %d attempts, got %d", MaxAttempts, backend.generated())
	}
	if !status.Contains("Failed to load image") {
		t.Errorf("missing terminal failure status: %v", status.Messages())
	}

	// A further explicit request must short-circuit without network traffic.
	before := backend.generated()
	ctl.Generate(context.Background(), 0)
	if backend.generated() != before {
		t.Errorf("exhausted slot still reached the network")
	}
	if !status.Contains("All attempts failed for image def 1") {
		t.Errorf("missing exhaustion status: %v", status.Messages())
	}
}

func TestGenerationDisabledIsTerminalNonError(t *testing.T) {
	backend := &fakeBackend{generateErrs: []error{api.ErrGenerationDisabled}}
	status := &testutil.StatusRecorder{}

	ctl := newTestController(backend, &fakePreloader{}, status)
	ctl.SetCard("nouns", "animals", testCard(1))

	ctl.DisplayForIndex(context.Background(), 0)

	// No retry may be scheduled.
	time.Sleep(30 * time.Millisecond)
	if backend.generated() != 1 {
		t.Errorf("disabled generation was retried: %d calls", backend.generated())
	}
	if ctl.State(0) != Failed {
		t.Errorf("state = %v, want Failed", ctl.State(0))
	}
	for _, e := range status.Entries() {
		if e.IsError {
			t.Errorf("generation-disabled produced error status %q", e.Message)
		}
	}
}

func TestSetCardCancelsPendingRetry(t *testing.T) {
	boom := errors.New("boom")
	backend := &fakeBackend{generateErrs: []error{boom, boom, boom, boom}}

	ctl := newTestController(backend, &fakePreloader{}, nil, WithRetryDelay(20*time.Millisecond))
	ctl.SetCard("nouns", "animals", testCard(1))

	ctl.DisplayForIndex(context.Background(), 0)
	if backend.generated() != 1 {
		t.Fatalf("expected 1 attempt before card switch, got %d", backend.generated())
	}

	// Switching cards must cancel the deferred retry.
	ctl.SetCard("nouns", "animals", testCard(1))
	time.Sleep(60 * time.Millisecond)
	if backend.generated() != 1 {
		t.Errorf("retry fired after card switch: %d calls", backend.generated())
	}
}

func TestDisplayForIndexDiscardsStaleCompletion(t *testing.T) {
	release := make(chan struct{})
	backend := &blockingBackend{release: release}
	images := &testutil.StringRecorder{}

	ctl := newTestController(backend, &fakePreloader{}, nil, WithImageFunc(images.Record))
	ctl.SetCard("nouns", "animals", testCard(2))

	done := make(chan struct{})
	go func() {
		ctl.DisplayForIndex(context.Background(), 0)
		close(done)
	}()
	backend.waitForCall(t)

	// Switch slots while the first generation is still in flight.
	go ctl.DisplayForIndex(context.Background(), 1)
	backend.waitForCall(t)
	close(release)
	<-done
	waitFor(t, func() bool { return ctl.State(1) == Displayed })

	if got := ctl.CurrentURL(); !strings.Contains(got, "def_1") {
		t.Errorf("current URL %q belongs to the stale slot", got)
	}
	for _, u := range images.Values() {
		if strings.Contains(u, "def_0") {
			t.Errorf("stale slot 0 completion was published: %v", images.Values())
		}
	}
}

// blockingBackend blocks GenerateImage until released, to create in-flight
// requests.
type blockingBackend struct {
	mu      sync.Mutex
	calls   int
	seen    int
	release chan struct{}
}

func (b *blockingBackend) GenerateImage(ctx context.Context, req api.ImageRequest) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	<-b.release
	return fmt.Sprintf("/media/images/card_%d_def_%d.png", req.Index, req.DefIndex), nil
}

// waitForCall blocks until a GenerateImage call beyond the last waited-for
// one has arrived.
func (b *blockingBackend) waitForCall(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.mu.Lock()
		arrived := b.calls > b.seen
		if arrived {
			b.seen++
		}
		b.mu.Unlock()
		if arrived {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for GenerateImage call")
}

func (b *blockingBackend) DeleteImage(ctx context.Context, category, deck string, index, defIndex int) error {
	return nil
}

func (b *blockingBackend) UploadImage(ctx context.Context, r io.Reader, filename, category, deck string, cardIndex, defIndex int) (string, error) {
	return "", errors.New("not implemented")
}

func (b *blockingBackend) AbsoluteURL(path string) string { return "http://backend" + path }

func TestDeleteCurrentWithoutImageIsInformational(t *testing.T) {
	backend := &fakeBackend{}
	status := &testutil.StatusRecorder{}

	ctl := newTestController(backend, &fakePreloader{}, status)
	ctl.SetCard("nouns", "animals", testCard(1))

	ctl.DeleteCurrent(context.Background())

	if backend.deleteCalls != 0 {
		t.Errorf("delete without image reached the network")
	}
	if !status.Contains("No image to delete") {
		t.Errorf("missing informational status: %v", status.Messages())
	}
	if e := status.LastError(); e.Message != "" {
		t.Errorf("informational delete produced error status %q", e.Message)
	}
}

func TestDeleteCurrentClearsSlot(t *testing.T) {
	backend := &fakeBackend{}
	status := &testutil.StatusRecorder{}
	images := &testutil.StringRecorder{}
	sentinel := "sentinel"
	gotPath := &sentinel
	gotDef := -1
	var mu sync.Mutex

	ctl := newTestController(backend, &fakePreloader{}, status,
		WithImageFunc(images.Record),
		WithPathUpdateFunc(func(cardID int, path *string, defIndex int) {
			mu.Lock()
			gotPath, gotDef = path, defIndex
			mu.Unlock()
		}))

	crd := testCard(1)
	stored := "/media/images/stored.png"
	crd.Definitions[0].ImagePath = &stored
	ctl.SetCard("nouns", "animals", crd)
	ctl.DisplayForIndex(context.Background(), 0)

	ctl.DeleteCurrent(context.Background())

	if backend.deleteCalls != 1 {
		t.Fatalf("expected 1 delete call, got %d", backend.deleteCalls)
	}
	if ctl.CurrentURL() != "" {
		t.Errorf("URL %q not cleared after delete", ctl.CurrentURL())
	}
	if ctl.State(0) != Unresolved {
		t.Errorf("state = %v, want Unresolved", ctl.State(0))
	}
	mu.Lock()
	defer mu.Unlock()
	if gotPath != nil || gotDef != 0 {
		t.Errorf("path update (%v, %d), want (nil, 0)", gotPath, gotDef)
	}
}

func TestDeleteFailureIsNotRetried(t *testing.T) {
	backend := &fakeBackend{deleteErr: errors.New("backend sad")}
	status := &testutil.StatusRecorder{}

	ctl := newTestController(backend, &fakePreloader{}, status)
	crd := testCard(1)
	stored := "/media/images/stored.png"
	crd.Definitions[0].ImagePath = &stored
	ctl.SetCard("nouns", "animals", crd)
	ctl.DisplayForIndex(context.Background(), 0)

	ctl.DeleteCurrent(context.Background())
	time.Sleep(30 * time.Millisecond)

	if backend.deleteCalls != 1 {
		t.Errorf("failed delete was retried: %d calls", backend.deleteCalls)
	}
	if e := status.LastError(); !strings.HasPrefix(e.Message, "Error:") {
		t.Errorf("missing delete error status, got %q", e.Message)
	}
}

func TestUploadPublishesUploadedImage(t *testing.T) {
	backend := &fakeBackend{}
	status := &testutil.StatusRecorder{}
	images := &testutil.StringRecorder{}

	ctl := newTestController(backend, &fakePreloader{}, status, WithImageFunc(images.Record))
	ctl.SetCard("nouns", "animals", testCard(1))

	ctl.Upload(context.Background(), strings.NewReader("fake image bytes"), "cat.png")

	if backend.uploadCalls != 1 {
		t.Fatalf("expected 1 upload call, got %d", backend.uploadCalls)
	}
	if backend.generated() != 0 {
		t.Errorf("upload triggered generation")
	}
	if !strings.Contains(images.Last(), "/media/images/uploaded.png?t=") {
		t.Errorf("displayed URL %q is not the uploaded image", images.Last())
	}
	if !status.Contains("Image uploaded and saved.") {
		t.Errorf("missing upload status: %v", status.Messages())
	}
}

func TestUploadFailureLeavesSlotCleared(t *testing.T) {
	backend := &fakeBackend{uploadErr: errors.New("too large")}
	status := &testutil.StatusRecorder{}

	ctl := newTestController(backend, &fakePreloader{}, status)
	crd := testCard(1)
	stored := "/media/images/stored.png"
	crd.Definitions[0].ImagePath = &stored
	ctl.SetCard("nouns", "animals", crd)
	ctl.DisplayForIndex(context.Background(), 0)

	ctl.Upload(context.Background(), strings.NewReader("x"), "cat.png")
	time.Sleep(30 * time.Millisecond)

	if backend.uploadCalls != 1 {
		t.Errorf("failed upload was retried: %d calls", backend.uploadCalls)
	}
	if ctl.CurrentURL() != "" {
		t.Errorf("URL %q not cleared after failed upload", ctl.CurrentURL())
	}
	if ctl.State(0) != Failed {
		t.Errorf("state = %v, want Failed", ctl.State(0))
	}
}

// waitFor polls cond until it holds or the deadline expires.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

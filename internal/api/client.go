// Package api is the typed client for the flashcard backend REST API. All
// other packages talk to the backend exclusively through it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/example/flashvoz/internal/logger"
)

const defaultTimeout = 30 * time.Second

// Client talks to the flashcard backend. A single shared circuit breaker
// guards all endpoints so a dead backend stops being hammered quickly.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *logger.Logger
}

// New creates a Client for the given backend base URL (e.g.
// "http://127.0.0.1:8000").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "flashvoz-backend",
			Timeout: 15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		log: logger.Default().WithPrefix("api"),
	}
}

// BaseURL returns the backend base URL, used to absolutize relative paths.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AbsoluteURL prefixes a backend-relative path with the base URL. Absolute
// URLs and local file paths pass through unchanged.
func (c *Client) AbsoluteURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "file://") || strings.HasPrefix(path, "/tmp/") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// do executes a request through the circuit breaker and returns the response.
// Transport errors and 5xx answers count as breaker failures; 4xx answers do
// not, they are the backend talking.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	reqID := uuid.NewString()[:8]
	log := c.log.WithField("req", reqID)
	log.Debug("%s %s", req.Method, req.URL.Path)
	start := time.Now()

	res, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, fmt.Errorf("server error %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if resp, ok := res.(*http.Response); ok && resp != nil {
			// 5xx: keep the body so the caller can extract the detail.
			log.Warn("%s %s failed in %v: %v", req.Method, req.URL.Path, time.Since(start), err)
			return resp, nil
		}
		log.Error("%s %s failed in %v: %v", req.Method, req.URL.Path, time.Since(start), err)
		return nil, err
	}

	resp := res.(*http.Response)
	log.Debug("%s %s -> %d in %v", req.Method, req.URL.Path, resp.StatusCode, time.Since(start))
	return resp, nil
}

// decodeError turns a non-2xx response into an *APIError, pulling the
// backend's {"detail": ...} field when the body has one.
func decodeError(resp *http.Response) error {
	defer resp.Body.Close()
	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Detail string `json:"detail"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, method, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// Categories lists the grammatical categories the backend knows about.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out struct {
		Success    bool     `json:"success"`
		Categories []string `json:"categories"`
	}
	if err := c.getJSON(ctx, "/api/categories", nil, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.Categories == nil {
		return nil, fmt.Errorf("categories: %w", ErrMissingField)
	}
	return out.Categories, nil
}

// DeckNames lists the decks available in a category. The backend reports file
// names; the ".json" suffix is stripped off.
func (c *Client) DeckNames(ctx context.Context, category string) ([]string, error) {
	q := url.Values{"category": {category}}
	var out struct {
		Success bool     `json:"success"`
		Files   []string `json:"files"`
	}
	if err := c.getJSON(ctx, "/api/available-flashcards-files", q, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.Files == nil {
		return nil, fmt.Errorf("deck names: %w", ErrMissingField)
	}
	names := make([]string, 0, len(out.Files))
	for _, f := range out.Files {
		names = append(names, strings.TrimSuffix(f, ".json"))
	}
	return names, nil
}

// DeckData fetches the raw card payload of a deck. Decoding and
// normalization live in the card package.
func (c *Client) DeckData(ctx context.Context, category, deck string) ([]byte, error) {
	q := url.Values{"category": {category}, "deck": {deck}}
	u := c.baseURL + "/api/flashcards-data?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

// UpdateStatus marks a card learned or unlearned on the backend.
func (c *Client) UpdateStatus(ctx context.Context, category, deck string, index int, learned bool) error {
	body := map[string]any{
		"category": category,
		"deck":     deck,
		"index":    index,
		"learned":  learned,
	}
	resp, err := c.postJSON(ctx, http.MethodPost, "/api/update-status", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// ResetAll clears the learned flags of every card in a deck.
func (c *Client) ResetAll(ctx context.Context, category, deck string) error {
	body := map[string]string{"category": category, "deck": deck}
	resp, err := c.postJSON(ctx, http.MethodPost, "/api/reset-all", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// SpeechRequest is the synthesize-speech payload.
type SpeechRequest struct {
	Category  string `json:"category"`
	Deck      string `json:"deck"`
	Text      string `json:"text"`
	VoiceName string `json:"voice_name"`
	ModelName string `json:"model_name"`
	Tone      string `json:"tone"`
	VerbName  string `json:"verb_name"`
}

// SynthesizeSpeech asks the backend to synthesize speech for a text snippet
// and returns a playable location. The normal mode answers JSON with an
// audio_url; the alternate mode streams raw audio bytes, which are spooled to
// a temp file whose path is returned instead. A 2xx answer without an
// audio_url is an ErrMissingField, retryable like any transport failure.
func (c *Client) SynthesizeSpeech(ctx context.Context, req SpeechRequest) (string, error) {
	resp, err := c.postJSON(ctx, http.MethodPost, "/api/synthesize-speech", req)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "audio/") {
		return c.spoolAudio(resp.Body, ct)
	}

	var out struct {
		AudioURL string `json:"audio_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.AudioURL == "" {
		return "", fmt.Errorf("synthesize-speech: %w", ErrMissingField)
	}
	return c.AbsoluteURL(out.AudioURL), nil
}

// spoolAudio writes a raw audio body to a temp file and returns its path.
func (c *Client) spoolAudio(body io.Reader, contentType string) (string, error) {
	ext := ".mp3"
	if strings.Contains(contentType, "wav") {
		ext = ".wav"
	}
	f, err := os.CreateTemp("", "flashvoz_speech_*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp audio file: %w", err)
	}
	defer f.Close()
	written, err := io.Copy(f, body)
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}
	if written == 0 {
		os.Remove(f.Name())
		return "", fmt.Errorf("synthesize-speech: %w", ErrMissingField)
	}
	return f.Name(), nil
}

// ImageRequest is the generate-image payload.
type ImageRequest struct {
	Category        string `json:"category"`
	Deck            string `json:"deck"`
	Index           int    `json:"index"`
	DefIndex        int    `json:"def_index"`
	Prompt          string `json:"prompt"`
	ForceGeneration bool   `json:"force_generation"`
}

// GenerateImage requests an illustration for a definition slot and returns
// the backend-relative path of the stored image. A 404 means generation is
// disabled for the card and maps to ErrGenerationDisabled.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	resp, err := c.postJSON(ctx, http.MethodPost, "/api/generate-image", req)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return "", ErrGenerationDisabled
	}
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}
	defer resp.Body.Close()

	var out struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Path == "" {
		return "", fmt.Errorf("generate-image: %w", ErrMissingField)
	}
	return out.Path, nil
}

// DeleteImage removes the stored image of a definition slot.
func (c *Client) DeleteImage(ctx context.Context, category, deck string, index, defIndex int) error {
	body := map[string]any{
		"category":  category,
		"deck":      deck,
		"index":     index,
		"def_index": defIndex,
	}
	resp, err := c.postJSON(ctx, http.MethodDelete, "/api/delete-image", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// UploadImage sends a user-chosen image file for a definition slot and
// returns the backend-relative path it was stored under.
func (c *Client) UploadImage(ctx context.Context, r io.Reader, filename, category, deck string, cardIndex, defIndex int) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read upload file: %w", err)
	}
	fields := map[string]string{
		"category":   category,
		"deck":       deck,
		"card_index": strconv.Itoa(cardIndex),
		"def_index":  strconv.Itoa(defIndex),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", fmt.Errorf("failed to build upload: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload-image", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}
	defer resp.Body.Close()

	var out struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Path == "" {
		return "", fmt.Errorf("upload-image: %w", ErrMissingField)
	}
	return out.Path, nil
}

// PhonicsRule is one entry of the phonics reference data.
type PhonicsRule struct {
	Rule       string   `json:"rule"`
	SoundsLike string   `json:"sounds_like"`
	Examples   []string `json:"examples"`
	IPA        []string `json:"ipa"`
}

// PhonicsRules fetches the phonics reference table.
func (c *Client) PhonicsRules(ctx context.Context) ([]PhonicsRule, error) {
	u := c.baseURL + "/api/phonics-data"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	defer resp.Body.Close()

	var rules []PhonicsRule
	if err := json.NewDecoder(resp.Body).Decode(&rules); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return rules, nil
}

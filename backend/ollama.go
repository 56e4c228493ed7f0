package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/chapterwise/chapterwise"
)

// DefaultOllamaHost is the default address of a local Ollama server.
const DefaultOllamaHost = "http://localhost:11434"

const (
	healthTimeout = 2 * time.Second
	tagsTimeout   = 3 * time.Second
)

// OllamaConfig holds configuration for the Ollama backend.
type OllamaConfig struct {
	Host           string        // Server address (default: DefaultOllamaHost)
	HTTPClient     *http.Client  // Custom HTTP client (optional)
	RequestTimeout time.Duration // Per-generation timeout (default: 120s)
}

// OllamaBackend talks to a local Ollama server over its HTTP API.
type OllamaBackend struct {
	host    string
	client  *http.Client
	timeout time.Duration
}

// NewOllamaBackend creates an Ollama backend.
func NewOllamaBackend(cfg OllamaConfig) *OllamaBackend {
	host := strings.TrimRight(cfg.Host, "/")
	if host == "" {
		host = DefaultOllamaHost
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &OllamaBackend{
		host:    host,
		client:  client,
		timeout: timeout,
	}
}

// Name implements Backend.
func (b *OllamaBackend) Name() string {
	return "ollama"
}

// Host returns the configured server address.
func (b *OllamaBackend) Host() string {
	return b.host
}

// Running reports whether the server answers its version endpoint.
func (b *OllamaBackend) Running(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.host+"/api/version", nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", chapterwise.UserAgent())

	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// EnsureRunning starts the server if it is not already up and waits for it
// to answer. The spawned process outlives this program.
func (b *OllamaBackend) EnsureRunning(ctx context.Context) error {
	if b.Running(ctx) {
		return nil
	}

	cmd := exec.Command("ollama", "serve")
	if err := cmd.Start(); err != nil {
		return &chapterwise.BackendError{
			Backend: b.Name(),
			Message: "failed to start ollama serve",
			Cause:   err,
		}
	}
	// Detach; the server keeps running after we exit.
	go cmd.Wait()

	for i := 0; i < 10; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
		if b.Running(ctx) {
			return nil
		}
	}

	return &chapterwise.BackendError{
		Backend:   b.Name(),
		Message:   "server did not become ready",
		Retryable: true,
	}
}

// Models lists the names of locally available models.
func (b *OllamaBackend) Models(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, tagsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.host+"/api/tags", nil)
	if err != nil {
		return nil, &chapterwise.BackendError{Backend: b.Name(), Message: "building tags request", Cause: err}
	}
	req.Header.Set("User-Agent", chapterwise.UserAgent())

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &chapterwise.BackendError{Backend: b.Name(), Message: "listing models", Cause: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &chapterwise.BackendError{
			Backend: b.Name(),
			Message: fmt.Sprintf("listing models: unexpected status %d", resp.StatusCode),
		}
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, &chapterwise.BackendError{Backend: b.Name(), Message: "decoding model list", Cause: err}
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HasModel reports whether the named model is available locally.
func (b *OllamaBackend) HasModel(ctx context.Context, model string) (bool, error) {
	models, err := b.Models(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if m == model || strings.TrimSuffix(m, ":latest") == model {
			return true, nil
		}
	}
	return false, nil
}

// PullProgressFunc receives status lines while a model downloads.
type PullProgressFunc func(status string, completed, total int64)

// Pull downloads a model, reporting progress as the server streams it.
// The download is retried on transient failures.
func (b *OllamaBackend) Pull(ctx context.Context, model string, onProgress PullProgressFunc) error {
	_, err := chapterwise.WithRetry(ctx, chapterwise.DefaultRetryConfig(), func() (struct{}, error) {
		return struct{}{}, b.pullOnce(ctx, model, onProgress)
	})
	return err
}

func (b *OllamaBackend) pullOnce(ctx context.Context, model string, onProgress PullProgressFunc) error {
	body, err := json.Marshal(map[string]string{"name": model})
	if err != nil {
		return &chapterwise.BackendError{Backend: b.Name(), Message: "encoding pull request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.host+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return &chapterwise.BackendError{Backend: b.Name(), Message: "building pull request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", chapterwise.UserAgent())

	resp, err := b.client.Do(req)
	if err != nil {
		return &chapterwise.BackendError{Backend: b.Name(), Message: "pulling model", Cause: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &chapterwise.BackendError{
			Backend:   b.Name(),
			Message:   fmt.Sprintf("pulling model %q: unexpected status %d", model, resp.StatusCode),
			Retryable: resp.StatusCode >= 500,
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk struct {
			Status    string `json:"status"`
			Completed int64  `json:"completed"`
			Total     int64  `json:"total"`
			Error     string `json:"error"`
		}
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return &chapterwise.BackendError{
				Backend: b.Name(),
				Message: fmt.Sprintf("pulling model %q: %s", model, chunk.Error),
			}
		}
		if onProgress != nil {
			onProgress(chunk.Status, chunk.Completed, chunk.Total)
		}
	}
	if err := scanner.Err(); err != nil {
		return &chapterwise.BackendError{Backend: b.Name(), Message: "reading pull stream", Cause: err, Retryable: true}
	}

	return nil
}

// modelRAMGB maps model name prefixes to the minimum system RAM in GiB
// required to run them comfortably.
var modelRAMGB = map[string]uint64{
	"qwen:3b":   6,
	"qwen:7b":   12,
	"llama2:7b": 8,
	"gemma:2b":  4,
	"gemma:7b":  12,
}

var supportedArchs = map[string]bool{
	"x86_64":  true,
	"amd64":   true,
	"arm64":   true,
	"aarch64": true,
}

// ModelSupported checks whether the local machine can run the model.
// Unknown models are assumed runnable.
func (b *OllamaBackend) ModelSupported(model string) (bool, string) {
	if !supportedArchs[runtime.GOARCH] {
		return false, fmt.Sprintf("unsupported architecture %s", runtime.GOARCH)
	}

	need, ok := requiredRAMGB(model)
	if !ok {
		return true, ""
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		// Cannot measure; let the server decide.
		return true, ""
	}

	haveGB := vm.Total / (1 << 30)
	if haveGB < need {
		return false, fmt.Sprintf("model %s needs %d GiB RAM, system has %d GiB", model, need, haveGB)
	}
	return true, ""
}

func requiredRAMGB(model string) (uint64, bool) {
	for prefix, gb := range modelRAMGB {
		if strings.HasPrefix(model, prefix) {
			return gb, true
		}
	}
	return 0, false
}

type generatePayload struct {
	Model   string                       `json:"model"`
	Prompt  string                       `json:"prompt"`
	Stream  bool                         `json:"stream"`
	Options *chapterwise.GenerateOptions `json:"options,omitempty"`
}

// Generate implements Generator with a single non-streamed request.
func (b *OllamaBackend) Generate(ctx context.Context, req chapterwise.GenerateRequest) (string, error) {
	resp, err := b.generate(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &chapterwise.BackendError{Backend: b.Name(), Message: "decoding response", Cause: err}
	}
	if out.Error != "" {
		return "", &chapterwise.BackendError{Backend: b.Name(), Message: out.Error}
	}
	return out.Response, nil
}

// GenerateStream implements StreamingGenerator. The server responds with
// newline-delimited JSON chunks; onDelta receives each response fragment.
func (b *OllamaBackend) GenerateStream(ctx context.Context, req chapterwise.GenerateRequest, onDelta func(delta string) error) (string, error) {
	resp, err := b.generate(ctx, req, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk struct {
			Response string `json:"response"`
			Done     bool   `json:"done"`
			Error    string `json:"error"`
		}
		if err := json.Unmarshal(line, &chunk); err != nil {
			return full.String(), &chapterwise.BackendError{Backend: b.Name(), Message: "decoding stream chunk", Cause: err}
		}
		if chunk.Error != "" {
			return full.String(), &chapterwise.BackendError{Backend: b.Name(), Message: chunk.Error}
		}

		if chunk.Response != "" {
			full.WriteString(chunk.Response)
			if onDelta != nil {
				if err := onDelta(chunk.Response); err != nil {
					return full.String(), err
				}
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), &chapterwise.BackendError{Backend: b.Name(), Message: "reading stream", Cause: err}
	}

	return full.String(), nil
}

func (b *OllamaBackend) generate(ctx context.Context, req chapterwise.GenerateRequest, stream bool) (*http.Response, error) {
	body, err := json.Marshal(generatePayload{
		Model:   req.Model,
		Prompt:  req.Prompt,
		Stream:  stream,
		Options: req.Options,
	})
	if err != nil {
		return nil, &chapterwise.BackendError{Backend: b.Name(), Message: "encoding generate request", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, &chapterwise.BackendError{Backend: b.Name(), Message: "building generate request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", chapterwise.UserAgent())

	resp, err := b.client.Do(httpReq)
	if err != nil {
		cancel()
		return nil, &chapterwise.BackendError{Backend: b.Name(), Message: "generate request failed", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, &chapterwise.BackendError{
			Backend: b.Name(),
			Message: fmt.Sprintf("generate: unexpected status %d", resp.StatusCode),
		}
	}

	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelReadCloser releases the request timeout when the body is closed.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	c.cancel()
	return c.ReadCloser.Close()
}

var (
	_ chapterwise.Generator          = (*OllamaBackend)(nil)
	_ chapterwise.StreamingGenerator = (*OllamaBackend)(nil)
)

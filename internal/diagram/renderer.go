package diagram

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnavailable marks a render tier that cannot run at all (missing
// binary, unconfigured endpoint). The pipeline treats it like any other
// tier failure and falls through.
var ErrUnavailable = errors.New("renderer unavailable")

// Request carries one render attempt's input.
type Request struct {
	Source string
	Theme  Theme
	// WidthHint is the available display width in pixels, advisory only.
	WidthHint int
}

// Renderer is one candidate backend in the fallback chain.
type Renderer interface {
	Name() string
	Render(ctx context.Context, req Request) (string, error)
}

const defaultHTTPTimeout = 15 * time.Second

// KrokiRenderer renders through a Kroki-compatible service: POST the raw
// diagram source, receive SVG text. Preferred tier: server-side rendering
// gives consistent fonts and theming.
type KrokiRenderer struct {
	Endpoint string
	Client   *http.Client
}

func NewKrokiRenderer(endpoint string) *KrokiRenderer {
	return &KrokiRenderer{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Client:   &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (r *KrokiRenderer) Name() string { return "kroki" }

func (r *KrokiRenderer) Render(ctx context.Context, req Request) (string, error) {
	if r.Endpoint == "" {
		return "", ErrUnavailable
	}

	url := r.Endpoint + "/mermaid/svg"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, strings.NewReader(req.Source))
	if err != nil {
		return "", fmt.Errorf("building kroki request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/plain")

	resp, err := r.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("kroki request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("reading kroki response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("kroki returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return string(body), nil
}

// LocalRenderer shells out to the mermaid CLI (mmdc) when it is installed.
// Absence is reported as ErrUnavailable, never a crash.
type LocalRenderer struct {
	BinPath string
}

func NewLocalRenderer(binPath string) *LocalRenderer {
	if binPath == "" {
		binPath, _ = exec.LookPath("mmdc")
	}
	return &LocalRenderer{BinPath: binPath}
}

func (r *LocalRenderer) Name() string { return "mmdc" }

func (r *LocalRenderer) Render(ctx context.Context, req Request) (string, error) {
	if r.BinPath == "" {
		return "", ErrUnavailable
	}

	dir, err := os.MkdirTemp("", "streamdown-mmdc-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "diagram.mmd")
	out := filepath.Join(dir, "diagram.svg")
	if err := os.WriteFile(in, []byte(req.Source), 0o600); err != nil {
		return "", fmt.Errorf("writing diagram source: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.BinPath, "-i", in, "-o", out, "--quiet")
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("mmdc failed: %s: %w", truncate(string(output), 200), err)
	}

	svg, err := os.ReadFile(out)
	if err != nil {
		return "", fmt.Errorf("reading mmdc output: %w", err)
	}
	return string(svg), nil
}

// MermaidInkRenderer is the public third-party fallback, used strictly
// last: GET /svg/<base64(source)>.
type MermaidInkRenderer struct {
	Endpoint string
	Client   *http.Client
}

func NewMermaidInkRenderer(endpoint string) *MermaidInkRenderer {
	if endpoint == "" {
		endpoint = "https://mermaid.ink"
	}
	return &MermaidInkRenderer{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Client:   &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (r *MermaidInkRenderer) Name() string { return "mermaid.ink" }

func (r *MermaidInkRenderer) Render(ctx context.Context, req Request) (string, error) {
	encoded := base64.URLEncoding.EncodeToString([]byte(req.Source))
	url := r.Endpoint + "/svg/" + encoded

	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("building mermaid.ink request: %w", err)
	}

	resp, err := r.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("mermaid.ink request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("reading mermaid.ink response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mermaid.ink returned %d", resp.StatusCode)
	}
	return string(body), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RuntimeClient talks to a model-runtime server over HTTP. The runtime owns
// model weights, tokenization and any multi-GPU sharding; this client only
// issues blocking calls against one pretrained model chosen at startup.
type RuntimeClient struct {
	baseURL    string
	model      string
	placement  Placement
	reqTimeout time.Duration
	httpClient *http.Client
}

// NewRuntimeClient constructs a client bound to one model and placement.
func NewRuntimeClient(baseURL, model string, placement Placement, reqTimeout, connectTimeout time.Duration) *RuntimeClient {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	// Timeout=0: every call carries a context-based deadline instead.
	cli := &http.Client{Transport: tr, Timeout: 0}
	return &RuntimeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		placement:  placement,
		reqTimeout: reqTimeout,
		httpClient: cli,
	}
}

// Model returns the pretrained model name this client is bound to.
func (c *RuntimeClient) Model() string { return c.model }

type initRequest struct {
	Model     string    `json:"model"`
	Placement Placement `json:"placement"`
}

// Init instructs the runtime to load the model under the configured placement.
// For deepspeed placements the runtime performs its own process-group setup;
// this call only passes the parameters through.
func (c *RuntimeClient) Init(ctx context.Context) error {
	var out struct {
		Ready bool `json:"ready"`
	}
	if err := c.post(ctx, "/init", initRequest{Model: c.model, Placement: c.placement}, &out); err != nil {
		return err
	}
	if !out.Ready {
		return ErrUnavailable("runtime did not report ready after init")
	}
	return nil
}

// WaitReady polls the runtime health endpoint until it answers or ctx expires.
func (c *RuntimeClient) WaitReady(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err == nil {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ErrUnavailable("runtime not ready: " + ctx.Err().Error())
		case <-time.After(interval):
		}
	}
}

type generateRequest struct {
	Model        string  `json:"model"`
	Prompt       string  `json:"prompt"`
	MaxNewTokens int     `json:"max_new_tokens,omitempty"`
	Temperature  float32 `json:"temperature,omitempty"`
	TopK         int     `json:"top_k,omitempty"`
	TopP         float32 `json:"top_p,omitempty"`
	DoSample     bool    `json:"do_sample"`
	Seed         int     `json:"seed,omitempty"`
}

// Generate runs a blocking text-generation call and returns the raw model
// output, including any echoed prompt.
func (c *RuntimeClient) Generate(ctx context.Context, prompt string, params GenParams) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	err := c.post(ctx, "/generate", generateRequest{
		Model:        c.model,
		Prompt:       prompt,
		MaxNewTokens: params.MaxNewTokens,
		Temperature:  params.Temperature,
		TopK:         params.TopK,
		TopP:         params.TopP,
		DoSample:     params.DoSample,
		Seed:         params.Seed,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

type encodeRequest struct {
	Model string   `json:"model"`
	Text  []string `json:"text"`
}

// Encode tokenizes the inputs (padded/truncated to a common length) and
// returns raw token embeddings plus the attention mask.
func (c *RuntimeClient) Encode(ctx context.Context, text []string) (Encoding, error) {
	var out Encoding
	if err := c.post(ctx, "/encode", encodeRequest{Model: c.model, Text: text}, &out); err != nil {
		return Encoding{}, err
	}
	if len(out.TokenEmbeddings) != len(text) || len(out.AttentionMask) != len(text) {
		return Encoding{}, fmt.Errorf("runtime returned %d embeddings and %d masks for %d inputs",
			len(out.TokenEmbeddings), len(out.AttentionMask), len(text))
	}
	return out, nil
}

type videoRequest struct {
	Model             string `json:"model"`
	Text              string `json:"text"`
	NumInferenceSteps int    `json:"num_inference_steps"`
	NumFrames         int    `json:"num_frames"`
	FPS               int    `json:"fps"`
}

// Synthesize runs a blocking text-to-video call and returns encoded bytes.
func (c *RuntimeClient) Synthesize(ctx context.Context, text string, steps, frames, fps int) ([]byte, error) {
	var out struct {
		Video []byte `json:"video"`
	}
	err := c.post(ctx, "/video", videoRequest{
		Model:             c.model,
		Text:              text,
		NumInferenceSteps: steps,
		NumFrames:         frames,
		FPS:               fps,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Video, nil
}

// post issues one JSON request/response round trip with the client timeout.
func (c *RuntimeClient) post(ctx context.Context, path string, in, out any) error {
	if c.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.reqTimeout)
		defer cancel()
	}
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var ne net.Error
		if errors.As(err, &ne) || errors.Is(err, io.EOF) {
			return ErrUnavailable("runtime unreachable: " + err.Error())
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusServiceUnavailable {
			return ErrUnavailable("runtime " + path + ": " + strings.TrimSpace(string(b)))
		}
		return fmt.Errorf("runtime %s: %s: %s", path, resp.Status, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

package remote

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	HeaderSignature = "X-Memoryflow-Signature"
	HeaderTimestamp = "X-Memoryflow-Timestamp"

	FieldFile    = "file"
	FieldCaption = "caption"

	maxAckBytes = 64 << 10
)

type Config struct {
	Endpoint      string
	SigningSecret string
	Timeout       time.Duration
}

type Client struct {
	httpClient    *http.Client
	endpoint      string
	signingSecret string
	tracer        trace.Tracer
}

type Payload struct {
	Filename    string
	ContentType string
	Data        []byte
	Caption     string
}

// Ack is the JSON acknowledgement returned by the upload endpoint.
type Ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	ID    string `json:"id,omitempty"`
}

// NetworkError means no usable acknowledgement arrived.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RemoteRejectedError carries the server's own explanation when it gave one,
// otherwise the HTTP status.
type RemoteRejectedError struct {
	StatusCode int
	Detail     string
}

func (e *RemoteRejectedError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "HTTP " + strconv.Itoa(e.StatusCode)
}

func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("upload endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint:      endpoint,
		signingSecret: cfg.SigningSecret,
		tracer:        otel.Tracer("memoryflow/remote"),
	}, nil
}

// Submit performs exactly one POST. There is no retry: the caller decides
// whether the user tries again.
func (c *Client) Submit(ctx context.Context, payload Payload) (Ack, error) {
	ctx, span := c.tracer.Start(ctx, "remote.submit", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("upload.filename", payload.Filename),
		attribute.Int("upload.bytes", len(payload.Data)),
	)
	defer span.End()

	ack, err := c.submit(ctx, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload rejected")
		return ack, err
	}
	span.SetStatus(codes.Ok, "uploaded")
	return ack, nil
}

func (c *Client) submit(ctx context.Context, payload Payload) (Ack, error) {
	body, contentType, err := encodeMultipart(payload)
	if err != nil {
		return Ack{}, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Ack{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.signingSecret != "" {
		timestamp := strconv.FormatInt(time.Now().UTC().Unix(), 10)
		req.Header.Set(HeaderTimestamp, timestamp)
		req.Header.Set(HeaderSignature, Sign(c.signingSecret, timestamp, body))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Ack{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	var ack Ack
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAckBytes)).Decode(&ack); err != nil {
		return Ack{}, &NetworkError{Err: fmt.Errorf("decode acknowledgement (HTTP %d): %w", resp.StatusCode, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !ack.OK {
		return ack, &RemoteRejectedError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(ack.Error)}
	}
	return ack, nil
}

func encodeMultipart(payload Payload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	contentType := payload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldFile, payload.Filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload.Data); err != nil {
		return nil, "", err
	}

	if err := w.WriteField(FieldCaption, payload.Caption); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// Sign computes the signature header value for a request body.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign in constant time.
func Verify(secret, timestamp string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, timestamp, body)), []byte(signature))
}

package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const generateContentURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// Part is one element of a generateContent request: either plain text or
// an inline binary attachment with a declared mime type.
type Part struct {
	Text     string
	MimeType string
	Data     []byte
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func BlobPart(mimeType string, data []byte) Part {
	return Part{MimeType: mimeType, Data: data}
}

// Generator is the model call as seen by the extractor: prompt parts in,
// raw response text out. Satisfied by *Client; faked in tests.
type Generator interface {
	GenerateContent(ctx context.Context, parts []Part) (string, error)
}

type Client struct {
	apiKey string
	model  string
	client *http.Client
}

// Ensure Client implements Generator
var _ Generator = &Client{}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// --- Request/Response structs (internal to this package) ---

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []*geminiPart `json:"parts"`
	Role  string        `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents []*geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content *geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []*geminiCandidate `json:"candidates"`
}

// GenerateContent submits the parts as a single user turn and returns the
// concatenated text of the first candidate.
func (c *Client) GenerateContent(ctx context.Context, parts []Part) (string, error) {
	geminiParts := make([]*geminiPart, 0, len(parts))
	for _, part := range parts {
		if part.Data != nil {
			geminiParts = append(geminiParts, &geminiPart{
				InlineData: &geminiInlineData{
					MimeType: part.MimeType,
					Data:     base64.StdEncoding.EncodeToString(part.Data),
				},
			})
			continue
		}
		geminiParts = append(geminiParts, &geminiPart{Text: part.Text})
	}

	payload := geminiRequest{
		Contents: []*geminiContent{
			{Parts: geminiParts, Role: "user"},
		},
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		fmt.Sprintf(generateContentURL, c.model),
		bytes.NewBuffer(payloadJson),
	)
	if err != nil {
		return "", err
	}

	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var geminiRes geminiResponse
	err = json.Unmarshal(resBody, &geminiRes)
	if err != nil {
		return "", err
	}

	if len(geminiRes.Candidates) == 0 || geminiRes.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}

	var out bytes.Buffer
	for _, part := range geminiRes.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	return out.String(), nil
}

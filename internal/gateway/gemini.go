package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// AspectRatios are the aspect ratios the image generation surface
// accepts.
var AspectRatios = []string{"1:1", "16:9", "9:16"}

// GeminiConfig holds configuration for the Gemini-backed client.
type GeminiConfig struct {
	APIKey      string
	ChatModel   string
	ImageModel  string
	Temperature float32
	Timeout     time.Duration
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:      apiKey,
		ChatModel:   "gemini-2.5-flash",
		ImageModel:  "imagen-4.0-generate-001",
		Temperature: 0.7,
		Timeout:     2 * time.Minute,
	}
}

// GeminiClient implements Client on top of the Google GenAI SDK. The
// same chat model serves both the text and vision paths; image
// generation goes through Imagen.
type GeminiClient struct {
	client *genai.Client
	cfg    GeminiConfig
	logger *zap.Logger
}

// NewGeminiClient creates a Gemini-backed gateway client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gemini-2.5-flash"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "imagen-4.0-generate-001"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{client: client, cfg: cfg, logger: logger}, nil
}

// historyContents maps prior turns to SDK contents. Unknown roles
// default to user, matching how the transport treats them.
func historyContents(history []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		var role genai.Role = genai.RoleUser
		if turn.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	return contents
}

// StreamChat implements Client. Fragments are pushed to the content
// channel as the SDK delivers them; both channels close on stream
// termination.
func (c *GeminiClient) StreamChat(ctx context.Context, prompt string, history []Turn) (<-chan string, <-chan error) {
	contentChan := make(chan string, 100)
	errorChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errorChan)

		// Auto-apply timeout if context has no deadline.
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
			defer cancel()
		}

		startTime := time.Now()
		c.logger.Debug("stream chat starting",
			zap.String("model", c.cfg.ChatModel),
			zap.Int("history_len", len(history)),
			zap.Int("prompt_len", len(prompt)))

		contents := append(historyContents(history), genai.NewContentFromText(prompt, genai.RoleUser))

		temp := c.cfg.Temperature
		config := &genai.GenerateContentConfig{
			Temperature: &temp,
		}

		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.cfg.ChatModel, contents, config) {
			if err != nil {
				c.logger.Error("stream chat failed",
					zap.Duration("elapsed", time.Since(startTime)),
					zap.Error(err))
				errorChan <- &Error{Op: "streamChat", Err: err}
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case contentChan <- text:
			case <-ctx.Done():
				errorChan <- &Error{Op: "streamChat", Err: ctx.Err()}
				return
			}
		}

		c.logger.Debug("stream chat completed", zap.Duration("elapsed", time.Since(startTime)))
	}()

	return contentChan, errorChan
}

// DescribeImage implements Client using a single generateContent call
// with an inline image part.
func (c *GeminiClient) DescribeImage(ctx context.Context, payload, mimeType, prompt string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", &Error{Op: "describeImage", Err: fmt.Errorf("invalid payload: %w", err)}
	}

	startTime := time.Now()
	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: raw}},
				{Text: prompt},
			},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.ChatModel, contents, nil)
	if err != nil {
		c.logger.Error("describe image failed", zap.Error(err))
		return "", &Error{Op: "describeImage", Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &Error{Op: "describeImage", Err: fmt.Errorf("empty response")}
	}

	c.logger.Debug("describe image completed",
		zap.Duration("elapsed", time.Since(startTime)),
		zap.Int("response_len", len(text)))
	return text, nil
}

// GenerateImage implements Client using Imagen and returns the result
// as a data URI.
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt, aspectRatio string) (string, error) {
	if !validAspectRatio(aspectRatio) {
		return "", &Error{Op: "generateImage", Err: fmt.Errorf("unsupported aspect ratio %q", aspectRatio)}
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	resp, err := c.client.Models.GenerateImages(ctx, c.cfg.ImageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    aspectRatio,
		OutputMIMEType: "image/jpeg",
	})
	if err != nil {
		c.logger.Error("generate image failed", zap.Error(err))
		return "", &Error{Op: "generateImage", Err: err}
	}

	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return "", &Error{Op: "generateImage", Err: fmt.Errorf("no image generated")}
	}

	c.logger.Debug("generate image completed", zap.Duration("elapsed", time.Since(startTime)))
	encoded := base64.StdEncoding.EncodeToString(resp.GeneratedImages[0].Image.ImageBytes)
	return "data:image/jpeg;base64," + encoded, nil
}

func validAspectRatio(ratio string) bool {
	for _, r := range AspectRatios {
		if r == ratio {
			return true
		}
	}
	return false
}

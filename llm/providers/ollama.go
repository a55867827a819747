package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/c360studio/specdrift/llm"
)

func init() {
	llm.RegisterProvider(&OllamaProvider{})
}

// OllamaProvider implements the Ollama chat API for local models.
type OllamaProvider struct{}

// Name returns "ollama".
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// BuildURL appends the chat path to the base URL.
func (p *OllamaProvider) BuildURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/api/chat"
}

// SetHeaders is a no-op. Local Ollama needs no auth.
func (p *OllamaProvider) SetHeaders(req *http.Request) {}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  struct {
		Temperature *float64 `json:"temperature,omitempty"`
		NumPredict  int      `json:"num_predict,omitempty"`
	} `json:"options"`
}

type ollamaResponse struct {
	Model   string      `json:"model"`
	Message llm.Message `json:"message"`
	Done    bool        `json:"done"`
	// DoneReason is set when generation finished.
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

// BuildRequestBody serializes the request with streaming disabled.
func (p *OllamaProvider) BuildRequestBody(model string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	req := ollamaRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	}
	req.Options.Temperature = temperature
	req.Options.NumPredict = maxTokens
	return json.Marshal(req)
}

// ParseResponse extracts the completion from an Ollama chat response.
func (p *OllamaProvider) ParseResponse(body []byte, model string) (*llm.Response, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, llm.NewTransientError(fmt.Errorf("decode ollama response: %w", err))
	}
	if resp.Error != "" {
		return nil, llm.NewFatalError(fmt.Errorf("ollama error: %s", resp.Error))
	}

	usedModel := resp.Model
	if usedModel == "" {
		usedModel = model
	}

	return &llm.Response{
		Content:      resp.Message.Content,
		Model:        usedModel,
		FinishReason: resp.DoneReason,
		Usage: llm.TokenUsage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}

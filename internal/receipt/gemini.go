package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const extractionPrompt = `You read photos of shop and restaurant receipts. Extract the receipt into JSON with exactly this structure and no other text:
{"transaction_id": "", "transaction_date": "YYYY-MM-DD", "customer_name": "",
 "items": [{"name": "", "quantity": 1, "unit_price": 0, "total": 0}],
 "fees": [{"type": "", "amount": 0}], "total_fees": 0,
 "discounts": [{"type": "", "amount": 0}], "total_discounts": 0,
 "subtotal": 0, "final_total": 0, "total_paid": 0, "billing_amount": 0}
Amounts are plain numbers without currency symbols or thousand separators. Discount amounts are positive.`

// GeminiExtractor reads receipts with a Gemini model.
type GeminiExtractor struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiExtractor creates a Gemini client for apiKey using the named model.
func NewGeminiExtractor(ctx context.Context, apiKey, modelName string) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0)

	slog.Info("Gemini receipt extractor initialized", "model", modelName)
	return &GeminiExtractor{client: client, model: model}, nil
}

// Extract implements Extractor.
func (g *GeminiExtractor) Extract(ctx context.Context, image Image) ([]byte, error) {
	resp, err := g.model.GenerateContent(ctx,
		genai.Text(extractionPrompt),
		&genai.Blob{MIMEType: image.MIMEType, Data: image.Data},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini recognition error: %w", err)
	}
	return responseJSON(resp)
}

// Close releases the Gemini client.
func (g *GeminiExtractor) Close() error {
	return g.client.Close()
}

// responseJSON pulls the JSON text out of the first candidate, dropping a
// markdown code fence if the model added one.
func responseJSON(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini returned no result")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, errors.New("gemini returned no text")
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return []byte(strings.TrimSpace(text)), nil
}

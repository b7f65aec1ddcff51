// Package oracle wraps the language model used to classify tickets against commits.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/danielolaszy/ticketpulse/internal/config"
	"github.com/danielolaszy/ticketpulse/internal/logging"
)

// ErrOracleUnavailable is returned when no oracle is configured or it
// produced no answer.
var ErrOracleUnavailable = errors.New("classification oracle unavailable")

const (
	systemPrompt = "You are an expert at correlating JIRA tickets with git commits. " +
		"Answer with JSON only, no prose and no markdown."
	temperature = 0.1
)

// Classifier turns a prompt into a raw model answer.
type Classifier interface {
	Classify(ctx context.Context, prompt, schemaHint string) (string, error)
}

// AzureClient is a Classifier backed by an Azure OpenAI chat deployment.
type AzureClient struct {
	client     *azopenai.Client
	deployment string
	timeout    time.Duration
}

// New returns the configured oracle, or ErrOracleUnavailable when the Azure
// endpoint, key or deployment is missing.
func New(cfg *config.Config) (*AzureClient, error) {
	if !cfg.Oracle.Configured() {
		logging.Warn("oracle not configured, classification will fall back to manual review",
			"endpoint", cfg.Oracle.Endpoint != "",
			"key", logging.MaskSensitive(cfg.Oracle.Key))
		return nil, ErrOracleUnavailable
	}
	return NewAzureClient(cfg.Oracle, cfg.Analysis.RequestTimeout, nil)
}

// NewAzureClient creates a client for one deployment. opts may be nil.
func NewAzureClient(cfg config.OracleConfig, timeout time.Duration, opts *azopenai.ClientOptions) (*AzureClient, error) {
	keyCredential := azcore.NewKeyCredential(cfg.Key)
	client, err := azopenai.NewClientWithKeyCredential(cfg.Endpoint, keyCredential, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure openai client: %w", err)
	}

	logging.Debug("oracle configured", "endpoint", cfg.Endpoint, "deployment", cfg.Deployment)

	return &AzureClient{
		client:     client,
		deployment: cfg.Deployment,
		timeout:    timeout,
	}, nil
}

// Classify sends the prompt as a single user turn. schemaHint describes the
// expected JSON shape and is appended to the system message.
func (c *AzureClient) Classify(ctx context.Context, prompt, schemaHint string) (string, error) {
	if c == nil || c.client == nil {
		return "", ErrOracleUnavailable
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	system := systemPrompt
	if schemaHint != "" {
		system += "\nThe answer must match this shape: " + schemaHint
	}

	messages := []azopenai.ChatRequestMessageClassification{
		&azopenai.ChatRequestSystemMessage{
			Content: azopenai.NewChatRequestSystemMessageContent(system),
		},
		&azopenai.ChatRequestUserMessage{
			Content: azopenai.NewChatRequestUserMessageContent(prompt),
		},
	}

	resp, err := c.client.GetChatCompletions(ctx, azopenai.ChatCompletionsOptions{
		DeploymentName: to.Ptr(c.deployment),
		Messages:       messages,
		N:              to.Ptr[int32](1),
		Temperature:    to.Ptr[float32](temperature),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("%w: no choices returned from chat completion", ErrOracleUnavailable)
	}

	answer := strings.TrimSpace(*resp.Choices[0].Message.Content)
	logging.Debug("oracle answered", "deployment", c.deployment, "chars", len(answer))
	return answer, nil
}

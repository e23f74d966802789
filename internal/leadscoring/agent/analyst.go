// Package agent provides the AI completion backend for lead scoring: an ADK agent
// over the Groq chat model, wrapped with rate limiting, timeouts and caching.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"leadscore_backend/platform/ai/groq"
	"leadscore_backend/platform/config"
)

const analystAppName = "lead-scoring-analyst"

// Analyst answers single-turn analysis prompts. Every call runs in a fresh session,
// so concurrent calls do not share history.
type Analyst struct {
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	appName        string
}

// NewAnalyst creates the analyst backed by Groq.
func NewAnalyst(cfg config.AIConfig) (*Analyst, error) {
	llm := groq.NewModel(groq.Config{
		APIKey:  cfg.GetGroqAPIKey(),
		BaseURL: cfg.GetGroqBaseURL(),
		Model:   cfg.GetGroqModel(),
	})
	return newAnalyst(llm)
}

func newAnalyst(llm model.LLM) (*Analyst, error) {
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "LeadScoringAnalyst",
		Model:       llm,
		Description: "Analyses Hawaii property listings for investment and off-market potential.",
		Instruction: getAnalystSystemPrompt(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lead scoring agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        analystAppName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lead scoring runner: %w", err)
	}

	return &Analyst{
		agent:          adkAgent,
		runner:         r,
		sessionService: sessionService,
		appName:        analystAppName,
	}, nil
}

// Complete runs prompt through the agent and returns the concatenated model text.
func (a *Analyst) Complete(ctx context.Context, prompt string) (string, error) {
	sessionID := uuid.New().String()
	userID := "lead-scoring-" + sessionID

	_, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("analyst: create session: %w", err)
	}
	defer func() {
		_ = a.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   a.appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{{
			Text: prompt,
		}},
	}

	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	var outputText strings.Builder
	for event, err := range a.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return "", fmt.Errorf("analyst: run failed: %w", err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			outputText.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(outputText.String())
	if text == "" {
		return "", fmt.Errorf("analyst: empty response")
	}
	return text, nil
}

func getAnalystSystemPrompt() string {
	return "You are an expert Hawaii real estate investment analyzer. You assess distressed and off-market " +
		"properties on Oahu for investors. Be concise and factual. When asked for JSON, reply with a single JSON " +
		"object and no other text. When asked for a percentage, state it as a number followed by %."
}

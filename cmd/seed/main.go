package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"askhuman/client"
)

// Submits a batch of sample questions against a running server so the human
// UI and agent polling have something to chew on.
func main() {
	c := client.New(client.WithAgentID("seeder"))

	questions := []client.QuestionRequest{
		{
			Prompt:         "Should error messages apologize to users, or stay strictly factual?",
			Type:           client.TypeText,
			MinResponses:   3,
			Audience:       []string{"product"},
			TimeoutSeconds: 7200,
		},
		{
			Prompt:       "Which button label is clearer for submitting a form?",
			Type:         client.TypeMultipleChoice,
			Options:      []string{"Submit", "Send", "Confirm", "Done"},
			MinResponses: 5,
			Audience:     []string{"design", "general"},
		},
		{
			Prompt:       "What tone should an automated onboarding email use?",
			Type:         client.TypeMultipleChoice,
			Options:      []string{"Formal", "Casual", "Friendly"},
			MinResponses: 5,
		},
		{
			Prompt:         "Describe one thing that annoys you about CAPTCHA challenges.",
			Type:           client.TypeText,
			MinResponses:   10,
			TimeoutSeconds: 86400,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, req := range questions {
		sub, err := c.SubmitQuestion(ctx, req)
		if err != nil {
			log.Error().Err(err).Str("prompt", req.Prompt).Msg("Failed to seed question")
			continue
		}
		log.Info().
			Str("questionId", sub.QuestionID).
			Str("pollUrl", sub.PollURL).
			Time("expiresAt", sub.ExpiresAt).
			Msg("Seeded question")
	}
}

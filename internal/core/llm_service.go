package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/yashfitness/backend/internal/fitness"
	"github.com/yashfitness/backend/internal/store"
)

const coachSystemInstruction = "You are 'YashFitness Coach', the assistant on the YashFitness website. " +
	"Only answer questions about fitness, training, nutrition and YashFitness membership plans; " +
	"politely decline anything else. When the user asks for their BMI, BMR, TDEE, calorie target " +
	"or macro split, use the matching calculation function instead of doing the arithmetic yourself, " +
	"and explain the returned numbers in plain language. Keep answers short and encouraging."

// fitnessTools declares the five local calculations to the model. The
// parameter names must line up with what dispatchTool unpacks.
var fitnessTools = []*genai.Tool{{
	FunctionDeclarations: []*genai.FunctionDeclaration{
		{
			Name:        "calculate_bmi",
			Description: "Calculates the user's Body Mass Index (BMI) from height and weight.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"heightCm": {Type: genai.TypeNumber, Description: "Height in centimeters"},
					"weightKg": {Type: genai.TypeNumber, Description: "Weight in kilograms"},
				},
				Required: []string{"heightCm", "weightKg"},
			},
		},
		{
			Name:        "calculate_bmr",
			Description: "Calculates the user's Basal Metabolic Rate (BMR) using the Mifflin-St Jeor equation.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"heightCm": {Type: genai.TypeNumber, Description: "Height in centimeters"},
					"weightKg": {Type: genai.TypeNumber, Description: "Weight in kilograms"},
					"age":      {Type: genai.TypeNumber, Description: "Age in years"},
					"gender":   {Type: genai.TypeString, Description: "male, female or other"},
				},
				Required: []string{"heightCm", "weightKg", "age", "gender"},
			},
		},
		{
			Name:        "calculate_tdee",
			Description: "Calculates Total Daily Energy Expenditure (TDEE) from a BMR and an activity level.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"bmr":            {Type: genai.TypeNumber, Description: "Basal metabolic rate in kcal"},
					"activity_level": {Type: genai.TypeString, Description: "sedentary, light, moderate, high or extreme"},
				},
				Required: []string{"bmr", "activity_level"},
			},
		},
		{
			Name:        "get_calorie_target",
			Description: "Adjusts a TDEE into a daily calorie target for the user's goal.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"tdee": {Type: genai.TypeNumber, Description: "Total daily energy expenditure in kcal"},
					"goal": {Type: genai.TypeString, Description: "lose_weight, gain_muscle or maintain"},
				},
				Required: []string{"tdee", "goal"},
			},
		},
		{
			Name:        "get_macro_split",
			Description: "Splits a daily calorie budget into protein, carb and fat grams for the user's goal.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"calories": {Type: genai.TypeNumber, Description: "Daily calorie budget in kcal"},
					"goal":     {Type: genai.TypeString, Description: "lose_weight, gain_muscle or maintain"},
				},
				Required: []string{"calories", "goal"},
			},
		},
	},
}}

// LLMService wraps the Gemini client behind the ModelClient interface so the
// orchestrator can be tested against a fake.
type LLMService struct {
	client    *genai.Client
	modelName string
}

func NewLLMService(ctx context.Context, apiKey, modelName string) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client, modelName: modelName}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing GenAI client")
		}
	}
}

func (s *LLMService) StartChat(history []store.ChatMessage) ModelChat {
	model := s.client.GenerativeModel(s.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(coachSystemInstruction)},
	}
	model.Tools = fitnessTools

	session := model.StartChat()
	for _, m := range history {
		session.History = append(session.History, &genai.Content{
			Role:  m.Role,
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}
	return &geminiChat{session: session}
}

type geminiChat struct {
	session *genai.ChatSession
}

func (c *geminiChat) Send(ctx context.Context, text string) (*ModelReply, error) {
	resp, err := c.session.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini SendMessage failed: %w", err)
	}
	return replyFrom(resp)
}

func (c *geminiChat) SendToolResult(ctx context.Context, name string, result fitness.Result) (*ModelReply, error) {
	resp, err := c.session.SendMessage(ctx, genai.FunctionResponse{
		Name:     name,
		Response: map[string]any(result),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini function response failed: %w", err)
	}
	return replyFrom(resp)
}

// replyFrom flattens a model response into final text plus, when present, the
// first requested function call. Additional calls in the same reply are
// dropped; one tool invocation is honored per turn.
func replyFrom(resp *genai.GenerateContentResponse) (*ModelReply, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned an empty response")
	}

	reply := &ModelReply{}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			if reply.Call == nil {
				reply.Call = &ToolCall{Name: p.Name, Args: p.Args}
			}
		default:
			log.Debug().Str("type", fmt.Sprintf("%T", part)).Msg("ignoring non-text model response part")
		}
	}
	reply.Text = text.String()
	return reply, nil
}

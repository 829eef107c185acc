package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/vohyz/cocFightAgent/internal/constants"
	"github.com/vohyz/cocFightAgent/internal/dice"
	"github.com/vohyz/cocFightAgent/internal/logging"
)

// maxToolRounds bounds the roll_dice tool-call loop within one completion.
const maxToolRounds = 6

type openAICompleter struct {
	apiKey string
	model  string
	client *http.Client
}

func newOpenAICompleter(apiKey string) *openAICompleter {
	model := os.Getenv(constants.EnvOpenAIModel)
	if model == "" {
		model = constants.OpenAIChatModelDefault
	}
	return &openAICompleter{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *openAICompleter) Name() string { return "openai:" + c.model }

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

var rollDiceToolDef = map[string]interface{}{
	"type": "function",
	"function": map[string]interface{}{
		"name":        "roll_dice",
		"description": "Roll dice for any Call of Cthulhu check: hit rolls, dodge, damage, sanity. Standard notation such as 1d20, 2d6+3, 1d100-5.",
		"parameters": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"notation": map[string]interface{}{
					"type":        "string",
					"description": "dice notation, e.g. '1d100' for a percentile check or '2d6+3' for damage",
				},
			},
			"required": []string{"notation"},
		},
	},
}

// Complete runs one chat completion. With tools enabled it serves roll_dice
// tool calls from the local dice engine until the model produces a final
// text answer or the tool round budget runs out.
func (c *openAICompleter) Complete(ctx context.Context, system, user string, withTools bool) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}

	for round := 0; ; round++ {
		msg, err := c.call(ctx, messages, withTools && round < maxToolRounds)
		if err != nil {
			return "", err
		}
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}
		messages = append(messages, *msg)
		for _, tc := range msg.ToolCalls {
			messages = append(messages, chatMessage{
				Role:       "tool",
				ToolCallID: tc.ID,
				Content:    runRollDiceTool(tc.Function.Arguments),
			})
		}
	}
}

func (c *openAICompleter) call(ctx context.Context, messages []chatMessage, withTools bool) (*chatMessage, error) {
	payload := map[string]interface{}{
		"model":       c.model,
		"messages":    messages,
		"temperature": 0.1,
	}
	if withTools {
		payload["tools"] = []interface{}{rollDiceToolDef}
	}

	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, constants.OpenAIBaseURL+constants.OpenAIChatCompletionsPath, bytes.NewBuffer(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+c.apiKey)
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai error: %d %s", resp.StatusCode, string(body))
	}

	var out struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}
	return &out.Choices[0].Message, nil
}

// runRollDiceTool executes one roll_dice tool call and returns the JSON the
// model receives. Bad notation is reported back to the model as an error
// string so it can correct itself.
func runRollDiceTool(arguments string) string {
	var args struct {
		Notation string `json:"notation"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return fmt.Sprintf(`{"error": %q}`, "malformed roll_dice arguments")
	}
	res, err := dice.Roll(args.Notation)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	logging.Debug("roll_dice tool call", logging.Fields{constants.LogFieldNotation: args.Notation, "final_result": res.FinalResult})
	b, _ := json.Marshal(res)
	return string(b)
}

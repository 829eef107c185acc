package constants

// Centralized constants for env keys, routes, OpenAI integration and
// structured log field names.
const (
	// Environment variable keys
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvOpenAIModel  = "OPENAI_MODEL"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGeminiModel  = "GEMINI_MODEL"
	EnvConfigPath   = "COCFIGHT_CONFIG"
	EnvDBPath       = "COCFIGHT_DB"

	// OpenAI integration
	OpenAIBaseURL             = "https://api.openai.com"
	OpenAIChatCompletionsPath = "/v1/chat/completions"
	OpenAIChatModelDefault    = "gpt-4o-mini"

	// Gemini integration
	GeminiModelDefault = "gemini-2.0-flash"

	// HTTP headers
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	ContentTypeJSON     = "application/json"
	BearerPrefix        = "Bearer "

	// API routes
	RouteAPIPrefix      = "/api"
	RouteEncounters     = "/encounters"
	RouteEncounterByID  = "/encounters/:sessionId"
	RouteEncounterInput = "/encounters/:sessionId/input"
	RouteDiceRoll       = "/dice/roll"
	RouteVersion        = "/version"
	RouteHealth         = "/healthz"

	// JSON keys used in API responses
	JSONKeyError = "error"

	// Structured log field names
	LogFieldSessionID = "session_id"
	LogFieldScenario  = "scenario"
	LogFieldRound     = "round"
	LogFieldStep      = "step"
	LogFieldActor     = "actor"
	LogFieldIntent    = "intent"
	LogFieldAddr      = "addr"
	LogFieldKey       = "key"
	LogFieldSource    = "source"
	LogFieldNotation  = "notation"
	LogFieldBackend   = "backend"

	// API error message strings
	ErrMsgInvalidSessionID   = "invalid session id"
	ErrMsgEncounterNotFound  = "encounter not found"
	ErrMsgEncounterOver      = "encounter is no longer accepting input"
	ErrMsgInvalidRequest     = "invalid request payload"
	ErrMsgPlayerTextRequired = "player text is required"
	ErrMsgInvalidNotation    = "invalid dice notation"
	ErrMsgInternal           = "internal server error"
)

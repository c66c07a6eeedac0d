package openai

// Completion models.
const (
	ModelTextDavinci003 = "text-davinci-003"
	ModelTextDavinci002 = "text-davinci-002"
	ModelCodeDavinci002 = "code-davinci-002"
)

// Chat models.
const (
	ModelGPT35Turbo     = "gpt-3.5-turbo"
	ModelGPT35Turbo0301 = "gpt-3.5-turbo-0301"
)

// Endpoint paths relative to the base URL.
const (
	completionsPath     = "/completions"
	chatCompletionsPath = "/chat/completions"
)

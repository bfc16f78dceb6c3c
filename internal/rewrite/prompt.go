package rewrite

// SystemPrompt frames the model as a speech script writer.
const SystemPrompt = "You are a text-to-speech assistant. Convert the given text into natural, conversational speech format that sounds good when read aloud."

const userPromptPrefix = "Convert this text into natural speech format, maintaining all important information but making it more conversational and suitable for text-to-speech: "

// BuildUserPrompt wraps a chunk in the rewrite instruction.
func BuildUserPrompt(chunk string) string {
	return userPromptPrefix + chunk
}

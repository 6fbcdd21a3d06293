package adapters

// builtins is the canonical registration order. Lookup is first match wins,
// so the Claude and Cohere Command InvokeModel entries are shadowed by the
// Converse entries above them; they stay reachable through ResolveAll and
// their constructors.
var builtins = []struct {
	pattern string
	ctor    Constructor
}{
	{`^bedrock.ai21.jamba*`, NewBedrockChatAdapter},
	{`^bedrock.ai21.j2*`, NewBedrockChatNoStreamingNoSystemPromptAdapter},
	{`^bedrock\.cohere\.command-(text|light-text).*`, NewBedrockChatNoSystemPromptAdapter},
	{`^bedrock\.cohere\.command-r.*`, NewBedrockChatAdapter},
	{`^bedrock.anthropic.claude*`, NewBedrockChatAdapter},
	{`^bedrock.meta.llama*`, NewBedrockChatAdapter},
	{`^bedrock.mistral.mistral-large*`, NewBedrockChatAdapter},
	{`^bedrock.mistral.mistral-small*`, NewBedrockChatAdapter},
	{`^bedrock.mistral.mistral-7b-*`, NewBedrockChatNoSystemPromptAdapter},
	{`^bedrock.mistral.mixtral-*`, NewBedrockChatNoSystemPromptAdapter},
	{`^bedrock.amazon.titan-t*`, NewBedrockChatNoSystemPromptAdapter},

	// Shadowed.
	{`^bedrock.anthropic.claude*`, NewBedrockClaudeAdapter},
	{`^bedrock\.cohere\.command-(text|light-text).*`, NewBedrockCohereCommandAdapter},

	{`(?i)sagemaker\.mistralai-Mistral*`, NewSageMakerMistralInstructAdapter},
	{`(?i)sagemaker\.mistralai/Mistral*`, NewSageMakerMistralInstructAdapter},
	{`(?i)sagemaker\.meta-LLama2-[\w-]+-chat`, NewSageMakerLlama2ChatAdapter},
	{`(?i)sagemaker\.meta-LLama3-[\w-]+-instruct`, NewSageMakerLlama3InstructAdapter},
}

package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error. Known names fall back to the
	// embedded default when no override exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptSystem instructs the model to reply with the markdown or
	// vega-lite JSON contract. It has no placeholders.
	PromptSystem = "system"

	// PromptUser wraps the question and page data.
	// Placeholders: {question} and {context}, each substituted once.
	PromptUser = "user"

	// PromptSuggestionsSystem asks for exactly three follow-up questions
	// as a JSON array. It has no placeholders.
	PromptSuggestionsSystem = "suggestions_system"

	// PromptSuggestionsUser carries the page data and recent conversation.
	// Placeholders: {conversation_intro}, {context} and {conversation}.
	PromptSuggestionsUser = "suggestions_user"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses its built-in defaults.
	SetPromptStore(store PromptStore)
}

package driven

import "github.com/msantosh308/ai-chrome-assistant/internal/core/domain"

// VendorAdapter translates between the vendor-neutral completion request
// and one vendor's wire protocol. Adapters are pure: they never perform I/O.
//
// Implementations include:
//   - OpenAI chat completions (also LiteLLM proxies)
//   - Anthropic messages
//   - Google Gemini generateContent
//   - Custom endpoints speaking any of the above
type VendorAdapter interface {
	// Vendor returns the identifier this adapter serves.
	Vendor() domain.Vendor

	// BuildRequest produces the URL, headers and body for one call.
	BuildRequest(settings domain.LLMSettings, req domain.CompletionRequest) (*domain.WireRequest, error)

	// ParseResponse extracts the assistant text from a 2xx response body.
	// A body without the expected text path returns an *domain.APIError.
	ParseResponse(body []byte) (string, error)
}

// VendorRegistry resolves adapters by vendor identifier.
type VendorRegistry interface {
	// Adapter returns the adapter for v. Unknown vendors resolve to the
	// custom adapter.
	Adapter(v domain.Vendor) VendorAdapter
}

// Package domain defines the core business entities for pagechat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DOMNode / PageSnapshot: a captured page tree handed to the extractor
//   - SemanticDocument / ContentNode: the bounded page description sent to the LLM
//   - ChatMessage / History: page-keyed conversation state
//   - NormalizedResult: the markdown-or-chart reply contract
//   - AppSettings: the configuration surface
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

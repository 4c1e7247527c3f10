// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VendorAdapter / VendorRegistry: LLM wire protocols
//   - Transport: sends vendor requests
//   - ConversationStore: per-page chat history
//   - SnapshotSource: captures pages as DOM snapshots
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ChartSurface: chart execution context. Without it, charts are returned
//     as specs and never drawn.
//   - PageDigester: markdown page digests.
//   - PromptStore: editable prompts. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven

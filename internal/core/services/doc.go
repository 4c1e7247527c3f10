// Package services implements the driving port interfaces.
// Services hold the chat pipeline: settings resolution, the LLM gateway,
// conversation persistence with optimistic retries and chart rendering.
// They reach the outside world only through driven ports.
package services

// Package generator is an HTTP client for the prompt-completion backend.
//
// The backend exposes two endpoints:
//
//	POST /template  {"prompt": "..."}            -> {"prompts": [...], "uiPrompts": [...]}
//	POST /chat      {"messages": [{role, content}]} -> {"response": "..."}
//
// Bootstrap chains them the way a new project starts: the template's first UI
// prompt is parsed immediately, then the chat response is parsed after it.
package generator

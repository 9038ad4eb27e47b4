// Package dashscope implements generation.Backend against the DashScope
// text and multimodal generation endpoints.
//
// Both call shapes share one JSON envelope:
//
//	{"model": ..., "input": {"messages": [...]}, "parameters": {"temperature": ..., "max_tokens": ...}}
//
// Text calls send a system and a user message with string content. Multimodal
// calls send a user message whose content is a list of {"text"} and {"image"}
// items, where the image is the document URL, against the vision model.
package dashscope

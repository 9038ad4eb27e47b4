// Package domain contains the core entities of the document summarizer:
// analysis requests, the lifecycle record of an analysis task, and the
// intermediate results flowing between extraction and summarization. It is
// independent of any specific infrastructure or delivery mechanism.
package domain

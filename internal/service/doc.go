// Package service contains the application-specific use cases and business
// logic. It orchestrates the extraction cascade, the summarization client and
// the task registry to fulfill the document analysis features.
//
// Key components:
//
// 1. AnalysisService:
//   - StartAnalysis registers a task and hands it to the background runner
//   - CheckResult reads the current state of a task
//   - ProcessAsyncDocument runs one analysis and records its outcome
//   - ProcessQuickSummary runs the same pipeline synchronously
//
// 2. Dependency Management:
//   - Services receive dependencies through constructor injection
//   - Dependencies are expressed as small interfaces defined here
//
// 3. Error Handling:
//   - Problems with the document itself become a Completed task with an
//     explanatory summary
//   - Only request-shape violations and unexpected failures surface as errors
package service

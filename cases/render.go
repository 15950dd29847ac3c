package cases

import "fmt"

// Text renderings shared by the scheduler workers and the synchronous
// fallback path, so both produce identical output for a case.

// DialogueText wraps a case's dialogue with its labeled header.
func DialogueText(name, dialogue string) string {
	return fmt.Sprintf("=== Dialogue for %s ===\n\n%s", name, dialogue)
}

// ReasoningText wraps a case's clinical reasoning with its labeled header.
func ReasoningText(name, reasoning string) string {
	return fmt.Sprintf("=== Clinical reasoning for %s ===\n\n%s", name, reasoning)
}

// EHRText wraps the transcription and the pre-authored EHR for a case.
func EHRText(name, transcription, ehr string) string {
	return fmt.Sprintf("=== Health record for %s ===\n\n%s\n\n=== Generated EHR ===\n\n%s", name, transcription, ehr)
}

// ConclusionText wraps a case's diagnostic conclusion with its labeled header.
func ConclusionText(name, conclusion string) string {
	return fmt.Sprintf("=== Diagnostic conclusion for %s ===\n\n%s", name, conclusion)
}

// Package cases provides the patient case dataset consumed by the
// background scheduler and the clinic service.
//
// A case is a fixed dataset record keyed by name, with pre-authored text
// fields (dialogue, EHR, reasoning, conclusion). The dataset is read once
// at startup from an Excel workbook and never mutated afterwards. A load
// failure is non-fatal: callers substitute the Unavailable loader, which
// reports not-found for every query.
//
// Infer maps free text (an audio file reference, a transcription blob)
// back to a case by substring match against the known case names.
//
// Index adds Bleve-backed keyword search over all case text fields.
package cases

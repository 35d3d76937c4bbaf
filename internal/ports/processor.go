// Package ports defines the interfaces between the processing core and its
// adapters, following the ports and adapters layout.
//
// Processors and streams are the two polymorphic families; reporters,
// observers and readers are the edges that carry data in and results out.
package ports

// DataProcessor validates, processes and formats a single datum.
//
// Implementations:
//   - NumericProcessor: slices of numbers (count, sum, average)
//   - TextProcessor: strings (characters, words)
//   - LogProcessor: log lines tagged with a level marker
//
// Contract:
//   - Validate MUST NOT panic for any input; it logs a diagnostic and
//     returns false on a shape mismatch
//   - Process assumes Validate passed; for inputs it cannot handle it
//     returns an error instead of panicking
//   - FormatOutput post-processes a Process result; most implementations
//     return it unchanged
type DataProcessor interface {
	Name() string
	Validate(data any) bool
	Process(data any) (string, error)
	FormatOutput(result string) string
}

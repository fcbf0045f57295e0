// Package preflight provides system validation and pre-flight checks
// to ensure vectorlited can run successfully before starting operations.
//
// The package validates:
//   - Disk space availability (minimum 100MB)
//   - Memory availability (minimum 1GB, compared against a fixed 4GB
//     estimate; system memory is not measured)
//   - Write permissions in the data directory
//   - File descriptor limits (minimum 1024)
//   - Embedding provider reachability
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, "/path/to/data-dir")
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight

// Package logging provides file-based structured logging with rotation for
// vectorlited. When --debug is set, comprehensive logs are written to
// ~/.vectorlite/logs/ for troubleshooting; otherwise logging stays minimal
// and goes to stderr only.
package logging

// Package buildinfo holds values stamped at link time, e.g.
//
//	go build -ldflags "-X github.com/dmitrijs2005/weelo-captain/internal/buildinfo.BaseURL=https://api.weelo.in/api/v1 \
//	    -X github.com/dmitrijs2005/weelo-captain/internal/buildinfo.Environment=production"
//
// The base URL and certificate pinning switch are chosen per build, not per run.
package buildinfo

import (
	"fmt"
	"io"
)

var (
	Version     = "N/A"
	Date        = "N/A"
	Commit      = "N/A"
	Environment = "development"
	BaseURL     = "http://127.0.0.1:8080/api/v1"

	// CertificatePinning is "true" to enable public-key pinning.
	CertificatePinning = "false"
)

// PinningEnabled reports whether this build pins the backend certificate.
func PinningEnabled() bool {
	return CertificatePinning == "true"
}

// PrintBuildData writes version metadata to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", Date)
	fmt.Fprintf(w, "Build commit: %s\n", Commit)
	fmt.Fprintf(w, "Environment: %s\n", Environment)
}

// ABOUTME: Build version information
// ABOUTME: Overridden at link time with -ldflags "-X .../version.Version=..."
package version

var (
	// Version is the release version
	Version = "dev"

	// Product names the software in logs and health reports
	Product = "filterstream"

	// Manufacturer identifies the publisher
	Manufacturer = "Resonate Protocol"
)

// String returns "product version"
func String() string {
	return Product + " " + Version
}

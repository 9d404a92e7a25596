package version

// Version is stamped at build time, e.g.
// go build -ldflags "-X github.com/terftw/doc-management/pkg/version.Version=1.2.0" ./cmd/api
var Version = "dev"

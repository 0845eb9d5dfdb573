package build

// Version is set at link time with -ldflags "-X github.com/storacha/sizetracker/internal/build.Version=...".
var Version = "v0.0.0-dev"

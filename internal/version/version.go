package version

// Version is the semantic version of this build. Overridable at link time
// via -ldflags "-X .../internal/version.Version=...".
var Version = "0.4.0"

package config

// Version is the fundledger binary version.
// Set at build time via: -ldflags "-X github.com/reliefline/fundledger/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"

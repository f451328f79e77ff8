package common

// Version is overridden at build time with -ldflags "-X ...common.Version=<tag>".
var Version = "dev"

// PackageName is used as the Prometheus namespace for all exported metrics.
const PackageName = "tee_contact_attestor"

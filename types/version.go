package types

// Version is the canonical chocoflow core version. CLI, config, and
// package-info record schemas share this version per the lockstep
// versioning policy carried over from the teacher project.
const Version = "0.1.0"

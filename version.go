package forge

import _ "embed"

// Version is the release of the forge module, read from the VERSION file.
//
//go:embed VERSION
var Version string

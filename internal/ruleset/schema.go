package ruleset

import _ "embed"

//go:embed schema.cue
var cueSchema string

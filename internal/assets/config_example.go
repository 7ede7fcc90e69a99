package assets

import _ "embed"

// ConfigExample holds the embedded config.example.json.
//
//go:embed config.example.json
var ConfigExample []byte

package web

import _ "embed"

// Index is the chat page served at GET /.
//
//go:embed index.html
var Index []byte

package web

import _ "embed"

//go:embed index.html
var FormPage []byte

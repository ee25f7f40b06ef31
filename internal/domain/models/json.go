// internal/domain/models/json.go
package models

import (
	jsoniter "github.com/json-iterator/go"
)

// jsonCodec is used by custom unmarshalers in this package. Matches the
// codec the HTTP layer uses (system/httpjson).
var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

//go:build !sonic

package remote

import "encoding/json"

var jsonMarshal = json.Marshal
var jsonUnmarshal = json.Unmarshal

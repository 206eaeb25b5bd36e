package apiclient

import (
	"fmt"
	"net/url"
	"strings"
)

// Param is a single query or form field.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered list of fields. Unlike url.Values it keeps the order
// the caller supplied.
type Params []Param

// Add appends a field.
func (p Params) Add(key string, value any) Params {
	return append(p, Param{Key: key, Value: value})
}

// Encode renders p as "k=v&k=v", values stringified with fmt.Sprint.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, param := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(param.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fmt.Sprint(param.Value)))
	}
	return b.String()
}

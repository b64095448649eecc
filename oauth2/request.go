package oauth2

import "net/textproto"

// Request is a read-only view of an incoming token request.
// Lookups return false when the header or parameter is not present at all,
// which is distinct from a present but empty value.
type Request interface {
	Header(name string) (string, bool)
	Parameter(name string) (string, bool)
}

// Values is a map backed Request. Header names are canonicalised the same way
// net/http does, parameter names are case-sensitive.
type Values struct {
	Headers map[string]string
	Params  map[string]string
}

var _ Request = Values{}

// NewValues builds a Request from parameters only.
func NewValues(params map[string]string) Values {
	return Values{Params: params, Headers: map[string]string{}}
}

// WithHeader returns a copy of v with the header set.
func (v Values) WithHeader(name, value string) Values {
	headers := make(map[string]string, len(v.Headers)+1)
	for k, val := range v.Headers {
		headers[k] = val
	}
	headers[textproto.CanonicalMIMEHeaderKey(name)] = value
	return Values{Headers: headers, Params: v.Params}
}

func (v Values) Header(name string) (string, bool) {
	for k, val := range v.Headers {
		if textproto.CanonicalMIMEHeaderKey(k) == textproto.CanonicalMIMEHeaderKey(name) {
			return val, true
		}
	}
	return "", false
}

func (v Values) Parameter(name string) (string, bool) {
	val, ok := v.Params[name]
	return val, ok
}

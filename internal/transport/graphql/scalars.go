package graphql

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"net/url"
	"time"
)

// DateTime is an RFC 3339 timestamp.
type DateTime struct {
	time.Time
}

func (DateTime) ImplementsGraphQLType(name string) bool { return name == "DateTime" }

func (t *DateTime) UnmarshalGraphQL(input any) error {
	s, ok := input.(string)
	if !ok {
		return fmt.Errorf("DateTime: wrong type %T", input)
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("DateTime: %w", err)
	}
	t.Time = parsed
	return nil
}

func (t DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

type EmailAddress string

func (EmailAddress) ImplementsGraphQLType(name string) bool { return name == "EmailAddress" }

func (e *EmailAddress) UnmarshalGraphQL(input any) error {
	s, ok := input.(string)
	if !ok {
		return fmt.Errorf("EmailAddress: wrong type %T", input)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return fmt.Errorf("EmailAddress: invalid address %q", s)
	}
	*e = EmailAddress(s)
	return nil
}

func (e EmailAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(e))
}

// URL accepts absolute URLs on input. Data URIs are allowed since QR codes
// are served through this type.
type URL string

func (URL) ImplementsGraphQLType(name string) bool { return name == "URL" }

func (u *URL) UnmarshalGraphQL(input any) error {
	s, ok := input.(string)
	if !ok {
		return fmt.Errorf("URL: wrong type %T", input)
	}
	parsed, err := url.Parse(s)
	if err != nil || !parsed.IsAbs() {
		return fmt.Errorf("URL: invalid url %q", s)
	}
	*u = URL(s)
	return nil
}

func (u URL) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(u))
}

package auth

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Constructor builds an adapter from the positional and keyword
// arguments of a textual adapter specification. All values are strings.
type Constructor func(ctx context.Context, args []string, kwargs map[string]string) (Adapter, error)

// adapterConstructors is the closed registry of adapter variants. New
// variants are added here explicitly; there is no reflection.
var adapterConstructors = map[string]Constructor{
	"NoAuth":               makeNoAuth,
	"DummyOAuth":           makeDummyOAuth,
	"UsernamePassword":     makeUsernamePassword,
	"ServiceAccount":       makeServiceAccount,
	"ClientIdClientSecret": makeClientIDClientSecret,
	"FlightPassport":       makeFlightPassport,
	"SignedRequest":        makeSignedRequest,
}

var specPattern = regexp.MustCompile(`^\s*([^\s(]+)\s*\(\s*([^)]*)\s*\)\s*$`)

// Make builds an adapter from a specification of the form
//
//	AdapterName(value1, key2=value2, ...)
//
// where values carry no quote delimiters. The adapter name must be
// registered; unknown names and malformed specifications fail.
func Make(ctx context.Context, spec string) (Adapter, error) {
	m := specPattern.FindStringSubmatch(spec)
	if m == nil {
		return nil, ErrBadAdapterSpec
	}

	constructor, ok := adapterConstructors[m[1]]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, m[1])
	}

	var args []string
	kwargs := map[string]string{}

	if strings.TrimSpace(m[2]) != "" {
		for _, part := range strings.Split(m[2], ",") {
			part = strings.TrimSpace(part)

			key, value, found := strings.Cut(part, "=")
			if !found {
				args = append(args, part)
				continue
			}

			if strings.Contains(value, "=") {
				return nil, fmt.Errorf("%w: parameter with more than one `=` character", ErrBadAdapterSpec)
			}

			kwargs[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	return constructor(ctx, args, kwargs)
}

// bindArgs resolves positional and keyword arguments against a declared
// parameter order, mirroring keyword-or-positional call semantics.
func bindArgs(params []string, args []string, kwargs map[string]string) (map[string]string, error) {
	if len(args) > len(params) {
		return nil, fmt.Errorf("%w: too many positional parameters", ErrBadAdapterSpec)
	}

	bound := make(map[string]string, len(params))
	for i, value := range args {
		bound[params[i]] = value
	}

	for key, value := range kwargs {
		if !slices.Contains(params, key) {
			return nil, fmt.Errorf("%w: unknown parameter %q", ErrBadAdapterSpec, key)
		}

		if _, dup := bound[key]; dup {
			return nil, fmt.Errorf("%w: parameter %q given twice", ErrBadAdapterSpec, key)
		}

		bound[key] = value
	}

	return bound, nil
}

// requireParams checks that the named parameters were bound to non-empty
// values.
func requireParams(bound map[string]string, names ...string) error {
	for _, name := range names {
		if bound[name] == "" {
			return fmt.Errorf("%w: missing parameter %q", ErrBadAdapterSpec, name)
		}
	}

	return nil
}

func makeNoAuth(_ context.Context, args []string, kwargs map[string]string) (Adapter, error) {
	bound, err := bindArgs([]string{"sub"}, args, kwargs)
	if err != nil {
		return nil, err
	}

	return NewNoAuth(bound["sub"])
}

func makeDummyOAuth(_ context.Context, args []string, kwargs map[string]string) (Adapter, error) {
	bound, err := bindArgs([]string{"token_endpoint", "sub"}, args, kwargs)
	if err != nil {
		return nil, err
	}

	if err := requireParams(bound, "token_endpoint", "sub"); err != nil {
		return nil, err
	}

	return NewDummyOAuth(bound["token_endpoint"], bound["sub"]), nil
}

func makeUsernamePassword(_ context.Context, args []string, kwargs map[string]string) (Adapter, error) {
	bound, err := bindArgs([]string{"token_endpoint", "username", "password", "client_id"}, args, kwargs)
	if err != nil {
		return nil, err
	}

	if err := requireParams(bound, "token_endpoint", "username", "password", "client_id"); err != nil {
		return nil, err
	}

	return NewUsernamePassword(bound["token_endpoint"], bound["username"], bound["password"], bound["client_id"]), nil
}

func makeServiceAccount(ctx context.Context, args []string, kwargs map[string]string) (Adapter, error) {
	bound, err := bindArgs([]string{"token_endpoint", "service_account_json"}, args, kwargs)
	if err != nil {
		return nil, err
	}

	if err := requireParams(bound, "token_endpoint", "service_account_json"); err != nil {
		return nil, err
	}

	return NewServiceAccount(ctx, bound["token_endpoint"], bound["service_account_json"])
}

func makeClientIDClientSecret(_ context.Context, args []string, kwargs map[string]string) (Adapter, error) {
	bound, err := bindArgs([]string{"token_endpoint", "client_id", "client_secret", "send_request_as_data"}, args, kwargs)
	if err != nil {
		return nil, err
	}

	if err := requireParams(bound, "token_endpoint", "client_id", "client_secret"); err != nil {
		return nil, err
	}

	asForm := strings.EqualFold(bound["send_request_as_data"], "true")

	return NewClientIDClientSecret(bound["token_endpoint"], bound["client_id"], bound["client_secret"], asForm), nil
}

func makeFlightPassport(_ context.Context, args []string, kwargs map[string]string) (Adapter, error) {
	bound, err := bindArgs([]string{"token_endpoint", "client_id", "client_secret", "send_request_as_data"}, args, kwargs)
	if err != nil {
		return nil, err
	}

	if err := requireParams(bound, "token_endpoint", "client_id", "client_secret"); err != nil {
		return nil, err
	}

	return NewFlightPassport(bound["token_endpoint"], bound["client_id"], bound["client_secret"], bound["send_request_as_data"]), nil
}

func makeSignedRequest(ctx context.Context, args []string, kwargs map[string]string) (Adapter, error) {
	bound, err := bindArgs([]string{"token_endpoint", "client_id", "key_path", "cert_url", "key_id", "signature_style"}, args, kwargs)
	if err != nil {
		return nil, err
	}

	if err := requireParams(bound, "token_endpoint", "client_id", "key_path", "cert_url"); err != nil {
		return nil, err
	}

	return NewSignedRequest(ctx, SignedRequestConfig{
		TokenEndpoint: bound["token_endpoint"],
		ClientID:      bound["client_id"],
		KeyPath:       bound["key_path"],
		CertURL:       bound["cert_url"],
		KeyID:         bound["key_id"],
		Style:         bound["signature_style"],
	})
}

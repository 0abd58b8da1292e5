package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/geotrack/geotrack/geolib"
)

// DefaultPublicIPServices are plain-text services which respond with
// an address of the caller. They are asked in order.
var DefaultPublicIPServices = []string{
	"https://api.ipify.org",
	"https://ident.me",
	"https://checkip.amazonaws.com",
	"http://ifconfig.me/ip",
}

// ErrPublicIPUnknown is returned if no service has responded with a
// valid IPv4 address.
var ErrPublicIPUnknown = errors.New("cannot detect public ip address")

const publicIPMaxResponseSize = 64

type publicIPResolver struct {
	client   geolib.HTTPClient
	services []string
}

func (p publicIPResolver) PublicIP(ctx context.Context) (geolib.Query, error) {
	errs := []error{ErrPublicIPUnknown}

	for _, service := range p.services {
		query, err := p.ask(ctx, service)
		if err == nil {
			return query, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", service, err))

		if ctx.Err() != nil {
			break
		}
	}

	return "", errors.Join(errs...)
}

func (p publicIPResolver) ask(ctx context.Context, service string) (geolib.Query, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, service, nil)
	if err != nil {
		return "", fmt.Errorf("cannot build a request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cannot send a request: %w", err)
	}

	defer func() {
		io.Copy(io.Discard, resp.Body) // nolint: errcheck
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, publicIPMaxResponseSize))
	if err != nil {
		return "", fmt.Errorf("cannot read response body: %w", err)
	}

	return geolib.ParseQuery(string(body))
}

// NewPublicIPResolver returns a resolver which asks given plain-text
// services. If services are empty, DefaultPublicIPServices are used.
func NewPublicIPResolver(client geolib.HTTPClient, services []string) geolib.PublicIPResolver {
	if len(services) == 0 {
		services = DefaultPublicIPServices
	}

	return publicIPResolver{
		client:   client,
		services: services,
	}
}

package geolib

import (
	"fmt"
	"strconv"
	"strings"
)

// Query is a validated dotted-quad IPv4 address. Use ParseQuery to get
// one.
type Query string

func (q Query) String() string {
	return string(q)
}

// ParseQuery validates that a given string has exactly 4 dot-separated
// decimal octets, each one in [0, 255]. Returned query is canonical:
// leading zeroes and surrounding spaces are removed.
func ParseQuery(value string) (Query, error) {
	value = strings.TrimSpace(value)
	chunks := strings.Split(value, ".")

	if len(chunks) != 4 {
		return "", fmt.Errorf("%w: %q has %d octets", ErrInvalidQuery, value, len(chunks))
	}

	octets := make([]string, 0, len(chunks))

	for _, v := range chunks {
		if v == "" || strings.TrimLeft(v, "0123456789") != "" {
			return "", fmt.Errorf("%w: %q has incorrect octet %q", ErrInvalidQuery, value, v)
		}

		num, err := strconv.Atoi(v)
		if err != nil || num > 255 {
			return "", fmt.Errorf("%w: %q has octet %q out of range", ErrInvalidQuery, value, v)
		}

		octets = append(octets, strconv.Itoa(num))
	}

	return Query(strings.Join(octets, ".")), nil
}

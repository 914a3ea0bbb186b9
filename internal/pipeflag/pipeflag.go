// Package pipeflag parses pipe configurations from command line flags.
package pipeflag

import (
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/soypat/nrf24"
)

// Pipes is a repeatable flag.Value configuring pipes 0 to 5 in order.
// Each value has the form [ADDRHEX:]SIZE|dyn|off, address most significant
// byte first, i.e. "9a78563412:4".
type Pipes []nrf24.Pipe

func (pf *Pipes) String() string {
	if pf == nil {
		return ""
	}
	s := make([]string, len(*pf))
	for i, p := range *pf {
		s[i] = p.String()
	}
	return strings.Join(s, ",")
}

func (pf *Pipes) Set(v string) error {
	if len(*pf) == 6 {
		return errors.New("at most 6 pipes")
	}
	p, err := Parse(v)
	if err != nil {
		return err
	}
	*pf = append(*pf, p)
	return nil
}

// Parse parses a single pipe configuration.
func Parse(v string) (p nrf24.Pipe, err error) {
	v = strings.ToLower(strings.TrimSpace(v))
	addrhex, size, hasAddr := strings.Cut(v, ":")
	if !hasAddr {
		size = addrhex
	}
	switch size {
	case "off", "":
		if hasAddr {
			return p, errors.New("disabled pipe with address")
		}
		return nrf24.Pipe{}, nil
	case "dyn":
		p = nrf24.DynamicPipe()
	default:
		n, err := strconv.Atoi(size)
		if err != nil {
			return p, err
		}
		if n < 1 || n > 32 {
			return p, errors.New("pipe size out of range [1,32]: " + size)
		}
		p = nrf24.FixedPipe(n)
	}
	if hasAddr {
		addr, err := hex.DecodeString(addrhex)
		if err != nil {
			return p, err
		}
		if len(addr) == 0 || len(addr) > 5 {
			return p, errors.New("pipe address must be 1 to 5 bytes")
		}
		p = p.WithAddress(addr...)
	}
	return p, nil
}

package check

import (
	"context"
	"errors"
	"net"
)

// Resolve turns a user supplied host into the single address used for
// every echo in a run. A literal IP address is used as-is without any
// lookup, otherwise the first answer from the name service wins, same as
// ping(8).
func Resolve(ctx context.Context, host string) (*net.IPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return &net.IPAddr{IP: ip}, nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, &ResolutionError{Host: host, Err: err}
	}
	if len(addrs) == 0 {
		return nil, &ResolutionError{Host: host, Err: errors.New("could not resolve hostname")}
	}

	return &addrs[0], nil
}

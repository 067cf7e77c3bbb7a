package check

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const (
	timeSliceLength = 8
	trackerLength   = len(uuid.UUID{})
	protocolICMP    = 1
)

var ipv4Proto = map[string]string{"icmp": "ip4:icmp", "udp": "udp4"}

// ICMPProber implements Prober over a single IPv4 socket owned for the
// duration of a run. The default unprivileged mode uses a datagram ICMP
// socket, privileged mode uses a raw socket and requires super-user
// rights.
type ICMPProber struct {
	conn     *icmp.PacketConn
	id       int
	tracker  uuid.UUID
	protocol string
}

// NewICMPProber opens the echo socket, sets the TTL hint and optionally
// binds it to a source address.
func NewICMPProber(ttl int, source string, privileged bool) (*ICMPProber, error) {
	protocol := "udp"
	if privileged {
		protocol = "icmp"
	}

	conn, err := icmp.ListenPacket(ipv4Proto[protocol], source)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	if err := conn.IPv4PacketConn().SetTTL(ttl); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set ttl: %w", err)
	}

	return &ICMPProber{
		conn:     conn,
		id:       rand.Intn(math.MaxUint16),
		tracker:  uuid.New(),
		protocol: protocol,
	}, nil
}

// Close releases the socket.
func (p *ICMPProber) Close() error {
	return p.conn.Close()
}

// ProbeOnce sends one echo request to dst and waits for the matching
// reply until the deadline carried by ctx. Replies belonging to other
// sequences or other processes are discarded and the read continues.
func (p *ICMPProber) ProbeOnce(ctx context.Context, dst *net.IPAddr, seq uint16) (time.Duration, error) {
	var addr net.Addr = dst
	if p.protocol == "udp" {
		addr = &net.UDPAddr{IP: dst.IP, Zone: dst.Zone}
	}

	msg := &icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   p.id,
			Seq:  int(seq),
			Data: echoPayload(p.tracker, time.Now()),
		},
	}
	msgBytes, err := msg.Marshal(nil)
	if err != nil {
		return 0, err
	}
	if _, err := p.conn.WriteTo(msgBytes, addr); err != nil {
		return 0, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := p.conn.SetReadDeadline(deadline); err != nil {
			return 0, err
		}
	}

	buf := make([]byte, 1500)
	for {
		n, _, err := p.conn.ReadFrom(buf)
		if err != nil {
			if neterr, ok := err.(*net.OpError); ok && neterr.Timeout() {
				return 0, ErrTimeout
			}
			return 0, err
		}

		receivedAt := time.Now()
		m, err := icmp.ParseMessage(protocolICMP, buf[:n])
		if err != nil {
			continue
		}
		if m.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		echo, ok := m.Body.(*icmp.Echo)
		if !ok || echo.Seq != int(seq) || !p.matchID(echo.ID) {
			continue
		}
		sentAt, ok := parsePayload(p.tracker, echo.Data)
		if !ok {
			continue
		}

		return receivedAt.Sub(sentAt), nil
	}
}

// matchID filters replies for other processes. The kernel rewrites the
// identifier on datagram sockets so only raw mode can check it.
func (p *ICMPProber) matchID(id int) bool {
	if p.protocol == "udp" {
		return true
	}
	return id == p.id
}

// echoPayload builds the request payload, a send timestamp followed by
// the run tracker, padded up to EchoSize.
func echoPayload(tracker uuid.UUID, sentAt time.Time) []byte {
	t := append(timeToBytes(sentAt), tracker[:]...)
	if remain := EchoSize - len(t); remain > 0 {
		t = append(t, bytes.Repeat([]byte{1}, remain)...)
	}
	return t
}

// parsePayload recovers the send timestamp from a reply payload, failing
// when the payload is short or carries a foreign tracker.
func parsePayload(tracker uuid.UUID, data []byte) (time.Time, bool) {
	if len(data) < timeSliceLength+trackerLength {
		return time.Time{}, false
	}
	if !bytes.Equal(data[timeSliceLength:timeSliceLength+trackerLength], tracker[:]) {
		return time.Time{}, false
	}
	return bytesToTime(data[:timeSliceLength]), true
}

func timeToBytes(t time.Time) []byte {
	nsec := t.UnixNano()
	b := make([]byte, timeSliceLength)
	for i := uint8(0); i < timeSliceLength; i++ {
		b[i] = byte((nsec >> ((7 - i) * 8)) & 0xff)
	}
	return b
}

func bytesToTime(b []byte) time.Time {
	var nsec int64
	for i := uint8(0); i < timeSliceLength; i++ {
		nsec += int64(b[i]) << ((7 - i) * 8)
	}
	return time.Unix(nsec/1000000000, nsec%1000000000)
}

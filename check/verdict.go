package check

// Constant identifiers of this probe type in the structured record.
const (
	CheckName  = "ping"
	ResultType = "site"
)

// Result is the single machine readable record emitted as the final line
// of every run. Exactly one of Error or Data is set, a resolution failure
// carries Error, a completed run carries Data even at total loss.
type Result struct {
	CheckName  string  `json:"checkname"`
	ServerName string  `json:"servername"`
	ResultType string  `json:"resulttype"`
	Success    bool    `json:"success"`
	Error      *string `json:"error"`
	Data       *Data   `json:"data"`
}

// Data carries the aggregate measurements of a completed run. Latency is
// the average round trip time truncated to whole milliseconds.
type Data struct {
	Latency         int64   `json:"latency"`
	PacketLoss      float64 `json:"packetloss"`
	PacketsSent     uint64  `json:"packets_sent"`
	PacketsReceived uint64  `json:"packets_received"`
}

// Verdict builds the pass/fail record for a completed run. Both threshold
// comparisons are inclusive. A run with no successful replies never
// passes, a zero average is not a measurement of a fast link.
func Verdict(s Snapshot, server string, maxLoss float64, maxLatency int64) Result {
	loss := s.PacketLoss()
	avg := s.AvgRtt().Milliseconds()

	return Result{
		CheckName:  CheckName,
		ServerName: server,
		ResultType: ResultType,
		Success:    loss <= maxLoss && avg <= maxLatency && avg != 0,
		Data: &Data{
			Latency:         avg,
			PacketLoss:      loss,
			PacketsSent:     s.Sent,
			PacketsReceived: s.Received,
		},
	}
}

// Unresolvable builds the terminal record for a run that failed before
// the probe loop ever started.
func Unresolvable(server string, err error) Result {
	msg := err.Error()

	return Result{
		CheckName:  CheckName,
		ServerName: server,
		ResultType: ResultType,
		Success:    false,
		Error:      &msg,
	}
}

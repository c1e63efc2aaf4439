package results

import "strings"

type Status int

const (
	Finished Status = iota
	DNF
	DNS
	DSQ
	OTL
)

var statusNames = map[Status]string{
	Finished: "FIN",
	DNF:      "DNF",
	DNS:      "DNS",
	DSQ:      "DSQ",
	OTL:      "OTL",
}

func (s Status) String() string {
	name, ok := statusNames[s]
	if !ok {
		return "UNKNOWN"
	}
	return name
}

var statusAliases = map[string]Status{
	"fin":             Finished,
	"finished":        Finished,
	"dnf":             DNF,
	"did not finish":  DNF,
	"dns":             DNS,
	"did not start":   DNS,
	"dsq":             DSQ,
	"dq":              DSQ,
	"disqualified":    DSQ,
	"otl":             OTL,
	"over time limit": OTL,
	"cut off":         OTL,
}

// ParseStatus recognizes the status markers printed in place of a time.
func ParseStatus(s string) (Status, bool) {
	key := strings.ToLower(strings.Trim(strings.TrimSpace(s), ".()"))
	status, ok := statusAliases[key]
	return status, ok
}

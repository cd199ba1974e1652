package openvpn

import "strings"

type logState int

const (
	statePending logState = iota
	stateReady
	stateAuthFailed
)

// readiness classifies openvpn output seen so far.
func readiness(output string) logState {
	switch {
	case strings.Contains(output, markerAuthFailed):
		return stateAuthFailed
	case strings.Contains(output, markerReady):
		return stateReady
	}
	return statePending
}

// lastLines returns up to n trailing non-empty lines joined by "; ".
func lastLines(output string, n int) string {
	var lines []string
	for _, l := range strings.Split(output, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return "no output"
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}

package types

import "fmt"

// TunnelConfig is what the tunnel backend needs to bring a tunnel up
type TunnelConfig struct {
	ProfileText string // opaque .ovpn payload
	DisplayName string
	BundleID    string
	CompatMode  CompatMode
}

// CompatMode selects the OpenVPN peer compatibility level
type CompatMode string

const (
	CompatModern   CompatMode = "modern"
	CompatTwoFive  CompatMode = "2.5"
	CompatTwoFour  CompatMode = "2.4"
	CompatTwoThree CompatMode = "2.3"
)

// ParseCompatMode accepts the short form ("2.3") and the upstream mobile
// constant names (OVPN_TWO_THREE_PEER).
func ParseCompatMode(s string) (CompatMode, error) {
	switch s {
	case "", "modern", "MODERN_DEFAULTS":
		return CompatModern, nil
	case "2.5", "OVPN_TWO_FIVE_PEER":
		return CompatTwoFive, nil
	case "2.4", "OVPN_TWO_FOUR_PEER":
		return CompatTwoFour, nil
	case "2.3", "OVPN_TWO_THREE_PEER":
		return CompatTwoThree, nil
	}
	return "", fmt.Errorf("unknown compat mode: %q", s)
}

// OpenVPNVersion returns the --compat-mode argument, or "" for modern.
func (m CompatMode) OpenVPNVersion() string {
	switch m {
	case CompatTwoFive:
		return "2.5.0"
	case CompatTwoFour:
		return "2.4.0"
	case CompatTwoThree:
		return "2.3.0"
	}
	return ""
}

// Sample is one throughput reading
type Sample struct {
	UploadKbps   float64
	DownloadKbps float64
}

// ConnectionState is the user-visible tunnel state
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connected:
		return "Connected"
	}
	return "Unknown"
}

// Operation is a state-changing request in flight
type Operation int

const (
	OpNone Operation = iota
	OpConnect
	OpDisconnect
	OpReselect
)

func (o Operation) String() string {
	switch o {
	case OpNone:
		return ""
	case OpConnect:
		return "connecting"
	case OpDisconnect:
		return "disconnecting"
	case OpReselect:
		return "switching"
	}
	return "unknown"
}

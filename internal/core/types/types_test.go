package types

import "testing"

func TestParseCompatMode(t *testing.T) {
	tests := []struct {
		in      string
		want    CompatMode
		version string
		wantErr bool
	}{
		{"", CompatModern, "", false},
		{"modern", CompatModern, "", false},
		{"2.5", CompatTwoFive, "2.5.0", false},
		{"OVPN_TWO_FOUR_PEER", CompatTwoFour, "2.4.0", false},
		{"OVPN_TWO_THREE_PEER", CompatTwoThree, "2.3.0", false},
		{"2.2", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCompatMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCompatMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCompatMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if v := got.OpenVPNVersion(); v != tt.version {
				t.Errorf("OpenVPNVersion() = %v, want %v", v, tt.version)
			}
		})
	}
}

func TestConnectionState_String(t *testing.T) {
	tests := []struct {
		state    ConnectionState
		expected string
	}{
		{Disconnected, "Disconnected"},
		{Connected, "Connected"},
		{ConnectionState(9), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("ConnectionState.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

package protocol

import (
	"testing"
)

func TestStateRoundTrip(t *testing.T) {
	s := State{
		Seq:  42,
		Time: 1_000_000,
	}
	for i := 0; i < 7; i++ {
		s.Q[i] = float64(i) * 0.1
		s.Dq[i] = float64(i) * -0.01
		s.QD[i] = float64(i) * 0.1
		s.DqD[i] = 0
		s.TauJ[i] = float64(i)
	}
	s.OTEE[0], s.OTEE[5], s.OTEE[10], s.OTEE[15] = 1, 1, 1, 1
	s.OTEE[12], s.OTEE[13], s.OTEE[14] = 0.3, 0.0, 0.5
	s.Wrench = [6]float64{1, 2, 3, 0.1, 0.2, 0.3}

	buf := EncodeState(&s)
	if len(buf) != StateSize {
		t.Fatalf("encoded state is %d bytes, want %d", len(buf), StateSize)
	}

	got, err := DecodeState(buf)
	if err != nil {
		t.Fatalf("DecodeState() error = %v", err)
	}
	if got != s {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, s)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{
			name: "joint positions",
			cmd: Command{
				Seq:    7,
				Kind:   KindJointPositions,
				Signal: SignalContinue,
				Motion: [16]float64{0, -0.785, 0, -2.356, 0, 1.571, 0.785},
			},
		},
		{
			name: "joint velocities with torque",
			cmd: Command{
				Seq:       8,
				Kind:      KindJointVelocities,
				Signal:    SignalFinished,
				HasTorque: true,
				Motion:    [16]float64{0.1, 0, 0, 0, 0, 0, 0},
				Tau:       [7]float64{1, 2, 3, 4, 5, 6, 7},
			},
		},
		{
			name: "stop",
			cmd: Command{
				Seq:    9,
				Kind:   KindCartesianPose,
				Signal: SignalStop,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := EncodeCommand(&tt.cmd)
			if len(buf) != CommandSize {
				t.Fatalf("encoded command is %d bytes, want %d", len(buf), CommandSize)
			}
			got, err := DecodeCommand(buf)
			if err != nil {
				t.Fatalf("DecodeCommand() error = %v", err)
			}
			if got != tt.cmd {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tt.cmd)
			}
		})
	}
}

func TestDecodeStateRejectsCorruption(t *testing.T) {
	buf := EncodeState(&State{Seq: 1})

	short := buf[:StateSize-1]
	if _, err := DecodeState(short); err == nil {
		t.Error("DecodeState() accepted a truncated buffer")
	}

	buf[20] ^= 0xff
	if _, err := DecodeState(buf); err == nil {
		t.Error("DecodeState() accepted a corrupted payload")
	}
}

func TestDecodeCommandRejectsBadTags(t *testing.T) {
	cmd := Command{Seq: 1, Kind: KindJointPositions}
	buf := EncodeCommand(&cmd)

	// Forge an unknown kind and refresh the checksum so only the tag check
	// can reject it.
	buf[4] = 0xee
	refreshCRC(buf)
	if _, err := DecodeCommand(buf); err == nil {
		t.Error("DecodeCommand() accepted an unknown motion kind")
	}

	buf = EncodeCommand(&cmd)
	buf[5] = 0x7f
	refreshCRC(buf)
	if _, err := DecodeCommand(buf); err == nil {
		t.Error("DecodeCommand() accepted an unknown signal")
	}
}

func refreshCRC(buf []byte) {
	body := len(buf) - 4
	crc := CRC16CCITT(buf[:body])
	buf[body] = byte(crc)
	buf[body+1] = byte(crc >> 8)
}

func TestHandshakeRoundTrip(t *testing.T) {
	ch := ClientHello{Version: Version, UDPPort: 31337}
	gotCH, err := DecodeClientHello(EncodeClientHello(ch))
	if err != nil {
		t.Fatalf("DecodeClientHello() error = %v", err)
	}
	if gotCH != ch {
		t.Errorf("client hello mismatch: got %+v, want %+v", gotCH, ch)
	}

	sh := ServerHello{Status: StatusAccepted, Version: 5, RateHz: 1000}
	gotSH, err := DecodeServerHello(EncodeServerHello(sh))
	if err != nil {
		t.Fatalf("DecodeServerHello() error = %v", err)
	}
	if gotSH != sh {
		t.Errorf("server hello mismatch: got %+v, want %+v", gotSH, sh)
	}

	bad := EncodeClientHello(ch)
	bad[0] = 0
	if _, err := DecodeClientHello(bad); err == nil {
		t.Error("DecodeClientHello() accepted a bad magic")
	}
}

//go:build darwin || linux

package termios

import (
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/sys/unix"
)

func TestApplyRoundtrip(t *testing.T) {
	t.Parallel()

	var tio unix.Termios
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.ICANON:        0,
		ssh.ONLCR:         1,
		ssh.CS8:           1,
		ssh.VINTR:         3,
		ssh.VEOF:          4,
		ssh.TTY_OP_ISPEED: 9600,
		ssh.TTY_OP_OSPEED: 38400,
	}
	ApplySSHToTermios(modes, &tio)

	back := TermiosToSSH(&tio)
	for _, op := range []uint8{ssh.ECHO, ssh.ONLCR, ssh.CS8} {
		if back[op] != 1 {
			t.Errorf("op %d = %d, want 1", op, back[op])
		}
	}
	if back[ssh.ICANON] != 0 {
		t.Errorf("ICANON = %d, want 0", back[ssh.ICANON])
	}
	if back[ssh.VINTR] != 3 || back[ssh.VEOF] != 4 {
		t.Errorf("cc mismatch: VINTR=%d VEOF=%d", back[ssh.VINTR], back[ssh.VEOF])
	}
	if back[ssh.TTY_OP_ISPEED] != 9600 || back[ssh.TTY_OP_OSPEED] != 38400 {
		t.Errorf("speed mismatch: %d/%d", back[ssh.TTY_OP_ISPEED], back[ssh.TTY_OP_OSPEED])
	}
}

func TestApplyClearsFlag(t *testing.T) {
	t.Parallel()

	var tio unix.Termios
	tio.Lflag |= unix.ECHO | unix.ISIG
	ApplySSHToTermios(ssh.TerminalModes{ssh.ECHO: 0}, &tio)

	if tio.Lflag&unix.ECHO != 0 {
		t.Error("ECHO not cleared")
	}
	if tio.Lflag&unix.ISIG == 0 {
		t.Error("ISIG lost")
	}
}

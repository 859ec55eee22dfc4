//go:build darwin || linux

// Package termios translates between SSH wire terminal modes (RFC 4254
// section 8) and kernel termios flags.
package termios

import (
	"golang.org/x/crypto/ssh"
	"golang.org/x/sys/unix"
)

type flagField int

const (
	fIflag flagField = iota
	fOflag
	fCflag
	fLflag
)

// control characters: SSH opcode -> Cc index
var ccOps = []struct {
	op  uint8
	idx int
}{
	{ssh.VINTR, unix.VINTR},
	{ssh.VQUIT, unix.VQUIT},
	{ssh.VERASE, unix.VERASE},
	{ssh.VKILL, unix.VKILL},
	{ssh.VEOF, unix.VEOF},
	{ssh.VEOL, unix.VEOL},
	{ssh.VEOL2, unix.VEOL2},
	{ssh.VSTART, unix.VSTART},
	{ssh.VSTOP, unix.VSTOP},
	{ssh.VSUSP, unix.VSUSP},
	{ssh.VREPRINT, unix.VREPRINT},
	{ssh.VWERASE, unix.VWERASE},
	{ssh.VLNEXT, unix.VLNEXT},
	{ssh.VDISCARD, unix.VDISCARD},
}

// boolean mode flags: SSH opcode -> termios field + mask
var flagOps = []struct {
	op   uint8
	fld  flagField
	mask uint64
}{
	{ssh.IGNPAR, fIflag, unix.IGNPAR},
	{ssh.PARMRK, fIflag, unix.PARMRK},
	{ssh.INPCK, fIflag, unix.INPCK},
	{ssh.ISTRIP, fIflag, unix.ISTRIP},
	{ssh.INLCR, fIflag, unix.INLCR},
	{ssh.IGNCR, fIflag, unix.IGNCR},
	{ssh.ICRNL, fIflag, unix.ICRNL},
	{ssh.IXON, fIflag, unix.IXON},
	{ssh.IXANY, fIflag, unix.IXANY},
	{ssh.IXOFF, fIflag, unix.IXOFF},
	{ssh.IMAXBEL, fIflag, unix.IMAXBEL},
	{ssh.IUTF8, fIflag, unix.IUTF8},

	{ssh.ISIG, fLflag, unix.ISIG},
	{ssh.ICANON, fLflag, unix.ICANON},
	{ssh.ECHO, fLflag, unix.ECHO},
	{ssh.ECHOE, fLflag, unix.ECHOE},
	{ssh.ECHOK, fLflag, unix.ECHOK},
	{ssh.ECHONL, fLflag, unix.ECHONL},
	{ssh.NOFLSH, fLflag, unix.NOFLSH},
	{ssh.TOSTOP, fLflag, unix.TOSTOP},
	{ssh.IEXTEN, fLflag, unix.IEXTEN},
	{ssh.ECHOCTL, fLflag, unix.ECHOCTL},
	{ssh.ECHOKE, fLflag, unix.ECHOKE},
	{ssh.PENDIN, fLflag, unix.PENDIN},

	{ssh.OPOST, fOflag, unix.OPOST},
	{ssh.ONLCR, fOflag, unix.ONLCR},
	{ssh.OCRNL, fOflag, unix.OCRNL},
	{ssh.ONOCR, fOflag, unix.ONOCR},
	{ssh.ONLRET, fOflag, unix.ONLRET},

	{ssh.CS7, fCflag, unix.CS7},
	{ssh.CS8, fCflag, unix.CS8},
	{ssh.PARENB, fCflag, unix.PARENB},
	{ssh.PARODD, fCflag, unix.PARODD},
}

func mFlag(v uint64) uint32 {
	if v != 0 {
		return 1
	}
	return 0
}

func TermiosToSSH(t *unix.Termios) ssh.TerminalModes {
	m := make(ssh.TerminalModes, len(ccOps)+len(flagOps)+2)

	for _, cc := range ccOps {
		m[cc.op] = uint32(t.Cc[cc.idx])
	}
	for _, f := range flagOps {
		m[f.op] = mFlag(getFlag(t, f.fld) & f.mask)
	}

	inSpeed, outSpeed := getSpeeds(t)
	m[ssh.TTY_OP_ISPEED] = inSpeed
	m[ssh.TTY_OP_OSPEED] = outSpeed

	return m
}

func ApplySSHToTermios(m ssh.TerminalModes, t *unix.Termios) {
	for op, val := range m {
		switch op {
		case ssh.TTY_OP_ISPEED:
			setSpeeds(t, &val, nil)
			continue
		case ssh.TTY_OP_OSPEED:
			setSpeeds(t, nil, &val)
			continue
		}

		if idx, ok := ccIndex(op); ok {
			t.Cc[idx] = uint8(val)
			continue
		}
		for _, f := range flagOps {
			if f.op == op {
				setFlag(t, f.fld, f.mask, val != 0)
				break
			}
		}
	}
}

func ccIndex(op uint8) (int, bool) {
	for _, cc := range ccOps {
		if cc.op == op {
			return cc.idx, true
		}
	}
	return 0, false
}

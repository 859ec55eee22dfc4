package termios

import "golang.org/x/sys/unix"

func getFlag(t *unix.Termios, f flagField) uint64 {
	switch f {
	case fIflag:
		return t.Iflag
	case fOflag:
		return t.Oflag
	case fCflag:
		return t.Cflag
	default:
		return t.Lflag
	}
}

func setFlag(t *unix.Termios, f flagField, mask uint64, on bool) {
	var fld *uint64
	switch f {
	case fIflag:
		fld = &t.Iflag
	case fOflag:
		fld = &t.Oflag
	case fCflag:
		fld = &t.Cflag
	default:
		fld = &t.Lflag
	}

	if on {
		*fld |= mask
	} else {
		*fld &^= mask
	}
}

func getSpeeds(t *unix.Termios) (uint32, uint32) {
	return uint32(t.Ispeed), uint32(t.Ospeed)
}

func setSpeeds(t *unix.Termios, in, out *uint32) {
	if in != nil {
		t.Ispeed = uint64(*in)
	}
	if out != nil {
		t.Ospeed = uint64(*out)
	}
}

func GetTermios(fd uintptr) (*unix.Termios, error) {
	return unix.IoctlGetTermios(int(fd), unix.TIOCGETA)
}

func SetTermiosNow(fd uintptr, t *unix.Termios) error {
	return unix.IoctlSetTermios(int(fd), unix.TIOCSETA, t)
}

func SetTermiosDrain(fd uintptr, t *unix.Termios) error {
	return unix.IoctlSetTermios(int(fd), unix.TIOCSETAW, t)
}

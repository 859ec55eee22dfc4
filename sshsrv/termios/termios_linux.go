package termios

import "golang.org/x/sys/unix"

func getFlag(t *unix.Termios, f flagField) uint64 {
	switch f {
	case fIflag:
		return uint64(t.Iflag)
	case fOflag:
		return uint64(t.Oflag)
	case fCflag:
		return uint64(t.Cflag)
	default:
		return uint64(t.Lflag)
	}
}

func setFlag(t *unix.Termios, f flagField, mask uint64, on bool) {
	var fld *uint32
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
		*fld |= uint32(mask)
	} else {
		*fld &^= uint32(mask)
	}
}

func getSpeeds(t *unix.Termios) (uint32, uint32) {
	return t.Ispeed, t.Ospeed
}

func setSpeeds(t *unix.Termios, in, out *uint32) {
	if in != nil {
		t.Ispeed = *in
	}
	if out != nil {
		t.Ospeed = *out
	}
}

func GetTermios(fd uintptr) (*unix.Termios, error) {
	return unix.IoctlGetTermios(int(fd), unix.TCGETS)
}

func SetTermiosNow(fd uintptr, t *unix.Termios) error {
	return unix.IoctlSetTermios(int(fd), unix.TCSETS, t)
}

func SetTermiosDrain(fd uintptr, t *unix.Termios) error {
	return unix.IoctlSetTermios(int(fd), unix.TCSETSW, t)
}

package batch

import (
	"fmt"
	"os"
)

// DecideWriteMode picks Create for the first unit and for every unit of a
// non-concatenated run. Later units of a concatenated run Append, so only
// index 0 may discard what an earlier run left behind.
func DecideWriteMode(index int, concat bool) WriteMode {
	if index == 0 || !concat {
		return Create
	}
	return Append
}

// Banner is the comment line prefixed to every compiled unit.
func Banner(version, source string) string {
	return fmt.Sprintf("// generated by agl v%s from %s", version, source)
}

// FormatUnit lays out the bytes written for one unit.
//
// Create: banner, newline, text, newline.
// Append: banner, newline, text.
//
// Append has no trailing newline; existing generated .gs files use this
// exact layout. WriteUnit supplies the line break an appended banner needs
// when the file does not already end with one.
func FormatUnit(banner, text string, mode WriteMode) []byte {
	if mode == Append {
		return []byte(banner + "\n" + text)
	}
	return []byte(banner + "\n" + text + "\n")
}

// WriteUnit opens target.Path according to target.Mode and writes payload.
// Create truncates or creates; Append creates if absent and writes at the end.
//
// An appended payload always starts on its own line: if the file is non-empty
// and its last byte is not a newline, a newline is written first.
func WriteUnit(target OutputTarget, payload []byte) error {
	flags := os.O_CREATE
	switch target.Mode {
	case Create:
		flags |= os.O_WRONLY | os.O_TRUNC
	case Append:
		flags |= os.O_RDWR | os.O_APPEND
	default:
		return fmt.Errorf("unknown write mode %q", target.Mode)
	}

	f, err := os.OpenFile(target.Path, flags, 0o644)
	if err != nil {
		return err
	}
	if target.Mode == Append {
		open, err := endsMidLine(f)
		if err != nil {
			_ = f.Close()
			return err
		}
		if open {
			payload = append([]byte{'\n'}, payload...)
		}
	}
	if _, err := f.Write(payload); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// endsMidLine reports whether f is non-empty and lacks a final newline.
func endsMidLine(f *os.File) (bool, error) {
	st, err := f.Stat()
	if err != nil {
		return false, err
	}
	if st.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, st.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

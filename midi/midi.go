package midi

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

var ErrMalformedMidi = errors.New("malformed midi")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedMidi, fmt.Sprintf(format, args...))
}

// parse decodes a standard midi file. gomidi can panic on corrupt input, so
// panics are turned into ErrMalformedMidi.
func parse(data []byte) (s *smf.SMF, e error) {
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = malformed("%v", r)
		}
	}()

	if len(data) == 0 {
		return nil, malformed("empty byte stream")
	}

	res, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, malformed("%v", err)
	}
	return res, nil
}

func ReadFile(path string) (*smf.SMF, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading midi file %s", path)
	}
	return parse(dat)
}

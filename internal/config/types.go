package config

import (
	"fmt"
	"strconv"
	"time"
)

// Duration is a time.Duration read from text. It accepts Go duration
// syntax ("1500ms", "2m") or a bare number of seconds ("30"), which is how
// timeouts usually arrive through DOCGUARD_* variables.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	v, err := time.ParseDuration(s)
	if err != nil {
		secs, convErr := strconv.ParseFloat(s, 64)
		if convErr != nil {
			return fmt.Errorf("invalid duration %q", s)
		}
		v = time.Duration(secs * float64(time.Second))
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", s)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Duration converts back to a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

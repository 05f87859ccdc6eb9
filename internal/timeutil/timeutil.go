// Package timeutil converts between seconds and the clock notation FFmpeg
// uses on its command line and in its progress output.
package timeutil

import (
	"fmt"
	"strconv"
)

// FormatSeconds converts seconds to the HH:MM:SS.CC clock FFmpeg prints.
// The run report uses it for per-item wall time.
//
// Example:
//
//	FormatSeconds(0)      // "00:00:00.00"
//	FormatSeconds(90)     // "00:01:30.00"
//	FormatSeconds(3661)   // "01:01:01.00"
//	FormatSeconds(30.53)  // "00:00:30.53"
//	FormatSeconds(1.999)  // "00:00:02.00"
func FormatSeconds(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, secs)
}

// ClockSeconds converts the captured fields of an HH:MM:SS.CC clock (as
// printed by FFmpeg) into seconds.
//
// The fractional field is read as hundredths of a second, matching the two
// digit field FFmpeg emits.
//
// Returns an error if any field is not a non-negative integer, or if minutes
// or seconds are 60 or more.
//
// Example:
//
//	ClockSeconds("00", "10", "00", "00")  // 600
//	ClockSeconds("01", "01", "01", "50")  // 3661.5
func ClockSeconds(hours, minutes, seconds, hundredths string) (float64, error) {
	var fields [4]int
	for i, s := range []string{hours, minutes, seconds, hundredths} {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid clock field %q", s)
		}
		fields[i] = n
	}
	if fields[1] >= 60 || fields[2] >= 60 {
		return 0, fmt.Errorf("invalid clock %s:%s:%s.%s", hours, minutes, seconds, hundredths)
	}
	return float64(fields[0]*3600+fields[1]*60+fields[2]) + float64(fields[3])/100, nil
}

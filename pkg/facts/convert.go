// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package facts

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

// wmiDateTimeRe matches the CIM_DATETIME format, e.g.
// "20210101120000.000000+000". The trailing signed field is the offset from
// UTC in minutes.
var wmiDateTimeRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(\d{2})(\d{2})(\d{2})\.\d{6}([+-])(\d{3})$`)

// ParseWMIDateTime parses the CIM_DATETIME string form used by WMI properties
// such as InstallDate and DriverDate. The date-time fields are local to the
// embedded UTC offset, which is applied to the result. The second return is
// false when the input does not match the format.
func ParseWMIDateTime(s string) (time.Time, bool) {
	m := wmiDateTimeRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	parts := make([]int, 6)
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, false
		}
		parts[i] = n
	}
	offset, err := strconv.Atoi(m[8])
	if err != nil {
		return time.Time{}, false
	}
	if m[7] == "-" {
		offset = -offset
	}
	loc := time.FixedZone("", offset*60)
	t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, loc)
	if t.Year() != parts[0] || int(t.Month()) != parts[1] || t.Day() != parts[2] {
		return time.Time{}, false
	}
	return t, true
}

// BytesToGB converts a byte count to gigabytes, rounded to two decimals.
func BytesToGB(b uint64) float64 {
	return math.Round(float64(b)/(1<<30)*100) / 100
}

// BytesToMB converts a byte count to megabytes, rounded to two decimals.
func BytesToMB(b uint64) float64 {
	return math.Round(float64(b)/(1<<20)*100) / 100
}

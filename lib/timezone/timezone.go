// Package timezone pins the clock used for timestamps in output file names.
package timezone

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Location defaults to the machine's zone, set it with SetLocation when
// reports should carry another zone's wall time.
var Location = time.Local

// SetLocation switches Location to the IANA zone `name`, an empty name keeps
// the current one.
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", name, err)
	}
	Location = loc
	return nil
}

func Now() time.Time {
	return time.Now().In(Location)
}

// FileStamp renders `t` as it appears in report file names, ex.
// `2020-09-18-11.05.13`.
func FileStamp(t time.Time) string {
	return t.In(Location).Format("2006-01-02-15.04.05")
}

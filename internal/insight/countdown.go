package insight

import (
	"fmt"
	"time"

	"github.com/existflow/wedplan/internal/model"
)

// Countdown is the time left until the wedding.
type Countdown struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
	Past    bool
}

// Until computes the countdown from now to midnight UTC of date. Once the
// moment has passed every field is zero and Past is set.
func Until(date model.Date, now time.Time) Countdown {
	left := date.Time().Sub(now)
	if left <= 0 {
		return Countdown{Past: true}
	}

	secs := int64(left / time.Second)
	return Countdown{
		Days:    int(secs / 86400),
		Hours:   int(secs % 86400 / 3600),
		Minutes: int(secs % 3600 / 60),
		Seconds: int(secs % 60),
	}
}

func (c Countdown) String() string {
	if c.Past {
		return "the big day has arrived"
	}
	return fmt.Sprintf("%dd %02dh %02dm %02ds", c.Days, c.Hours, c.Minutes, c.Seconds)
}

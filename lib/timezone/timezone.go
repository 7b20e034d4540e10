package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Damascus")
	if err != nil {
		panic(err)
	}
}

// force the timezone to match the university's campus, the host
// running the bot is usually elsewhere which shifts dates read
// through <time.Time>.Year()/Month()/Day() across midnight
func Now() time.Time {
	return time.Now().In(Location)
}

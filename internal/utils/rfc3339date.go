package utils

import (
	"encoding/json"
	"time"
)

// DisplayLayout is the canonical human-facing timestamp format.
const DisplayLayout = "02/01/2006 15:04:05"

type RFC3339Date struct {
	time.Time
}

func (d RFC3339Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339))
}

func (d *RFC3339Date) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Display formats the date the way it is shown to operators.
func (d RFC3339Date) Display() string {
	return d.Time.Local().Format(DisplayLayout)
}

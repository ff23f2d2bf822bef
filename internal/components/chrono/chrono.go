package chrono

import "time"

// TimeAPI is the source of "now" for everything that interprets portal dates.
type TimeAPI interface {
	Now() time.Time
	Location() *time.Location
}

type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl loads the named IANA location, the portal publishes
// deadlines in local time without an offset.
func NewStandardImpl(location string) (StandardImpl, error) {
	loc, err := time.LoadLocation(location)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: loc}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always returns the same instant.
type FixedImpl struct {
	Instant time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.Instant
}

func (f FixedImpl) Location() *time.Location {
	return f.Instant.Location()
}

package types

import "fmt"

const (
	MaxFractionalPrecision        = 9
	DefaultTimePrecision          = 0
	DefaultTimestampPrecision     = 6
	MinYearPrecision              = 1
	MaxYearPrecision              = 4
	DefaultYearPrecision          = 2
	MinDayPrecision               = 1
	MaxDayPrecision               = 6
	DefaultDayPrecision           = 2
	DefaultIntervalFractionalPrec = 6
)

func checkFractional(kind string, precision int) error {
	if precision < 0 || precision > MaxFractionalPrecision {
		return fmt.Errorf("%w: %s precision must be between 0 and %d, got %d",
			ErrInvalidPrecision, kind, MaxFractionalPrecision, precision)
	}
	return nil
}

// DateType is a calendar date without time of day.
type DateType struct{ base }

func NewDateType() *DateType { return &DateType{base{nullable: true}} }

func (t *DateType) Root() TypeRoot { return RootDate }

func (t *DateType) Copy(nullable bool) LogicalType { return &DateType{base{nullable: nullable}} }

func (t *DateType) String() string { return t.withNullability("DATE") }

// TimeType is a time of day without time zone.
type TimeType struct {
	base
	precision int
}

func NewTimeType(precision int) (*TimeType, error) {
	if err := checkFractional("TIME", precision); err != nil {
		return nil, err
	}
	return &TimeType{base{nullable: true}, precision}, nil
}

func (t *TimeType) Root() TypeRoot { return RootTime }

func (t *TimeType) Precision() int { return t.precision }

func (t *TimeType) Copy(nullable bool) LogicalType {
	return &TimeType{base{nullable: nullable}, t.precision}
}

func (t *TimeType) String() string {
	return t.withNullability(fmt.Sprintf("TIME(%d)", t.precision))
}

// TimestampType is a timestamp without time zone.
type TimestampType struct {
	base
	precision int
}

func NewTimestampType(precision int) (*TimestampType, error) {
	if err := checkFractional("TIMESTAMP", precision); err != nil {
		return nil, err
	}
	return &TimestampType{base{nullable: true}, precision}, nil
}

func (t *TimestampType) Root() TypeRoot { return RootTimestamp }

func (t *TimestampType) Precision() int { return t.precision }

func (t *TimestampType) Copy(nullable bool) LogicalType {
	return &TimestampType{base{nullable: nullable}, t.precision}
}

func (t *TimestampType) String() string {
	return t.withNullability(fmt.Sprintf("TIMESTAMP(%d)", t.precision))
}

// LocalZonedTimestampType is a point in time interpreted in the session
// time zone.
type LocalZonedTimestampType struct {
	base
	precision int
}

func NewLocalZonedTimestampType(precision int) (*LocalZonedTimestampType, error) {
	if err := checkFractional("TIMESTAMP_LTZ", precision); err != nil {
		return nil, err
	}
	return &LocalZonedTimestampType{base{nullable: true}, precision}, nil
}

func (t *LocalZonedTimestampType) Root() TypeRoot { return RootTimestampLTZ }

func (t *LocalZonedTimestampType) Precision() int { return t.precision }

func (t *LocalZonedTimestampType) Copy(nullable bool) LogicalType {
	return &LocalZonedTimestampType{base{nullable: nullable}, t.precision}
}

func (t *LocalZonedTimestampType) String() string {
	return t.withNullability(fmt.Sprintf("TIMESTAMP_LTZ(%d)", t.precision))
}

// IntervalResolution is the set of time units an interval carries.
type IntervalResolution int

const (
	ResolutionYear IntervalResolution = iota
	ResolutionYearToMonth
	ResolutionMonth
	ResolutionDay
	ResolutionDayToHour
	ResolutionDayToMinute
	ResolutionDayToSecond
	ResolutionHour
	ResolutionHourToMinute
	ResolutionHourToSecond
	ResolutionMinute
	ResolutionMinuteToSecond
	ResolutionSecond
)

func (r IntervalResolution) String() string {
	switch r {
	case ResolutionYear:
		return "YEAR"
	case ResolutionYearToMonth:
		return "YEAR_TO_MONTH"
	case ResolutionMonth:
		return "MONTH"
	case ResolutionDay:
		return "DAY"
	case ResolutionDayToHour:
		return "DAY_TO_HOUR"
	case ResolutionDayToMinute:
		return "DAY_TO_MINUTE"
	case ResolutionDayToSecond:
		return "DAY_TO_SECOND"
	case ResolutionHour:
		return "HOUR"
	case ResolutionHourToMinute:
		return "HOUR_TO_MINUTE"
	case ResolutionHourToSecond:
		return "HOUR_TO_SECOND"
	case ResolutionMinute:
		return "MINUTE"
	case ResolutionMinuteToSecond:
		return "MINUTE_TO_SECOND"
	case ResolutionSecond:
		return "SECOND"
	default:
		return "UNKNOWN"
	}
}

// YearMonthIntervalType is an interval of years and/or months.
type YearMonthIntervalType struct {
	base
	resolution    IntervalResolution
	yearPrecision int
}

// NewYearMonthIntervalType uses the default year precision of 2.
func NewYearMonthIntervalType(resolution IntervalResolution) (*YearMonthIntervalType, error) {
	return NewYearMonthIntervalTypeWithPrecision(resolution, DefaultYearPrecision)
}

func NewYearMonthIntervalTypeWithPrecision(resolution IntervalResolution, yearPrecision int) (*YearMonthIntervalType, error) {
	switch resolution {
	case ResolutionYear, ResolutionYearToMonth:
	case ResolutionMonth:
		// MONTH carries no year field.
		yearPrecision = DefaultYearPrecision
	default:
		return nil, fmt.Errorf("%w: %s is not a year-month resolution", ErrInvalidResolution, resolution)
	}
	if yearPrecision < MinYearPrecision || yearPrecision > MaxYearPrecision {
		return nil, fmt.Errorf("%w: year precision must be between %d and %d, got %d",
			ErrInvalidPrecision, MinYearPrecision, MaxYearPrecision, yearPrecision)
	}
	return &YearMonthIntervalType{base{nullable: true}, resolution, yearPrecision}, nil
}

func (t *YearMonthIntervalType) Root() TypeRoot { return RootIntervalYearMonth }

func (t *YearMonthIntervalType) Resolution() IntervalResolution { return t.resolution }

func (t *YearMonthIntervalType) YearPrecision() int { return t.yearPrecision }

func (t *YearMonthIntervalType) Copy(nullable bool) LogicalType {
	return &YearMonthIntervalType{base{nullable: nullable}, t.resolution, t.yearPrecision}
}

func (t *YearMonthIntervalType) String() string {
	var s string
	switch t.resolution {
	case ResolutionYear:
		s = fmt.Sprintf("INTERVAL YEAR(%d)", t.yearPrecision)
	case ResolutionYearToMonth:
		s = fmt.Sprintf("INTERVAL YEAR(%d) TO MONTH", t.yearPrecision)
	default:
		s = "INTERVAL MONTH"
	}
	return t.withNullability(s)
}

// DayTimeIntervalType is an interval of days, hours, minutes and seconds.
type DayTimeIntervalType struct {
	base
	resolution          IntervalResolution
	dayPrecision        int
	fractionalPrecision int
}

// NewDayTimeIntervalType uses the default day (2) and fractional (6) precisions.
func NewDayTimeIntervalType(resolution IntervalResolution) (*DayTimeIntervalType, error) {
	return NewDayTimeIntervalTypeWithPrecision(resolution, DefaultDayPrecision, DefaultIntervalFractionalPrec)
}

// NewDayTimeIntervalTypeWithPrecision normalizes precisions of fields the
// resolution does not carry to their defaults.
func NewDayTimeIntervalTypeWithPrecision(resolution IntervalResolution, dayPrecision, fractionalPrecision int) (*DayTimeIntervalType, error) {
	hasDay, hasSecond := false, false
	switch resolution {
	case ResolutionDay, ResolutionDayToHour, ResolutionDayToMinute:
		hasDay = true
	case ResolutionDayToSecond:
		hasDay, hasSecond = true, true
	case ResolutionHourToSecond, ResolutionMinuteToSecond, ResolutionSecond:
		hasSecond = true
	case ResolutionHour, ResolutionHourToMinute, ResolutionMinute:
	default:
		return nil, fmt.Errorf("%w: %s is not a day-time resolution", ErrInvalidResolution, resolution)
	}
	if !hasDay {
		dayPrecision = DefaultDayPrecision
	}
	if !hasSecond {
		fractionalPrecision = DefaultIntervalFractionalPrec
	}
	if dayPrecision < MinDayPrecision || dayPrecision > MaxDayPrecision {
		return nil, fmt.Errorf("%w: day precision must be between %d and %d, got %d",
			ErrInvalidPrecision, MinDayPrecision, MaxDayPrecision, dayPrecision)
	}
	if err := checkFractional("INTERVAL SECOND", fractionalPrecision); err != nil {
		return nil, err
	}
	return &DayTimeIntervalType{base{nullable: true}, resolution, dayPrecision, fractionalPrecision}, nil
}

func (t *DayTimeIntervalType) Root() TypeRoot { return RootIntervalDayTime }

func (t *DayTimeIntervalType) Resolution() IntervalResolution { return t.resolution }

func (t *DayTimeIntervalType) DayPrecision() int { return t.dayPrecision }

func (t *DayTimeIntervalType) FractionalPrecision() int { return t.fractionalPrecision }

func (t *DayTimeIntervalType) Copy(nullable bool) LogicalType {
	return &DayTimeIntervalType{base{nullable: nullable}, t.resolution, t.dayPrecision, t.fractionalPrecision}
}

func (t *DayTimeIntervalType) String() string {
	var s string
	switch t.resolution {
	case ResolutionDay:
		s = fmt.Sprintf("INTERVAL DAY(%d)", t.dayPrecision)
	case ResolutionDayToHour:
		s = fmt.Sprintf("INTERVAL DAY(%d) TO HOUR", t.dayPrecision)
	case ResolutionDayToMinute:
		s = fmt.Sprintf("INTERVAL DAY(%d) TO MINUTE", t.dayPrecision)
	case ResolutionDayToSecond:
		s = fmt.Sprintf("INTERVAL DAY(%d) TO SECOND(%d)", t.dayPrecision, t.fractionalPrecision)
	case ResolutionHour:
		s = "INTERVAL HOUR"
	case ResolutionHourToMinute:
		s = "INTERVAL HOUR TO MINUTE"
	case ResolutionHourToSecond:
		s = fmt.Sprintf("INTERVAL HOUR TO SECOND(%d)", t.fractionalPrecision)
	case ResolutionMinute:
		s = "INTERVAL MINUTE"
	case ResolutionMinuteToSecond:
		s = fmt.Sprintf("INTERVAL MINUTE TO SECOND(%d)", t.fractionalPrecision)
	default:
		s = fmt.Sprintf("INTERVAL SECOND(%d)", t.fractionalPrecision)
	}
	return t.withNullability(s)
}

package v1

import "errors"

var (
	ErrUnknownSensor      = errors.New("unknown sensor kind")
	ErrSensorNotMonitored = errors.New("sensor not monitored")
	ErrBadLimit           = errors.New("limit must be a positive integer")
)

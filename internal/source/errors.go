package source

import "errors"

var (
	ErrUnknownFormat      = errors.New("unknown input format")
	ErrMissingInput       = errors.New("input path is required")
	ErrOpenFailed         = errors.New("failed to open input")
	ErrDecodeFailed       = errors.New("failed to decode input")
	ErrInvalidKafkaConfig = errors.New("invalid kafka configuration: brokers, topic, and groupID are required")
	ErrKafkaFetchFailed   = errors.New("failed to fetch message from kafka")
)

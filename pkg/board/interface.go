package board

// Device defines the interface for the station microcontroller (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Frames() <-chan RawFrame
	SetIndicators(status, link bool) error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

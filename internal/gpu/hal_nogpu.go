//go:build nogpu

package gpu

// OpenHAL reports that hardware devices are compiled out.
func OpenHAL() (Device, error) { return nil, ErrNotAvailable }

// NewHALDeviceFromProvider reports that hardware devices are compiled out.
func NewHALDeviceFromProvider(any) (Device, error) { return nil, ErrNotAvailable }

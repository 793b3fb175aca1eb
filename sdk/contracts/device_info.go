package contracts

// DeviceInfo contains information about a MIDI input device.
type DeviceInfo struct {
	Index        int    // Position in the driver's enumeration order.
	Name         string // Device name.
	Manufacturer string // Device manufacturer.
	EntityName   string // Name of the entity to which the device belongs.
}

// InputHandle is an opened input device. Callbacks are delivered only between Start and Stop.
type InputHandle interface {
	Name() string // Display name of the device.
	Start() error // Begins delivering raw messages to the callback given to Open.
	Stop() error  // Stops delivery; no callback runs after Stop returns.
	Close() error // Releases the platform handle. Must be called after Stop.
}

// Driver is the platform abstraction for enumerating and opening MIDI inputs.
type Driver interface {
	ListDevices() ([]DeviceInfo, error)                                      // Lists inputs in enumeration order.
	Open(device DeviceInfo, onMessage func(raw []byte)) (InputHandle, error) // Opens an input without starting it.
	Close() error                                                            // Releases the driver.
}

package hal

// PinCapability is a bitmask of what a physical header pin can be
// requested as.
type PinCapability int

const (
	CapGPIO PinCapability = 1 << iota
	CapPWM
	CapI2C
	CapSPI
	CapUART
)

// PinInfo describes one physical header pin on the 40-pin Raspberry Pi
// GPIO header.
type PinInfo struct {
	Physical     int
	BCM          int
	Name         string
	Capabilities PinCapability
}

// RaspberryPiPinMap is the standard 40-pin header layout, keyed by
// physical pin number.
var RaspberryPiPinMap = map[int]*PinInfo{
	3:  {Physical: 3, BCM: 2, Name: "GPIO2 (SDA1)", Capabilities: CapGPIO | CapI2C},
	5:  {Physical: 5, BCM: 3, Name: "GPIO3 (SCL1)", Capabilities: CapGPIO | CapI2C},
	7:  {Physical: 7, BCM: 4, Name: "GPIO4 (GPCLK0)", Capabilities: CapGPIO},
	8:  {Physical: 8, BCM: 14, Name: "GPIO14 (TXD0)", Capabilities: CapGPIO | CapUART},
	10: {Physical: 10, BCM: 15, Name: "GPIO15 (RXD0)", Capabilities: CapGPIO | CapUART},
	11: {Physical: 11, BCM: 17, Name: "GPIO17", Capabilities: CapGPIO},
	12: {Physical: 12, BCM: 18, Name: "GPIO18 (PWM0)", Capabilities: CapGPIO | CapPWM},
	13: {Physical: 13, BCM: 27, Name: "GPIO27", Capabilities: CapGPIO},
	15: {Physical: 15, BCM: 22, Name: "GPIO22", Capabilities: CapGPIO},
	16: {Physical: 16, BCM: 23, Name: "GPIO23", Capabilities: CapGPIO},
	18: {Physical: 18, BCM: 24, Name: "GPIO24", Capabilities: CapGPIO},
	19: {Physical: 19, BCM: 10, Name: "GPIO10 (MOSI)", Capabilities: CapGPIO | CapSPI},
	21: {Physical: 21, BCM: 9, Name: "GPIO9 (MISO)", Capabilities: CapGPIO | CapSPI},
	22: {Physical: 22, BCM: 25, Name: "GPIO25", Capabilities: CapGPIO},
	23: {Physical: 23, BCM: 11, Name: "GPIO11 (SCLK)", Capabilities: CapGPIO | CapSPI},
	24: {Physical: 24, BCM: 8, Name: "GPIO8 (CE0)", Capabilities: CapGPIO | CapSPI},
	26: {Physical: 26, BCM: 7, Name: "GPIO7 (CE1)", Capabilities: CapGPIO | CapSPI},
	29: {Physical: 29, BCM: 5, Name: "GPIO5", Capabilities: CapGPIO},
	31: {Physical: 31, BCM: 6, Name: "GPIO6", Capabilities: CapGPIO},
	32: {Physical: 32, BCM: 12, Name: "GPIO12 (PWM0)", Capabilities: CapGPIO | CapPWM},
	33: {Physical: 33, BCM: 13, Name: "GPIO13 (PWM1)", Capabilities: CapGPIO | CapPWM},
	35: {Physical: 35, BCM: 19, Name: "GPIO19 (PWM1)", Capabilities: CapGPIO | CapPWM},
	36: {Physical: 36, BCM: 16, Name: "GPIO16", Capabilities: CapGPIO},
	37: {Physical: 37, BCM: 26, Name: "GPIO26", Capabilities: CapGPIO},
	38: {Physical: 38, BCM: 20, Name: "GPIO20", Capabilities: CapGPIO},
	40: {Physical: 40, BCM: 21, Name: "GPIO21", Capabilities: CapGPIO},
}

// GetPinInfo looks up a pin by its physical header position.
func GetPinInfo(physical int) *PinInfo {
	return RaspberryPiPinMap[physical]
}

// GetPWMPins lists every physical pin wired to a hardware PWM channel —
// the pins a GPIO egress backend should prefer for ws281x output.
func GetPWMPins() []int {
	pins := make([]int, 0)
	for physical, pin := range RaspberryPiPinMap {
		if pin.Capabilities&CapPWM != 0 {
			pins = append(pins, physical)
		}
	}
	return pins
}

// ValidateOutputPin reports whether physical names a pin at all (egress
// config validation rejects header positions that don't exist before
// ever touching hardware).
func ValidateOutputPin(physical int) bool {
	_, ok := RaspberryPiPinMap[physical]
	return ok
}

// IsPWMCapable reports whether physical is wired to a hardware PWM channel.
func IsPWMCapable(physical int) bool {
	pin := GetPinInfo(physical)
	return pin != nil && pin.Capabilities&CapPWM != 0
}

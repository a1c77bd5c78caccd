// Package gpio reads the two push buttons with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads button states.
type Reader interface {
	// Read returns the logical states of buttons A and B.
	// The buttons pull their lines to ground: raw low = pressed.
	// Returns (aPressed, bPressed, error).
	Read() (bool, bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Default pin definitions (BCM numbering).
const (
	DefaultChip = "gpiochip0" // Character device under /dev
	DefaultPinA = 5           // Button A
	DefaultPinB = 6           // Button B
)

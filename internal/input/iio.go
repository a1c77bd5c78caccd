package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultIIODevice is the first ADC exposed by the Linux IIO subsystem.
const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

// IIOAnalog reads raw ADC values from a Linux IIO device directory.
type IIOAnalog struct {
	dir string
}

// NewIIOAnalog checks that dir exists and returns a reader for it.
func NewIIOAnalog(dir string) (*IIOAnalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open iio device: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open iio device: %s is not a directory", dir)
	}
	return &IIOAnalog{dir: dir}, nil
}

// ReadAnalog returns the raw value of in_voltage<channel>_raw.
func (a *IIOAnalog) ReadAnalog(channel int) (int, error) {
	path := filepath.Join(a.dir, fmt.Sprintf("in_voltage%d_raw", channel))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read channel %d: %w", channel, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse channel %d: %w", channel, err)
	}
	return v, nil
}

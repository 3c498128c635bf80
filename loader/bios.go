package loader

import (
	"fmt"
	"os"

	"github.com/sarchlab/psxsim/bus"
)

// LoadBIOS reads a BIOS image. The image must be exactly bus.BIOSSize
// bytes.
func LoadBIOS(path string) (*bus.Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read BIOS: %w", err)
	}

	bios, err := bus.NewBIOS(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bios, nil
}

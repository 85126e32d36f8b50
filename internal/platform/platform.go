// Package platform identifies the AMD host bridges of the running system
// through sysfs and the pci.ids database.
package platform

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	pciDevicesPath = "bus/pci/devices"
	amdVendorID    = "1022"
	hostBridgeCode = "0600"
)

// Bridge describes one AMD root complex found under sysfs.
type Bridge struct {
	Slot   string `json:"slot"`
	PCIID  string `json:"pci_id"`
	Name   string `json:"name"`
	Vendor string `json:"vendor,omitempty"`
	Class  string `json:"class,omitempty"`
}

// Discover lists AMD host bridges under root (normally /sys), sorted by slot.
// A missing PCI bus directory yields no bridges and no error.
func Discover(root string, logger *slog.Logger) ([]Bridge, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sysRoot, err := os.OpenRoot(root)
	if err != nil {
		return nil, fmt.Errorf("open sysfs root: %w", err)
	}
	defer sysRoot.Close()

	entries, err := fs.ReadDir(sysRoot.FS(), pciDevicesPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("pci devices path missing", "path", filepath.Join(root, pciDevicesPath))
			return nil, nil
		}
		return nil, fmt.Errorf("read pci devices dir: %w", err)
	}

	var bridges []Bridge
	for _, entry := range entries {
		slot := entry.Name()
		if !entry.IsDir() && entry.Type()&os.ModeSymlink == 0 {
			continue
		}

		devRoot, err := sysRoot.OpenRoot(filepath.Join(pciDevicesPath, slot))
		if err != nil {
			logger.Debug("failed to open pci device", "slot", slot, "err", err)
			continue
		}
		bridge, ok := loadBridge(slot, devRoot)
		if err := devRoot.Close(); err != nil {
			logger.Debug("failed to close pci device", "slot", slot, "err", err)
		}
		if ok {
			bridges = append(bridges, bridge)
		}
	}

	slices.SortFunc(bridges, func(a, b Bridge) int { return strings.Compare(a.Slot, b.Slot) })
	return bridges, nil
}

// Describe returns the name of the first bridge, or "" when none is known.
func Describe(bridges []Bridge) string {
	for _, b := range bridges {
		if b.Name != "" {
			return b.Name
		}
	}
	return ""
}

func loadBridge(slot string, devRoot *os.Root) (Bridge, bool) {
	vendor, err := readTrim(devRoot, "vendor")
	if err != nil || normalizePCIID(vendor) != amdVendorID {
		return Bridge{}, false
	}
	class, err := readTrim(devRoot, "class")
	classCode := normalizePCIID(class)
	if err != nil || !strings.HasPrefix(classCode, hostBridgeCode) {
		return Bridge{}, false
	}
	device, err := readTrim(devRoot, "device")
	if err != nil {
		return Bridge{}, false
	}

	subVendor, _ := readTrim(devRoot, "subsystem_vendor")
	subDevice, _ := readTrim(devRoot, "subsystem_device")

	vendorID, deviceID := normalizePCIID(vendor), normalizePCIID(device)
	names := lookupNames(vendorID, deviceID, classCode, subVendor, subDevice)
	return Bridge{
		Slot:   slot,
		PCIID:  vendorID + ":" + deviceID,
		Name:   names.Product,
		Vendor: names.Vendor,
		Class:  names.Class,
	}, true
}

func readTrim(root *os.Root, name string) (string, error) {
	data, err := root.ReadFile(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

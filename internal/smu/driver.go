package smu

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// DefaultRoot is where the ryzen_smu driver publishes its sysfs interface.
const DefaultRoot = "/sys/kernel/ryzen_smu_drv"

const (
	pmTableFilename        = "pm_table"
	pmTableVersionFilename = "pm_table_version"
	pmTableSizeFilename    = "pm_table_size"
	firmwareFilename       = "version"
	mp1IfVersionFilename   = "mp1_if_version"
	codenameFilename       = "codename"
	driverVersionFilename  = "drv_version"
	smnFilename            = "smn"
)

var codenames = [...]string{
	"Undefined",
	"Colfax",
	"Renoir",
	"Picasso",
	"Matisse",
	"Threadripper",
	"Castle Peak",
	"Raven Ridge",
	"Raven Ridge 2",
	"Summit Ridge",
	"Pinnacle Ridge",
	"Rembrandt",
	"Vermeer",
	"Van Gogh",
	"Cezanne",
	"Milan",
	"Dali",
}

// Info describes the SMU behind a driver.
type Info struct {
	Firmware      uint32 `json:"firmware"`
	Codename      int    `json:"codename"`
	MP1IFVersion  int    `json:"mp1_if_version"`
	DriverVersion string `json:"driver_version,omitempty"`
}

// FirmwareString formats the firmware as major.minor.patch.
func (i Info) FirmwareString() string {
	return fmt.Sprintf("%d.%d.%d", (i.Firmware>>16)&0xff, (i.Firmware>>8)&0xff, i.Firmware&0xff)
}

// CodenameString maps the driver codename index to a name.
func (i Info) CodenameString() string {
	if i.Codename < 0 || i.Codename >= len(codenames) {
		return codenames[0]
	}
	return codenames[i.Codename]
}

// Driver reads PM tables and SMN registers through the ryzen_smu sysfs files.
type Driver struct {
	root    string
	version uint32
	size    int
	table   *os.File
	logger  *slog.Logger

	smnMu sync.Mutex
}

var _ Source = (*Driver)(nil)

// OpenDriver probes root for the ryzen_smu interface. Missing files are
// reported as ErrUnsupported so callers can tell "no driver" from I/O faults.
func OpenDriver(root string, logger *slog.Logger) (*Driver, error) {
	if root == "" {
		root = DefaultRoot
	}
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found, is the ryzen_smu module loaded?", ErrUnsupported, root)
		}
		return nil, fmt.Errorf("stat smu root: %w", err)
	}

	version, err := readUint(filepath.Join(root, pmTableVersionFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: PM table not exposed by this driver", ErrUnsupported)
		}
		return nil, fmt.Errorf("read pm table version: %w", err)
	}

	table, err := os.Open(filepath.Join(root, pmTableFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: PM table not exposed by this driver", ErrUnsupported)
		}
		return nil, fmt.Errorf("open pm table: %w", err)
	}

	size, err := readUint(filepath.Join(root, pmTableSizeFilename))
	if err != nil {
		logger.Debug("pm table size unavailable, probing table", "err", err)
		probed, probeErr := io.ReadAll(io.NewSectionReader(table, 0, 1<<20))
		if probeErr != nil {
			_ = table.Close()
			return nil, fmt.Errorf("probe pm table size: %w", probeErr)
		}
		size = uint64(len(probed))
	}
	if size == 0 {
		_ = table.Close()
		return nil, fmt.Errorf("%w: PM table reports zero size", ErrUnsupported)
	}

	d := &Driver{
		root:    root,
		version: uint32(version),
		size:    int(size),
		table:   table,
		logger:  logger.With("component", "smu_driver"),
	}
	d.logger.Debug("smu driver opened", "root", root, "pm_table_version", fmt.Sprintf("0x%06x", d.version), "pm_table_size", d.size)
	return d, nil
}

func (d *Driver) Version() uint32 { return d.version }
func (d *Driver) Size() int       { return d.size }

// Read fills buf with a fresh PM table.
func (d *Driver) Read(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(buf) < d.size {
		return fmt.Errorf("buffer holds %d bytes, pm table has %d", len(buf), d.size)
	}
	n, err := d.table.ReadAt(buf[:d.size], 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == d.size) {
		return fmt.Errorf("read pm table: %w", err)
	}
	if n < d.size {
		return fmt.Errorf("short pm table read: %d of %d bytes", n, d.size)
	}
	return nil
}

// Info reads the firmware, codename and interface version files.
func (d *Driver) Info() (Info, error) {
	var info Info

	fw, err := readUint(filepath.Join(d.root, firmwareFilename))
	if err != nil {
		return Info{}, fmt.Errorf("read smu firmware version: %w", err)
	}
	info.Firmware = uint32(fw)

	if codename, err := readUint(filepath.Join(d.root, codenameFilename)); err == nil {
		info.Codename = int(codename)
	} else {
		d.logger.Debug("codename unavailable", "err", err)
	}

	if ifVersion, err := readUint(filepath.Join(d.root, mp1IfVersionFilename)); err == nil {
		info.MP1IFVersion = mp1Version(ifVersion)
	} else {
		d.logger.Debug("mp1 interface version unavailable", "err", err)
	}

	if raw, err := os.ReadFile(filepath.Join(d.root, driverVersionFilename)); err == nil {
		info.DriverVersion = strings.TrimSpace(string(raw))
	}

	return info, nil
}

// ReadSMN reads one 32-bit register from the system management network.
func (d *Driver) ReadSMN(addr uint32) (uint32, error) {
	d.smnMu.Lock()
	defer d.smnMu.Unlock()

	f, err := os.OpenFile(filepath.Join(d.root, smnFilename), os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("open smn: %w", err)
	}
	defer f.Close()

	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], addr)
	if _, err := f.Write(word[:]); err != nil {
		return 0, fmt.Errorf("write smn address 0x%08x: %w", addr, err)
	}
	if _, err := f.ReadAt(word[:], 0); err != nil {
		return 0, fmt.Errorf("read smn 0x%08x: %w", addr, err)
	}
	return binary.LittleEndian.Uint32(word[:]), nil
}

// Close releases the PM table handle.
func (d *Driver) Close() error {
	if d.table == nil {
		return nil
	}
	err := d.table.Close()
	d.table = nil
	return err
}

// mp1Version maps the driver's interface enum (0 = v9) to a version number.
func mp1Version(raw uint64) int {
	if raw > 4 {
		return 0
	}
	return int(raw) + 9
}

// readUint decodes a sysfs value stored either as text (decimal or 0x hex)
// or as a little-endian binary word of 4 or 8 bytes.
func readUint(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return parseUint(data)
}

func parseUint(data []byte) (uint64, error) {
	if isText(data) {
		value := strings.TrimSpace(string(data))
		if value == "" {
			return 0, fmt.Errorf("empty value")
		}
		v, err := strconv.ParseUint(value, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("parse uint: %w", err)
		}
		return v, nil
	}

	switch len(data) {
	case 4:
		return uint64(binary.LittleEndian.Uint32(data)), nil
	case 8:
		return binary.LittleEndian.Uint64(data), nil
	default:
		return 0, fmt.Errorf("unexpected binary value of %d bytes", len(data))
	}
}

func isText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for _, b := range data {
		if b == '\n' || b == ' ' || b == '\t' {
			continue
		}
		if b < 0x21 || b > 0x7e {
			return false
		}
	}
	return true
}

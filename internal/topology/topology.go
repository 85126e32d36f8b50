// Package topology discovers the CCD/CCX layout and the fused-off cores of a
// Ryzen package from CPUID and SMN fuse registers.
package topology

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/klauspost/cpuid/v2"

	"github.com/skobkin/ryzenmon/internal/metrics"
)

const (
	ccdFusePresent    = 0x5d218
	ccdFuseDown       = 0x5d21c
	zen2FuseShift     = 0x40
	coreDisableBase   = 0x30081800
	coreDisableOffset = 0x238
	zen3DisableOffset = 0x598
	secondCCDBit      = 0x2000000
	coresPerCCD       = 8
)

// SMNReader reads 32-bit registers from the system management network.
type SMNReader interface {
	ReadSMN(addr uint32) (uint32, error)
}

// CPU is the subset of CPUID the fuse decode depends on.
type CPU struct {
	Brand          string
	Family         int
	Model          int
	LogicalCores   int
	ThreadsPerCore int
}

// Host returns the CPUID data of the running processor.
func Host() CPU {
	return CPU{
		Brand:          strings.TrimSpace(cpuid.CPU.BrandName),
		Family:         cpuid.CPU.Family,
		Model:          cpuid.CPU.Model,
		LogicalCores:   cpuid.CPU.LogicalCores,
		ThreadsPerCore: cpuid.CPU.ThreadsPerCore,
	}
}

// IsAMD reports whether the running processor is an AMD part.
func IsAMD() bool {
	return cpuid.CPU.VendorID == cpuid.AMD
}

// Cores returns the physical core count.
func (c CPU) Cores() int {
	if c.ThreadsPerCore <= 0 {
		return c.LogicalCores
	}
	return c.LogicalCores / c.ThreadsPerCore
}

// Topology is the decoded package layout.
type Topology struct {
	Cores        int    `json:"cores"`
	CCDs         int    `json:"ccds"`
	CCXs         int    `json:"ccxs"`
	CoresPerCCX  int    `json:"cores_per_ccx"`
	EnabledCores int    `json:"enabled_cores"`
	DisabledMap  uint32 `json:"disabled_map"`

	// CCDEnableMap is the raw bitmap of populated CCDs.
	CCDEnableMap uint32 `json:"ccd_enable_map"`

	// EnabledCountUnverified marks an EnabledCores value derived from fuse
	// semantics nobody has checked on real hardware.
	EnabledCountUnverified bool `json:"enabled_count_unverified,omitempty"`
}

// Metrics converts the layout into the form the metrics computer consumes.
func (t Topology) Metrics() metrics.Topology {
	return metrics.Topology{Cores: t.Cores, DisabledMap: uint64(t.DisabledMap)}
}

// FuseAddresses returns the CCD fuse and core-disable register addresses
// for a CPU family and model.
func FuseAddresses(family, model int) (present, down, coreDisable uint32) {
	present, down = ccdFusePresent, ccdFuseDown
	offset := uint32(coreDisableOffset)

	switch {
	case family == 0x19:
		offset = zen3DisableOffset
	case family == 0x17 && model != 0x71:
		present += zen2FuseShift
		down += zen2FuseShift
	}
	return present, down, coreDisableBase + offset
}

// Read decodes the topology of cpu through smn. zen is the core generation
// of the bound PM table layout (2 or 3).
func Read(smn SMNReader, cpu CPU, zen int) (Topology, error) {
	presentAddr, _, disableAddr := FuseAddresses(cpu.Family, cpu.Model)

	present, err := smn.ReadSMN(presentAddr)
	if err != nil {
		return Topology{}, fmt.Errorf("read ccd fuse: %w", err)
	}

	ccdEnable := (present >> 22) & 0xff

	var disabled uint32
	if ccdEnable&0x01 != 0 {
		word, err := smn.ReadSMN(disableAddr)
		if err != nil {
			return Topology{}, fmt.Errorf("read core disable fuse: %w", err)
		}
		disabled |= word & 0xff
	}
	if ccdEnable&0x02 != 0 {
		word, err := smn.ReadSMN(disableAddr | secondCCDBit)
		if err != nil {
			return Topology{}, fmt.Errorf("read core disable fuse: %w", err)
		}
		disabled |= (word & 0xff) << 8
	}

	return Decode(cpu.Cores(), ccdEnable, disabled, zen), nil
}

// Decode derives the layout from already-read fuse values.
func Decode(cores int, ccdEnable, disabled uint32, zen int) Topology {
	t := Topology{
		Cores:        cores,
		CCDs:         bits.OnesCount32(ccdEnable),
		DisabledMap:  disabled,
		CCDEnableMap: ccdEnable,
	}

	firstCCD := coresPerCCD - bits.OnesCount32(disabled&0xff)
	// Verified on Zen 3 only. The Zen 2 meaning of the core-disable fuse is
	// unconfirmed, and older tools counted the complement of this map there
	// instead, so Zen 2 results carry EnabledCountUnverified.
	t.EnabledCores = coresPerCCD*t.CCDs - bits.OnesCount32(disabled)
	t.EnabledCountUnverified = zen != 3

	if zen == 3 {
		// One CCX per CCD, so CCXs is reported as zero.
		t.CoresPerCCX = firstCCD
		return t
	}

	t.CoresPerCCX = firstCCD / 2
	if cores == t.CoresPerCCX {
		t.CCXs = 1
	} else {
		t.CCXs = t.CCDs * 2
	}
	return t
}

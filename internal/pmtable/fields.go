package pmtable

// Names of the fields read outside this package. Layouts may declare many
// more; those are still reachable by name through Table.Get.
const (
	PPTLimit     = "PPT_LIMIT"
	PPTValue     = "PPT_VALUE"
	PPTLimitAPU  = "PPT_LIMIT_APU"
	PPTValueAPU  = "PPT_VALUE_APU"
	PPTLimitFast = "PPT_LIMIT_FAST"
	PPTValueFast = "PPT_VALUE_FAST"
	TDCLimit     = "TDC_LIMIT"
	TDCValue     = "TDC_VALUE"
	TDCActual    = "TDC_ACTUAL"
	TDCLimitSoC  = "TDC_LIMIT_SOC"
	TDCValueSoC  = "TDC_VALUE_SOC"
	THMLimit     = "THM_LIMIT"
	THMValue     = "THM_VALUE"
	THMLimitSoC  = "THM_LIMIT_SOC"
	THMValueSoC  = "THM_VALUE_SOC"
	THMLimitGFX  = "THM_LIMIT_GFX"
	THMValueGFX  = "THM_VALUE_GFX"
	FITLimit     = "FIT_LIMIT"
	FITValue     = "FIT_VALUE"
	EDCLimit     = "EDC_LIMIT"
	EDCValue     = "EDC_VALUE"
	EDCLimitSoC  = "EDC_LIMIT_SOC"
	EDCValueSoC  = "EDC_VALUE_SOC"
	VIDLimit     = "VID_LIMIT"
	VIDValue     = "VID_VALUE"

	VDDCRCPUPower    = "VDDCR_CPU_POWER"
	VDDCRSoCPower    = "VDDCR_SOC_POWER"
	VDDIOMemPower    = "VDDIO_MEM_POWER"
	VDD18Power       = "VDD18_POWER"
	IOVDD18Power     = "IO_VDD18_POWER"
	ROCPower         = "ROC_POWER"
	SocketPower      = "SOCKET_POWER"
	PackagePower     = "PACKAGE_POWER"
	DDRVDDPPower     = "DDR_VDDP_POWER"
	DDRPhyPower      = "DDR_PHY_POWER"
	GMI2VDDGPower    = "GMI2_VDDG_POWER"
	IOVDDCRSoCPower  = "IO_VDDCR_SOC_POWER"
	IODVDDIOMemPower = "IOD_VDDIO_MEM_POWER"
	IODisplayPower   = "IO_DISPLAY_POWER"
	IOUSBPower       = "IO_USB_POWER"

	CPUTelemetryVoltage = "CPU_TELEMETRY_VOLTAGE"
	CPUTelemetryCurrent = "CPU_TELEMETRY_CURRENT"
	CPUTelemetryPower   = "CPU_TELEMETRY_POWER"
	SoCTelemetryVoltage = "SOC_TELEMETRY_VOLTAGE"
	SoCTelemetryCurrent = "SOC_TELEMETRY_CURRENT"
	SoCTelemetryPower   = "SOC_TELEMETRY_POWER"

	FCLKFreq    = "FCLK_FREQ"
	FCLKFreqEff = "FCLK_FREQ_EFF"
	UCLKFreq    = "UCLK_FREQ"
	MEMCLKFreq  = "MEMCLK_FREQ"
	VVDDM       = "V_VDDM"
	VVDDP       = "V_VDDP"
	VVDDG       = "V_VDDG"
	VVDDGIOD    = "V_VDDG_IOD"
	VVDDGCCD    = "V_VDDG_CCD"

	PeakTemp = "PEAK_TEMP"
	SoCTemp  = "SOC_TEMP"
	PC6      = "PC6"

	GFXTemp         = "GFX_TEMP"
	GFXVoltage      = "GFX_VOLTAGE"
	GFXFreq         = "GFX_FREQ"
	GFXFreqEff      = "GFX_FREQEFF"
	GFXBusy         = "GFX_BUSY"
	GFXEDCLimit     = "GFX_EDC_LIM"
	GFXEDCResidency = "GFX_EDC_RESIDENCY"
	DisplayCount    = "DISPLAY_COUNT"
	FPS             = "FPS"
	DGPUPower       = "DGPU_POWER"
	DGPUFreqTarget  = "DGPU_FREQ_TARGET"
	DGPUBusy        = "DGPU_GFX_BUSY"

	CorePower   = "CORE_POWER"
	CoreVoltage = "CORE_VOLTAGE"
	CoreTemp    = "CORE_TEMP"
	CoreFreq    = "CORE_FREQ"
	CoreFreqEff = "CORE_FREQEFF"
	CoreC0      = "CORE_C0"
	CoreCC1     = "CORE_CC1"
	CoreCC6     = "CORE_CC6"

	L3LogicPower = "L3_LOGIC_POWER"
	L3VDDMPower  = "L3_VDDM_POWER"
)

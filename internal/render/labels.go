package render

// datumLabels are the human-readable row labels of the box table.
var datumLabels = [datumCount]string{
	DatumModel:        "CPU Model",
	DatumCodename:     "Processor Code Name",
	DatumCores:        "Cores",
	DatumCCDs:         "Core CCDs",
	DatumCCXs:         "Core CCXs",
	DatumCoresPerCCX:  "Cores Per CCX",
	DatumCoresPerCCD:  "Cores Per CCD",
	DatumSMUFirmware:  "SMU FW Version",
	DatumMP1IFVersion: "MP1 IF Version",

	DatumPeakCoreFreq:    "Highest Effective Core Frequency",
	DatumPeakCoreTemp:    "Highest Core Temperature",
	DatumPeakCoreVoltage: "Highest Core Voltage",
	DatumAvgCoreVoltage:  "Average Core Voltage",
	DatumAvgCoreC6:       "Average Core CC6",
	DatumTotalCorePower:  "Total Core Power Sum",

	DatumPeakCoreVoltageSMU: "Peak Core Voltage",
	DatumPackageC6SMU:       "Package CC6",

	DatumPeakTemp:       "Peak Temperature",
	DatumSoCTemp:        "SoC Temperature",
	DatumGFXTemp:        "GFX Temperature",
	DatumCoreVRMVoltage: "Voltage from Core VRM",
	DatumPPT:            "PPT",
	DatumPPTAPU:         "PPT APU",
	DatumTDCNominal:     "TDC Value",
	DatumTDCActual:      "TDC Actual",
	DatumTDCSoCNominal:  "TDC Value, SoC only",
	DatumEDC:            "EDC",
	DatumEDCSoC:         "EDC, SoC only",
	DatumTHM:            "THM",
	DatumTHMSoC:         "THM SoC",
	DatumTHMGFX:         "THM GFX",
	DatumFIT:            "FIT",

	DatumMemoryCoupled: "Coupled Mode",
	DatumFCLKAvg:       "Fabric Clock (Average)",
	DatumFCLK:          "Fabric Clock",
	DatumUCLK:          "Uncore Clock",
	DatumMCLK:          "Memory Clock",
	DatumVDDM:          "cLDO_VDDM",
	DatumVDDP:          "cLDO_VDDP",
	DatumVDDG:          "cLDO_VDDG",
	DatumVDDGIOD:       "cLDO_VDDG_IOD",
	DatumVDDGCCD:       "cLDO_VDDG_CCD",

	DatumGFXVoltageROCPower:         "GFX Voltage | ROC Power",
	DatumGFXFreqRealEff:             "GFX Clock Real | Effective",
	DatumGFXBusy:                    "GFX Busy",
	DatumGFXEDCLimitResidency:       "GFX EDC Limit | Residency",
	DatumGFXDisplayCountFPS:         "Display Count | FPS",
	DatumGFXDGPUPowerFreqTargetBusy: "DGPU Power | Freq Target | Busy",

	DatumVDDCRSoCPower:    "VDDCR_SOC Power",
	DatumIOVDDCRSoCPower:  "IO VDDCR_SOC Power",
	DatumGMI2VDDGPower:    "GMI2_VDDG Power",
	DatumROCPower:         "ROC Power",
	DatumL3LogicPower:     "L3 Logic Power",
	DatumL3VDDMPower:      "L3 VDDM Power",
	DatumVDDIOMemPower:    "VDDIO_MEM Power",
	DatumIODVDDIOMemPower: "IOD_VDDIO_MEM Power",
	DatumDDRVDDPPower:     "DDR_VDDP Power",
	DatumDDRPhyPower:      "DDR Phy Power",
	DatumVDD18Power:       "VDD18 Power",
	DatumIODisplayPower:   "CPU Display IO Power",
	DatumIOUSBPower:       "CPU USB IO Power",
	DatumThermalOutput:    "Calculated Thermal Output",

	DatumSVI2SoC:         "SoC Power (SVI2)",
	DatumSVI2Core:        "Core Power (SVI2)",
	DatumSMUCorePower:    "Core Power (SMU)",
	DatumSMUSocketPower:  "Socket Power (SMU)",
	DatumSMUPackagePower: "Package Power (SMU)",
}

var groupKeys = [groupCount]string{
	GroupSysInfo:       "sysinfo",
	GroupCores:         "cores",
	GroupCoreStatsCalc: "core_stats_calc",
	GroupCoreStatsSMU:  "core_stats_reports",
	GroupLimits:        "limits",
	GroupMemory:        "memory",
	GroupGraphics:      "graphics",
	GroupPower:         "power",
	GroupPowerReports:  "power_reports",
}

// datumKeys are the JSON object keys. Split datums have no key of their own.
var datumKeys = [datumCount]string{
	DatumModel:        "model",
	DatumCodename:     "codename",
	DatumCores:        "cores",
	DatumCCDs:         "ccds",
	DatumCCXs:         "ccxs",
	DatumCoresPerCCX:  "cores_per_ccx",
	DatumCoresPerCCD:  "cores_per_ccd",
	DatumSMUFirmware:  "smu_firmware_version",
	DatumMP1IFVersion: "mp1_if_version",

	DatumPeakCoreFreq:    "peak_freq",
	DatumPeakCoreTemp:    "peak_temp",
	DatumPeakCoreVoltage: "peak_voltage",
	DatumAvgCoreVoltage:  "avg_voltage",
	DatumAvgCoreC6:       "avg_cc6",
	DatumTotalCorePower:  "total_power",

	DatumPeakCoreVoltageSMU: "smu_peak_voltage",
	DatumPackageC6SMU:       "smu_package_c6",

	DatumPeakTemp:       "peak_temp",
	DatumSoCTemp:        "soc_temp",
	DatumGFXTemp:        "gfx_temp",
	DatumCoreVRMVoltage: "core_voltage",
	DatumPPT:            "ppt",
	DatumPPTAPU:         "ppt_apu",
	DatumTDCNominal:     "tdc_nominal",
	DatumTDCActual:      "tdc_actual",
	DatumTDCSoCNominal:  "tdc_soc_nominal",
	DatumEDC:            "edc",
	DatumEDCSoC:         "edc_soc",
	DatumTHM:            "thm",
	DatumTHMSoC:         "thm_soc",
	DatumTHMGFX:         "thm_gfx",
	DatumFIT:            "fit",

	DatumMemoryCoupled: "coupled",
	DatumFCLKAvg:       "fclk_avg",
	DatumFCLK:          "fclk",
	DatumUCLK:          "uclk",
	DatumMCLK:          "mclk",
	DatumVDDM:          "cldo_vddm",
	DatumVDDP:          "cldo_vddp",
	DatumVDDG:          "cldo_vddg",
	DatumVDDGIOD:       "cldo_vddg_iod",
	DatumVDDGCCD:       "cldo_vddg_ccd",

	DatumGFXBusy: "busy",

	DatumVDDCRSoCPower:    "vddr_soc",
	DatumIOVDDCRSoCPower:  "io_vddr_soc",
	DatumGMI2VDDGPower:    "gmi2_vddg",
	DatumROCPower:         "roc",
	DatumL3LogicPower:     "l3_logic",
	DatumL3VDDMPower:      "l3_vddm",
	DatumVDDIOMemPower:    "vddio_mem",
	DatumIODVDDIOMemPower: "iod_vddio_mem",
	DatumDDRVDDPPower:     "ddr_vddp",
	DatumDDRPhyPower:      "ddr_phy",
	DatumVDD18Power:       "vdd18",
	DatumIODisplayPower:   "cpu_display_io",
	DatumIOUSBPower:       "cpu_usb_io",
	DatumThermalOutput:    "calc_total",

	DatumSVI2SoC:         "svi2_soc",
	DatumSVI2Core:        "svi2_core",
	DatumSMUCorePower:    "smu_core_power",
	DatumSMUSocketPower:  "smu_socket_power",
	DatumSMUPackagePower: "smu_package_power",
}

// splitKeys spread a multi-value datum over sibling keys of its group.
// An empty key drops that value.
var splitKeys = map[Datum][3]string{
	DatumGFXVoltageROCPower:         {"voltage", "roc_power"},
	DatumGFXFreqRealEff:             {"freq", "freq_effective"},
	DatumGFXEDCLimitResidency:       {"edc_limit", "edc_residency"},
	DatumGFXDisplayCountFPS:         {"display_count", "fps"},
	DatumGFXDGPUPowerFreqTargetBusy: {"dgpu_power", "dgpu_freq_target", "dgpu_busy"},
}

// fusedKeys nest a multi-value datum under its own key.
var fusedKeys = map[Datum][3]string{
	DatumSVI2SoC:  {"voltage", "current", "power"},
	DatumSVI2Core: {"voltage", "current", "power"},
}

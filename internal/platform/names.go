package platform

import (
	"strings"
	"sync"

	"github.com/jaypipes/pcidb"
)

// loadCatalog parses pci.ids once per process. A missing database leaves
// every name empty rather than failing discovery.
var loadCatalog = sync.OnceValues(func() (*pcidb.PCIDB, error) {
	return pcidb.New()
})

// deviceNames is what pci.ids knows about one function.
type deviceNames struct {
	Vendor  string
	Product string
	Class   string
}

func lookupNames(vendorID, deviceID, classCode, subVendorID, subDeviceID string) deviceNames {
	db, err := loadCatalog()
	if err != nil || db == nil {
		return deviceNames{}
	}

	var names deviceNames
	if vendor, ok := db.Vendors[vendorID]; ok && vendor != nil {
		names.Vendor = vendor.Name
	}
	names.Class = className(db, classCode)

	product, ok := db.Products[vendorID+deviceID]
	if !ok || product == nil {
		return names
	}
	names.Product = product.Name

	subVendorID = normalizePCIID(subVendorID)
	subDeviceID = normalizePCIID(subDeviceID)
	if subVendorID == "" || subDeviceID == "" {
		return names
	}
	for _, sub := range product.Subsystems {
		if sub != nil && sub.Name != "" && strings.EqualFold(sub.VendorID, subVendorID) && strings.EqualFold(sub.ID, subDeviceID) {
			names.Product = sub.Name
			break
		}
	}
	return names
}

// className resolves a six digit class code (class, subclass, prog-if) to
// the subclass name, falling back to the class name.
func className(db *pcidb.PCIDB, code string) string {
	if len(code) < 4 {
		return ""
	}
	class, ok := db.Classes[code[:2]]
	if !ok || class == nil {
		return ""
	}
	for _, sub := range class.Subclasses {
		if sub != nil && sub.ID == code[2:4] {
			return sub.Name
		}
	}
	return class.Name
}

func normalizePCIID(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.TrimPrefix(value, "0x")
	if value == "" {
		return ""
	}
	if len(value) < 4 {
		value = strings.Repeat("0", 4-len(value)) + value
	}
	return value
}

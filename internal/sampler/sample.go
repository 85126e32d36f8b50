package sampler

import (
	"time"

	"github.com/skobkin/ryzenmon/internal/metrics"
)

// Sample is one rendered PM table frame.
type Sample struct {
	Timestamp time.Time
	Version   uint32
	Snapshot  metrics.Snapshot

	// Document is the frame as a single JSON document, exactly as the json
	// output format writes it. Values that are not finite are already null.
	Document []byte
}

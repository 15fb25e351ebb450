package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BatchLabelPrefix starts the label put on every issue of one import run.
const BatchLabelPrefix = "import-batch-"

// NewBatchID returns a short id for one import run: the base-36 millisecond
// timestamp, a dash and eight hex digits. It is a local identifier, not a
// credential.
func NewBatchID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + random[:8]
}

// BatchLabel returns the label for batchID, or "" when batchID is empty.
func BatchLabel(batchID string) string {
	if batchID == "" {
		return ""
	}
	return BatchLabelPrefix + batchID
}

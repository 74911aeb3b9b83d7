package progress

import "fmt"

// OpType identifies the sync operation planned for a work item.
type OpType uint8

const (
	OpNone OpType = iota
	OpDownload
	OpUpload
	OpDelete
	OpRename
	OpConflict
	OpIgnore
	OpError
)

var opTypeNames = []string{
	"None",
	"Download",
	"Upload",
	"Delete",
	"Rename",
	"Conflict",
	"Ignore",
	"Error",
}

func (op OpType) String() string {
	if int(op) >= len(opTypeNames) {
		return "Unknown"
	}
	return opTypeNames[op]
}

// ActionString returns the present-tense verb for an in-flight operation,
// suitable for "downloading photos/cat.jpg" style status lines.
func (op OpType) ActionString() string {
	switch op {
	case OpDownload, OpConflict:
		return "downloading"
	case OpUpload:
		return "uploading"
	case OpDelete:
		return "deleting"
	case OpRename:
		return "moving"
	case OpIgnore:
		return "ignoring"
	case OpError:
		return "error"
	}
	return ""
}

// Status classifies the outcome reported for a finished work item.
type Status uint8

const (
	StatusNone Status = iota
	StatusSuccess
	StatusSoftError
	StatusNormalError
	StatusFatalError
	StatusIgnored
	StatusConflict
	StatusRestoration
)

// IsWarning reports whether the outcome should be surfaced as a warning to
// the user rather than folded silently into the run summary.
func (s Status) IsWarning() bool {
	switch s {
	case StatusSoftError, StatusNormalError, StatusFatalError,
		StatusIgnored, StatusConflict, StatusRestoration:
		return true
	}
	return false
}

func (s Status) IsIgnored() bool {
	return s == StatusIgnored
}

// WorkItem is one file or directory entry subject to a sync operation,
// keyed by its path (unique within a run).
type WorkItem struct {
	Path         string `json:"path"`
	Size         uint64 `json:"size"`
	IsDirectory  bool   `json:"isDirectory"`
	Op           OpType `json:"op"`
	Status       Status `json:"status"`
	RenameTarget string `json:"renameTarget,omitempty"`

	// AffectedItems is the number of logical entries this operation stands
	// for (a rename pair counts as two). Zero is treated as one.
	AffectedItems uint64 `json:"affectedItems,omitempty"`
}

// SizeDependent reports whether the item contributes to byte-based progress.
// Only plain files with an actual transfer operation move bytes; directories,
// deletes and renames are metadata-only.
func (i WorkItem) SizeDependent() bool {
	if i.IsDirectory {
		return false
	}
	switch i.Op {
	case OpDownload, OpUpload, OpConflict:
		return true
	}
	return false
}

// ResultString returns the past-tense outcome for a finished item.
func (i WorkItem) ResultString() string {
	switch i.Op {
	case OpDownload:
		return "Downloaded"
	case OpUpload:
		return "Uploaded"
	case OpConflict:
		return "Downloaded, renamed conflicting file"
	case OpDelete:
		return "Deleted"
	case OpRename:
		return fmt.Sprintf("Moved to %s", i.RenameTarget)
	case OpIgnore:
		return "Ignored"
	case OpError:
		return "Error"
	}
	return "Unknown"
}

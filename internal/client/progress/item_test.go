package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkItem_SizeDependent(t *testing.T) {
	tests := []struct {
		name string
		item WorkItem
		want bool
	}{
		{"file upload", WorkItem{Op: OpUpload, Size: 10}, true},
		{"file download", WorkItem{Op: OpDownload, Size: 10}, true},
		{"conflict download", WorkItem{Op: OpConflict, Size: 10}, true},
		{"file delete", WorkItem{Op: OpDelete, Size: 10}, false},
		{"file rename", WorkItem{Op: OpRename}, false},
		{"no-op file", WorkItem{Op: OpNone, Size: 10}, false},
		{"directory upload", WorkItem{Op: OpUpload, IsDirectory: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.SizeDependent())
		})
	}
}

func TestOpType_Strings(t *testing.T) {
	assert.Equal(t, "Upload", OpUpload.String())
	assert.Equal(t, "Unknown", OpType(200).String())

	assert.Equal(t, "uploading", OpUpload.ActionString())
	assert.Equal(t, "downloading", OpConflict.ActionString())
	assert.Equal(t, "deleting", OpDelete.ActionString())
	assert.Equal(t, "", OpNone.ActionString())
}

func TestWorkItem_ResultString(t *testing.T) {
	assert.Equal(t, "Downloaded", WorkItem{Op: OpDownload}.ResultString())
	assert.Equal(t, "Deleted", WorkItem{Op: OpDelete}.ResultString())
	assert.Equal(t, "Moved to docs/new.txt",
		WorkItem{Op: OpRename, RenameTarget: "docs/new.txt"}.ResultString())
	assert.Equal(t, "Unknown", WorkItem{Op: OpNone}.ResultString())
}

func TestStatus_Warnings(t *testing.T) {
	for _, s := range []Status{
		StatusSoftError, StatusNormalError, StatusFatalError,
		StatusIgnored, StatusConflict, StatusRestoration,
	} {
		assert.True(t, s.IsWarning())
	}
	assert.False(t, StatusSuccess.IsWarning())
	assert.False(t, StatusNone.IsWarning())

	assert.True(t, StatusIgnored.IsIgnored())
	assert.False(t, StatusConflict.IsIgnored())
}

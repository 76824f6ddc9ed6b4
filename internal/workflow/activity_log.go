package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/SeakMengs/AutoSign/internal/model"
	"github.com/SeakMengs/AutoSign/internal/util"
)

const activityTimestampLayout = "2006-01-02 15:04:05 MST"

// Append adds an entry to the end of the template's log.
func Append(t *model.Template, at time.Time, message string) model.ActivityLogEntry {
	entry := model.ActivityLogEntry{Timestamp: at, Message: message}
	t.ActivityLog = append(t.ActivityLog, entry)
	return entry
}

// ExportActivityLog renders the log as a plain text file.
func ExportActivityLog(t *model.Template) (string, []byte, error) {
	if len(t.ActivityLog) == 0 {
		return "", nil, ErrNoActivity
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Activity Log for: %s\n", t.FileName)
	fmt.Fprintf(&sb, "Document ID: %s\n\n", t.ID)
	for _, e := range t.ActivityLog {
		fmt.Fprintf(&sb, "[%s] %s\n", e.Timestamp.Format(activityTimestampLayout), e.Message)
	}

	return ActivityLogFileName(t.FileName), []byte(sb.String()), nil
}

func ActivityLogFileName(fileName string) string {
	name := util.TrimPdfExt(fileName)
	if name == "" {
		name = "document"
	}
	return name + "-activity-log.txt"
}

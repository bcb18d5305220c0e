package integration

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/dawnworks/tracer/internal/errors"
	"github.com/dawnworks/tracer/internal/event"
	"github.com/dawnworks/tracer/internal/fsutil"
)

// ExportFileLayout is the time layout of generated export file names.
const ExportFileLayout = "20060102_150405"

// Export is the document written by Orchestrator.Export.
type Export struct {
	Statistics Statistics  `json:"integration_statistics"`
	History    []*Analysis `json:"analysis_history"`
	Timestamp  time.Time   `json:"timestamp"`
}

// DefaultExportName returns integration_data_YYYYMMDD_HHMMSS.json for t.
func DefaultExportName(t time.Time) string {
	return "integration_data_" + t.Format(ExportFileLayout) + ".json"
}

// Export writes current statistics and the most recent analyses to path as
// indented JSON and returns the path written. An empty path generates a name
// in the configured export directory. The write is atomic. Failures are
// logged, published and returned; they never touch routing state.
func (o *Orchestrator) Export(path string) (string, error) {
	now := o.now()
	if path == "" {
		path = filepath.Join(o.exportDir, DefaultExportName(now))
	}

	doc := Export{
		Statistics: o.Statistics(),
		History:    o.History(o.exportHistory),
		Timestamp:  now,
	}
	if doc.History == nil {
		doc.History = []*Analysis{}
	}

	if err := o.writeExport(path, doc); err != nil {
		o.logger.Error("export failed", "path", path, "error", err.Error())
		o.engine.Bus.Publish(event.NewExportCompletedEvent(path, false, err.Error()))
		return "", err
	}

	o.logger.Info("export written", "path", path, "analyses", len(doc.History))
	o.engine.Bus.Publish(event.NewExportCompletedEvent(path, true, ""))
	return path, nil
}

func (o *Orchestrator) writeExport(path string, doc Export) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.Join(errors.ErrExportFailed, err), "marshal export")
	}
	if err := fsutil.WriteFileAtomic(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(errors.Join(errors.ErrExportFailed, err), "write %s", path)
	}
	return nil
}

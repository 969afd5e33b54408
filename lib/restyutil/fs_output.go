package restyutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"catalog-backend/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const report_dump_write = "restyutil.dump"

// FilesystemOutput writes every message to its own numbered file in a
// directory, the directory is emptied when the output is created.
type FilesystemOutput struct {
	directory string
	counter   *atomic.Uint64
	tel       telemetry.API
}

func NewFilesystemOutput(dir string, tel telemetry.API) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{
		directory: dir,
		counter:   &atomic.Uint64{},
		tel:       tel,
	}, nil
}

func (o FilesystemOutput) Write(contents string) {
	id := o.counter.Add(1)
	path := filepath.Join(o.directory, fmt.Sprintf("%06d.txt", id))
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		o.tel.ReportWarning(report_dump_write, err, path)
	}
}

// DumpResponses writes every response the client receives to output.
func DumpResponses(client *resty.Client, output FilesystemOutput) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		output.Write(FormatMessage(res))
		return nil
	})
}

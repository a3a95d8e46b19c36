package repositories

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/stockdesk/app/submission"
	apihttp "github.com/shashiranjanraj/stockdesk/pkg/http"
	"github.com/shashiranjanraj/stockdesk/pkg/storage"
	"github.com/shashiranjanraj/stockdesk/pkg/validate"
)

// encodeForm maps a payload onto a multipart form. File parts stream from
// their storage disk on every send attempt.
func encodeForm(ctx context.Context, disks *storage.Manager, p *submission.Payload) *apihttp.Form {
	f := apihttp.NewForm()
	for _, fl := range p.Fields {
		f.Field(fl.Name, fl.Value)
	}
	for _, file := range p.Files {
		blob := file.Blob
		f.File(file.Name, blob.Filename(), func() (io.ReadCloser, error) {
			return disks.Open(ctx, blob.Disk, blob.Path)
		})
	}
	return f
}

// MissingBlobs checks every file part of p against storage and reports the
// ones that cannot be read, keyed by the draft field they came from.
func MissingBlobs(ctx context.Context, disks *storage.Manager, p *submission.Payload) validate.Errors {
	errs := validate.Errors{}
	for _, file := range p.Files {
		d, err := disks.Use(file.Blob.Disk)
		if err != nil {
			errs.Add(draftPath(file.Name), err.Error())
			continue
		}
		if !d.Exists(ctx, file.Blob.Path) {
			errs.Add(draftPath(file.Name), "File "+file.Blob.String()+" not found")
		}
	}
	return errs
}

// draftPath maps a file part name back onto the draft field path.
func draftPath(part string) string {
	if rest, ok := strings.CutPrefix(part, "variant_image_"); ok {
		if i, err := strconv.Atoi(rest); err == nil {
			return validate.Path("variants", i, "image")
		}
	}
	return part
}

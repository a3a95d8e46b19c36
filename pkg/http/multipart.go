package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Form is an ordered multipart/form-data body. Field order is preserved on
// the wire.
type Form struct {
	fields []formField
	files  []formFile
}

type formField struct{ name, value string }

type formFile struct {
	name     string
	filename string
	open     func() (io.ReadCloser, error)
}

func NewForm() *Form { return &Form{} }

// Field appends a text part.
func (f *Form) Field(name, value string) *Form {
	f.fields = append(f.fields, formField{name, value})
	return f
}

// File appends a binary part. open is called once per send attempt.
func (f *Form) File(name, filename string, open func() (io.ReadCloser, error)) *Form {
	f.files = append(f.files, formFile{name, filename, open})
	return f
}

// FieldNames lists text part names in order.
func (f *Form) FieldNames() []string {
	out := make([]string, len(f.fields))
	for i, fl := range f.fields {
		out[i] = fl.name
	}
	return out
}

// FileNames lists file part names in order.
func (f *Form) FileNames() []string {
	out := make([]string, len(f.files))
	for i, fl := range f.files {
		out[i] = fl.name
	}
	return out
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, fl := range f.fields {
		if err := w.WriteField(fl.name, fl.value); err != nil {
			return nil, "", fmt.Errorf("http: multipart field %s: %w", fl.name, err)
		}
	}
	for _, fl := range f.files {
		if err := writeFile(w, fl); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("http: multipart close: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, fl formFile) error {
	rc, err := fl.open()
	if err != nil {
		return fmt.Errorf("http: open %s: %w", fl.name, err)
	}
	defer rc.Close()

	part, err := w.CreateFormFile(fl.name, fl.filename)
	if err != nil {
		return fmt.Errorf("http: multipart file %s: %w", fl.name, err)
	}
	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("http: copy %s: %w", fl.name, err)
	}
	return nil
}

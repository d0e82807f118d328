package api

import (
	"bytes"
	"io"
	"mime/multipart"
)

// Form is a multipart/form-data body. Fields keep their insertion order.
type Form struct {
	fields   []formField
	file     io.Reader
	fileKey  string
	fileName string
}

type formField struct {
	name, value string
}

// NewForm creates an empty form.
func NewForm() *Form {
	return &Form{}
}

// Set appends a text field.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// File attaches r as the form's file part.
func (f *Form) File(field, filename string, r io.Reader) *Form {
	f.fileKey, f.fileName, f.file = field, filename, r
	return f
}

// encode renders the form into memory so the request body can be replayed after a refresh.
func (f *Form) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fld := range f.fields {
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", err
		}
	}
	if f.file != nil {
		part, err := w.CreateFormFile(f.fileKey, f.fileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.file); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

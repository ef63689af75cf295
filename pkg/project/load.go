package project

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/celosnet/ugantt/pkg/errors"
)

// Load reads and validates a project document from a YAML file.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "no such file: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and validates a project document from YAML.
// Unknown fields are rejected so typos surface as errors instead of
// silently vanishing options.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "parse document")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vendors

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"
)

type vendorFile struct {
	Vendors []Vendor `yaml:"vendors"`
}

// ReadFile parses a YAML file of the form `vendors: [...]`.
func ReadFile(path string) ([]Vendor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses vendor YAML from r.
func Decode(r io.Reader) ([]Vendor, error) {
	var vf vendorFile
	if err := yaml.NewDecoder(r).Decode(&vf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "parsing vendor file")
	}
	return vf.Vendors, nil
}

// Import loads a vendor YAML file into the store.
func (s *Store) Import(ctx context.Context, path string) (int, error) {
	vendors, err := ReadFile(path)
	if err != nil {
		return 0, err
	}
	return s.Upsert(ctx, vendors)
}

// Export writes every vendor as YAML to w.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	vendors, err := s.List(ctx, "")
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(vendorFile{Vendors: vendors}); err != nil {
		return eris.Wrap(err, "encoding vendors")
	}
	return enc.Close()
}

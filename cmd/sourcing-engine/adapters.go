// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/sourcing-engine/internal/adapter"
	"github.com/pdiddy/sourcing-engine/internal/vendors"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// buildAdapters constructs the enabled adapters in configured order. The
// returned closers release vendor databases.
func buildAdapters(cfg types.Config, only []string) ([]adapter.Adapter, []io.Closer, error) {
	want := make(map[string]bool, len(only))
	for _, n := range only {
		want[n] = true
	}

	var (
		out     []adapter.Adapter
		closers []io.Closer
	)
	fail := func(err error) ([]adapter.Adapter, []io.Closer, error) {
		closeAll(closers)
		return nil, nil, err
	}

	for _, ac := range cfg.Adapters {
		if len(want) > 0 {
			if !want[ac.Name] {
				continue
			}
			delete(want, ac.Name)
		} else if ac.Disabled {
			continue
		}

		switch ac.Kind {
		case types.AdapterHTTPJSON:
			key, err := loadedSecrets.Require(ac.APIKeySecret)
			if err != nil {
				return fail(eris.Wrapf(err, "adapter %s", ac.Name))
			}
			a, err := adapter.NewHTTPJSON(ac, key)
			if err != nil {
				return fail(err)
			}
			out = append(out, a)

		case types.AdapterCatalog:
			c, err := adapter.LoadCatalog(ac.Name, ac.Category, ac.Path)
			if err != nil {
				return fail(err)
			}
			out = append(out, c)

		case types.AdapterVendorDirectory:
			store, err := vendors.Open(ac.Path)
			if err != nil {
				return fail(eris.Wrapf(err, "adapter %s", ac.Name))
			}
			closers = append(closers, store)
			out = append(out, vendors.NewDirectory(ac.Name, store))

		default:
			return fail(eris.Errorf("adapter %s: unknown kind %q", ac.Name, ac.Kind))
		}
	}

	for n := range want {
		return fail(eris.Errorf("no configured adapter named %q", n))
	}
	return out, closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}

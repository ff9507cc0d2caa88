package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// ReadFile overlays the YAML file at path onto options. Keys absent from the
// file keep their current value.
func ReadFile(path string, options *Options) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(buf))
	decoder.KnownFields(true)
	if err := decoder.Decode(options); err != nil {
		// An empty file decodes to io.EOF.
		if len(bytes.TrimSpace(buf)) == 0 {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	return nil
}

// ReadFileWithFlags applies the config file, then re-applies the flags that
// were set explicitly on the command line so that they win over the file.
func ReadFileWithFlags(path string, options *Options, flags *pflag.FlagSet) error {
	type explicit struct {
		flag   *pflag.Flag
		values []string
	}

	var changed []explicit
	flags.Visit(func(f *pflag.Flag) {
		e := explicit{flag: f}
		if slice, ok := f.Value.(pflag.SliceValue); ok {
			e.values = slice.GetSlice()
		} else {
			e.values = []string{f.Value.String()}
		}
		changed = append(changed, e)
	})

	if err := ReadFile(path, options); err != nil {
		return err
	}

	for _, e := range changed {
		if slice, ok := e.flag.Value.(pflag.SliceValue); ok {
			if err := slice.Replace(e.values); err != nil {
				return err
			}
			continue
		}
		if err := e.flag.Value.Set(e.values[0]); err != nil {
			return err
		}
	}

	return nil
}

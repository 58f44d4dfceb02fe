// Package envy automatically exposes environment
// variables for all of your flags.
package envy

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Parse takes a prefix string and exposes environment variables
// for all flags in the default FlagSet (flag.CommandLine) in the
// form of PREFIX_FLAGNAME.  It must be called before flag.Parse so
// that command line values take precedence.
func Parse(p string) error {
	return update(p, flag.CommandLine, os.LookupEnv)
}

// VarName returns the environment variable consulted for flag name.
func VarName(p, name string) string {
	v := fmt.Sprintf("%s_%s", p, strings.ToUpper(name))
	return strings.ReplaceAll(v, "-", "_")
}

// update takes a prefix string p and *flag.FlagSet. Each flag
// in the FlagSet is exposed as an upper case environment variable
// prefixed with p. Any flag that was not explicitly set by a user
// is updated to the environment variable, if set.
func update(p string, fs *flag.FlagSet, lookup func(string) (string, bool)) error {
	set := explicit(fs)

	var err error
	fs.VisitAll(func(f *flag.Flag) {
		envVar := VarName(p, f.Name)

		if val, ok := lookup(envVar); ok && val != "" {
			if _, defined := set[f.Name]; !defined {
				if serr := fs.Set(f.Name, val); serr != nil && err == nil {
					err = fmt.Errorf("envy: invalid value %q for %s: %w", val, envVar, serr)
				}
			}
		}

		f.Usage = fmt.Sprintf("%s [%s]", f.Usage, envVar)
	})
	return err
}

// Fill sets each flag in fs named in values that has not already been set,
// by the command line or the environment.  Unknown names are an error.
func Fill(fs *flag.FlagSet, values map[string]string) error {
	set := explicit(fs)
	for name, val := range values {
		if fs.Lookup(name) == nil {
			return fmt.Errorf("envy: unknown flag %q", name)
		}
		if _, defined := set[name]; defined {
			continue
		}
		if err := fs.Set(name, val); err != nil {
			return fmt.Errorf("envy: invalid value %q for %s: %w", val, name, err)
		}
	}
	return nil
}

// explicit returns the names of flags that have been set.
func explicit(fs *flag.FlagSet) map[string]struct{} {
	set := map[string]struct{}{}
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = struct{}{}
	})
	return set
}

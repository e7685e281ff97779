// Package flagx contains helpers for sharing os.Args between several
// independent flag sets (config file lookup, server flags).
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps only the allowedFlags occurrences in args, together with
// their values. Both "-f value" and "-f=value" forms are recognised; a token
// starting with "-" is never consumed as a value.
// The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := allowed[name]; keep {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, keep := allowed[arg]; !keep {
			continue
		}
		filtered = append(filtered, arg)

		if next := i + 1; next < len(args) && !strings.HasPrefix(args[next], "-") {
			filtered = append(filtered, args[next])
			i = next
		}
	}

	return filtered
}

// ConfigFile extracts the JSON config path passed as -c or -config.
// It returns "" when neither is present; the last occurrence wins.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}

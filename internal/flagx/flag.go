// Package flagx helps several components parse only their own command-line
// flags out of a shared argument list.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps only the flags named in allowed (and their values) from
// args, preserving order. Both "-f value" and "-f=value" forms are recognised.
// A token starting with "-" is never consumed as a value.
func FilterArgs(args []string, allowed []string) []string {
	known := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		known[f] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := known[name]; ok {
				out = append(out, arg)
			}
			continue
		}

		if _, ok := known[arg]; !ok {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}

	return out
}

// lookupString extracts the value of a string flag known under any of names.
// The last occurrence wins. Empty string means the flag was absent.
func lookupString(args []string, names ...string) string {
	allowed := make([]string, 0, len(names))
	for _, n := range names {
		allowed = append(allowed, "-"+n)
	}

	var value string
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(discard{})
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
	}
	_ = fs.Parse(FilterArgs(args, allowed))

	return value
}

// ConfigFile returns the JSON config path passed with -c or -config.
func ConfigFile(args []string) string {
	return lookupString(args, "c", "config")
}

// EnvFile returns the dotenv path passed with -e or -env.
func EnvFile(args []string) string {
	return lookupString(args, "e", "env")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

// exportKeys fixes the order of the configuration file
var exportKeys = []string{
	"numit", "startz", "endz", "zzsig", "psig", "beta", "mzsig", "psfun", "voigtgamma",
	"massub", "masslb", "massbins", "minmz", "maxmz", "mzbins", "smooth", "subbuff",
	"intthresh", "datanorm", "peakwindow", "peakthresh", "peaknorm", "peaknormvalue",
	"adductmass", "molig", "msig", "separation", "isotopemode", "linflag", "aggressive",
	"rawflag", "nativezub", "nativezlb", "poolflag", "noiseflag", "baselineflag",
	"orbimode", "zerolog", "mtabsig", "kendrickmass", "removebelow",
}

// Keys returns the parameter keys in export order
func Keys() []string {
	out := make([]string, len(exportKeys))
	copy(out, exportKeys)
	return out
}

// WriteTo writes the configuration as "key value" lines
func (c *EngineConfig) WriteTo(w io.Writer) (int64, error) {
	values, err := c.Values()
	if err != nil {
		return 0, err
	}

	var sb strings.Builder
	if c.Files.Input != "" {
		fmt.Fprintf(&sb, "input %s\n", c.Files.Input)
		fmt.Fprintf(&sb, "output %s\n", c.Files.OutputBase())
	}
	for _, key := range exportKeys {
		fmt.Fprintf(&sb, "%s %s\n", key, formatValue(values[key]))
	}
	fmt.Fprintf(&sb, "numz %d\n", c.NumZ())

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func formatValue(v any) string {
	switch t := v.(type) {
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Export writes the configuration file to path
func (c *EngineConfig) Export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &core.IOError{Op: "create", Path: path, Err: err}
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return &core.IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &core.IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// Load reads "key value" lines. Unknown keys and the derived numz are
// ignored; the input and output paths are returned.
func (c *EngineConfig) Load(r io.Reader) (input, output string, err error) {
	known := make(map[string]bool, len(exportKeys))
	for _, k := range exportKeys {
		known[k] = true
	}

	values := make(map[string]any)
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		key = strings.ToLower(key)
		value = strings.TrimSpace(value)

		switch {
		case key == "input":
			input = value
		case key == "output":
			output = value
		case known[key]:
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return "", "", &core.ConfigError{Field: key, Message: fmt.Sprintf("line %d: %v", lineNum, err)}
			}
			values[key] = v
		}
	}
	if err := scanner.Err(); err != nil {
		return "", "", err
	}

	if err := c.apply(values, false); err != nil {
		return "", "", err
	}
	return input, output, nil
}

// Import loads a configuration file written by Export
func (c *EngineConfig) Import(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &core.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	if _, _, err := c.Load(f); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	return nil
}

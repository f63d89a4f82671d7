package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// pack is the on-disk layout of an exported prompt set.
type pack struct {
	Prompts Set `toml:"prompts"`
}

// ExportTOML writes s as a TOML prompt pack.
func ExportTOML(w io.Writer, s Set) error {
	if err := toml.NewEncoder(w).Encode(pack{Prompts: s}); err != nil {
		return fmt.Errorf("encoding prompt pack: %w", err)
	}
	return nil
}

// ImportTOML reads a prompt pack. Prompts missing from the pack take their
// default value; unknown keys are an error.
func ImportTOML(r io.Reader) (Set, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Set{}, fmt.Errorf("reading prompt pack: %w", err)
	}

	var p pack
	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return Set{}, fmt.Errorf("decoding prompt pack: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Set{}, fmt.Errorf("unknown keys in prompt pack: %s", strings.Join(keys, ", "))
	}

	return p.Prompts.withDefaults(), nil
}

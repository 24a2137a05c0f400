package gene

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the static configuration for one gene.
type Config struct {
	Gene Gene
	// Chrom is the chromosome the gene lies on, used when writing VCF.
	Chrom string
	// Offset is added to a reference-local coordinate to obtain a genomic
	// coordinate on the catalog's assembly.
	Offset int64
	// Reference is the path to the gene reference FASTA.
	Reference string
	// Table names the gene's partition in the catalog.
	Table string
}

var tableNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if !c.Gene.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedGene, string(c.Gene))
	}
	if !tableNameRe.MatchString(c.Table) {
		return fmt.Errorf("gene %s: invalid catalog table name %q", c.Gene, c.Table)
	}
	if c.Offset < 0 {
		return fmt.Errorf("gene %s: negative genomic offset %d", c.Gene, c.Offset)
	}
	return nil
}

// Registry maps each supported gene to its Config. It is read-only once built.
type Registry struct {
	configs map[Gene]Config
}

// NewRegistry builds a registry from the given configs, validating each one.
func NewRegistry(configs ...Config) (*Registry, error) {
	r := &Registry{configs: make(map[Gene]Config, len(configs))}
	for _, c := range configs {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		r.configs[c.Gene] = c
	}
	return r, nil
}

// GRCh38 gene starts minus one, so that reference-local position 1 lands on
// the first base of the gene.
var defaultOffsets = map[Gene]int64{
	BRCA1: 43044294,
	TP53:  7661778,
	PTEN:  87863112,
}

var defaultChroms = map[Gene]string{
	BRCA1: "17",
	TP53:  "17",
	PTEN:  "10",
}

// DefaultRegistry returns the built-in configuration for all supported genes.
// Reference paths point at ~/.vibe-snv/references/<gene>.fasta.
func DefaultRegistry() *Registry {
	refDir := defaultReferenceDir()
	r := &Registry{configs: make(map[Gene]Config)}
	for _, g := range All() {
		lower := strings.ToLower(string(g))
		r.configs[g] = Config{
			Gene:      g,
			Chrom:     defaultChroms[g],
			Offset:    defaultOffsets[g],
			Reference: filepath.Join(refDir, lower+".fasta"),
			Table:     lower + "_variants",
		}
	}
	return r
}

func defaultReferenceDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".vibe-snv", "references")
	}
	return filepath.Join(home, ".vibe-snv", "references")
}

// LoadRegistry returns the default registry overridden by the "genes"
// section of v, e.g.
//
//	genes:
//	  BRCA1:
//	    chrom: "17"
//	    offset: 43044294
//	    reference: /data/brca1.fasta
//	    table: brca1_variants
//
// Entries for genes outside the supported set are rejected.
func LoadRegistry(v *viper.Viper) (*Registry, error) {
	base := DefaultRegistry()
	configs := make(map[Gene]Config, len(base.configs))
	for g, c := range base.configs {
		configs[g] = c
	}

	// viper lower-cases keys, so match gene symbols case-insensitively here.
	for key := range v.GetStringMap("genes") {
		g, err := Parse(strings.ToUpper(key))
		if err != nil {
			return nil, fmt.Errorf("config genes.%s: %w", key, err)
		}
		c := configs[g]
		prefix := "genes." + key + "."
		if v.IsSet(prefix + "offset") {
			c.Offset = v.GetInt64(prefix + "offset")
		}
		if chrom := v.GetString(prefix + "chrom"); chrom != "" {
			c.Chrom = chrom
		}
		if ref := v.GetString(prefix + "reference"); ref != "" {
			c.Reference = expandHome(ref)
		}
		if table := v.GetString(prefix + "table"); table != "" {
			c.Table = table
		}
		configs[g] = c
	}

	list := make([]Config, 0, len(configs))
	for _, g := range All() {
		list = append(list, configs[g])
	}
	return NewRegistry(list...)
}

// Lookup returns the config for g.
func (r *Registry) Lookup(g Gene) (Config, error) {
	c, ok := r.configs[g]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedGene, string(g))
	}
	return c, nil
}

// Genes returns the configured genes in stable order.
func (r *Registry) Genes() []Gene {
	var out []Gene
	for _, g := range All() {
		if _, ok := r.configs[g]; ok {
			out = append(out, g)
		}
	}
	return out
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

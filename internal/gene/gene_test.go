package gene

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Gene
		wantErr bool
	}{
		{"BRCA1", BRCA1, false},
		{"TP53", TP53, false},
		{" PTEN ", PTEN, false},
		{"brca1", "", true},
		{"KRAS", "", true},
		{"", "", true},
		{"BRCA1; DROP TABLE x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			g, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedGene)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g)
		})
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []Gene{BRCA1, TP53, PTEN}, r.Genes())

	c, err := r.Lookup(TP53)
	require.NoError(t, err)
	assert.Equal(t, int64(7661778), c.Offset)
	assert.Equal(t, "17", c.Chrom)
	assert.Equal(t, "tp53_variants", c.Table)
	assert.True(t, strings.HasSuffix(c.Reference, "tp53.fasta"))

	_, err = r.Lookup(Gene("KRAS"))
	assert.ErrorIs(t, err, ErrUnsupportedGene)
}

func TestNewRegistry_RejectsBadTable(t *testing.T) {
	_, err := NewRegistry(Config{Gene: BRCA1, Table: "brca1; drop table x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid catalog table name")

	_, err = NewRegistry(Config{Gene: "KRAS", Table: "kras_variants"})
	assert.ErrorIs(t, err, ErrUnsupportedGene)

	_, err = NewRegistry(Config{Gene: PTEN, Table: "pten_variants", Offset: -1})
	assert.Error(t, err)
}

func TestLoadRegistry_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("genes.brca1.offset", 100)
	v.Set("genes.brca1.table", "brca1_grch37")
	v.Set("genes.pten.reference", "/data/pten.fa")

	r, err := LoadRegistry(v)
	require.NoError(t, err)

	c, err := r.Lookup(BRCA1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), c.Offset)
	assert.Equal(t, "brca1_grch37", c.Table)

	c, err = r.Lookup(PTEN)
	require.NoError(t, err)
	assert.Equal(t, "/data/pten.fa", c.Reference)
	assert.Equal(t, int64(87863112), c.Offset)
}

func TestLoadRegistry_UnknownGene(t *testing.T) {
	v := viper.New()
	v.Set("genes.kras.offset", 1)

	_, err := LoadRegistry(v)
	assert.ErrorIs(t, err, ErrUnsupportedGene)
}

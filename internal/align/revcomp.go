package align

var complement = [256]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A',
	'a': 't', 'c': 'g', 'g': 'c', 't': 'a',
	'N': 'N', 'n': 'n',
	Gap: Gap,
}

// ReverseComplement returns the reverse complement of a (possibly gapped)
// nucleotide string. Gaps are kept in place relative to their neighbours;
// unknown residues become 'N'.
func ReverseComplement(s string) string {
	n := len(s)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c := complement[s[n-1-i]]
		if c == 0 {
			c = 'N'
		}
		out[i] = c
	}
	return string(out)
}

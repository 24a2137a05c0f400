package align

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// BlastAligner runs NCBI BLAST+: makeblastdb builds a temporary nucleotide
// database from the reference and blastn searches the query against it.
type BlastAligner struct {
	Blastn      string // blastn executable
	MakeBlastDB string // makeblastdb executable
	ExtraArgs   []string
	TempDir     string // parent for the temporary database; os.TempDir() if empty
	logger      *zap.Logger
}

// NewBlastAligner creates a BlastAligner using executables found on PATH.
func NewBlastAligner() *BlastAligner {
	return &BlastAligner{
		Blastn:      "blastn",
		MakeBlastDB: "makeblastdb",
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger for command tracing.
func (b *BlastAligner) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Align implements Aligner.
func (b *BlastAligner) Align(ctx context.Context, queryPath, referencePath string) ([]AlignmentRecord, error) {
	dir, err := os.MkdirTemp(b.TempDir, "vibe-snv-blastdb-")
	if err != nil {
		return nil, fmt.Errorf("create temporary blast directory: %w", err)
	}
	defer os.RemoveAll(dir)

	db := filepath.Join(dir, "refdb")
	if _, err := b.exec(ctx, b.MakeBlastDB,
		"-in", referencePath,
		"-dbtype", "nucl",
		"-out", db,
	); err != nil {
		return nil, fmt.Errorf("build blast database: %w", err)
	}

	args := []string{
		"-query", queryPath,
		"-db", db,
		"-outfmt", "6 " + TabularFields,
	}
	args = append(args, b.ExtraArgs...)
	out, err := b.exec(ctx, b.Blastn, args...)
	if err != nil {
		return nil, fmt.Errorf("run blastn: %w", err)
	}

	records, err := ReadTabular(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	b.logger.Debug("blastn finished", zap.Int("records", len(records)))
	return records, nil
}

// exec runs a command and returns its stdout. A failure carries stderr.
func (b *BlastAligner) exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	fullCmd := strings.Join(cmd.Args, " ")
	b.logger.Debug("exec", zap.String("cmd", fullCmd))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("running %q: %w\nstderr:\n%s", fullCmd, err, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("running %q: %w", fullCmd, err)
	}
	return stdout.Bytes(), nil
}

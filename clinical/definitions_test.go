package clinical

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefinitionsOverridesSections(t *testing.T) {
	dir := t.TempDir()
	sections := `sections:
  - key: diagnostic_hypotheses
    labels:
      - "Impressão diagnóstica:"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sections.yaml"), []byte(sections), 0o644))

	defs := LoadDefinitions(dir)
	require.Len(t, defs.Sections, 1)
	require.Equal(t, SectionDiagnosticHypotheses, defs.Sections[0].Key)
	require.Equal(t, []string{"Impressão diagnóstica:"}, defs.Sections[0].Labels)

	// vitals.yaml is absent, so the built-in vitals survive.
	require.Equal(t, DefaultDefinitions().Vitals, defs.Vitals)
}

func TestLoadDefinitionsKeepsDefaultsOnBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vitals.yaml"), []byte("vitals: {not a list"), 0o644))

	defs := LoadDefinitions(dir)
	require.Equal(t, DefaultDefinitions(), defs)
}

func TestLoadDefinitionsMissingDir(t *testing.T) {
	defs := LoadDefinitions(filepath.Join(t.TempDir(), "nope"))
	require.Equal(t, DefaultDefinitions(), defs)
}

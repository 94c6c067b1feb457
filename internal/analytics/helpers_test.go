package analytics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"insightgen/internal/dataset"
)

// mustDataset builds a dataset from inline CSV, failing the test on parse
// errors.
func mustDataset(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return ds
}

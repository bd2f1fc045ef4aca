package tsv

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/radon-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRows = []domain.CleanRow{
	{IDNum: 5081, State: "MN", County: "AITKIN", CountyIdx: 0, StateCounty: "MN_AITKIN", Floor: 1, CountyUranium: 0.502054, Radon: 2.2},
	{IDNum: 5085, State: "MN", County: "ANOKA", CountyIdx: 1, StateCounty: "MN_ANOKA", Floor: 0, IsBasement: true, CountyUranium: 0.428565, Radon: 14.4},
}

func TestWriter_CountyIndex(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Load(context.Background(), domain.VariantCountyIndex, testRows))

	expected := "idnum\tstate\tcounty\tcounty_idx\tfloor\tis_basement\tcounty_uranium\tradon\n" +
		"5081\tMN\tAITKIN\t0\t1\tfalse\t0.502054\t2.2\n" +
		"5085\tMN\tANOKA\t1\t0\ttrue\t0.428565\t14.4\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriter_StateCounty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Load(context.Background(), domain.VariantStateCounty, testRows))

	expected := "idnum\tstate\tstate_county\tfloor\tis_basement\tcounty_uranium\tradon\n" +
		"5081\tMN\tMN_AITKIN\t1\tfalse\t0.502054\t2.2\n" +
		"5085\tMN\tMN_ANOKA\t0\ttrue\t0.428565\t14.4\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriter_EmptyTableWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Load(context.Background(), domain.VariantStateCounty, nil))
	assert.Equal(t, "idnum\tstate\tstate_county\tfloor\tis_basement\tcounty_uranium\tradon\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriter_WriteError(t *testing.T) {
	err := NewWriter(failingWriter{}).Load(context.Background(), domain.VariantCountyIndex, testRows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWriter_Name(t *testing.T) {
	assert.Equal(t, "tsv", NewWriter(&bytes.Buffer{}).Name())
}

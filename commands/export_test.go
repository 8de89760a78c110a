package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"contractorbill/services"
)

const billYAML = `header:
  projectName: Road Works Phase 2
  contractorName: Sharma Builders
  billDate: 2024-03-15T00:00:00Z
  tenderPremium: 5
items:
  - itemNo: "1"
    description: Earthwork
    quantity: 50
    rate: 100
    unit: cum
  - itemNo: "2"
    description: Concrete
    quantity: 30
    rate: 150
    unit: cum
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetContext(context.Background())
	return cmd, &out, &errOut
}

func fixedExporter(opts ...services.ExporterOption) *services.Exporter {
	clock := services.WithClock(func() time.Time { return time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC) })
	return services.NewExporter(append([]services.ExporterOption{clock}, opts...)...)
}

func TestReadBillFile_YAML(t *testing.T) {
	bill, err := ReadBillFile(writeTemp(t, "bill.yaml", billYAML))

	require.NoError(t, err)
	assert.Equal(t, "Road Works Phase 2", bill.Header.ProjectName)
	assert.Equal(t, 5.0, bill.Header.TenderPremium)
	assert.True(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC).Equal(bill.Header.BillDate))
	require.Len(t, bill.Items, 2)
	assert.Equal(t, 150.0, bill.Items[1].Rate)
}

func TestReadBillFile_JSON(t *testing.T) {
	content := `{"header":{"projectName":"P","contractorName":"C","tenderPremium":2.5},"items":[{"description":"x","quantity":1,"rate":2}]}`

	bill, err := ReadBillFile(writeTemp(t, "bill.json", content))

	require.NoError(t, err)
	assert.Equal(t, 2.5, bill.Header.TenderPremium)
	assert.Len(t, bill.Items, 1)
}

func TestReadBillFile_Errors(t *testing.T) {
	_, err := ReadBillFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read bill file")

	_, err = ReadBillFile(writeTemp(t, "bad.json", "{"))
	assert.ErrorContains(t, err, "decode bad.json")
}

func TestRunExport_WritesFiles(t *testing.T) {
	bill, err := ReadBillFile(writeTemp(t, "bill.yaml", billYAML))
	require.NoError(t, err)
	outDir := filepath.Join(t.TempDir(), "out")
	cmd, out, _ := testCommand()

	err = RunExport(cmd, fixedExporter(), bill, outDir, []services.Format{services.FormatXLSX, services.FormatCSV}, zap.NewNop())

	require.NoError(t, err)
	for _, name := range []string{
		"Road_Works_Phase_2_Bill_20240401_090000.xlsx",
		"Road_Works_Phase_2_Bill_20240401_090000.csv",
	} {
		info, err := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.NotZero(t, info.Size())
	}
	assert.Equal(t, 2, strings.Count(out.String(), "OK    "))
}

type brokenSerializer struct{}

func (brokenSerializer) Format() services.Format { return services.FormatHTML }
func (brokenSerializer) Extension() string       { return "html" }
func (brokenSerializer) ContentType() string     { return "text/html" }
func (brokenSerializer) Serialize(context.Context, *services.BillDocument) ([]byte, error) {
	return nil, assert.AnError
}

func TestRunExport_ReportsFailures(t *testing.T) {
	bill, err := ReadBillFile(writeTemp(t, "bill.yaml", billYAML))
	require.NoError(t, err)
	outDir := t.TempDir()
	cmd, out, _ := testCommand()

	err = RunExport(cmd, fixedExporter(services.WithSerializer(brokenSerializer{})), bill, outDir,
		[]services.Format{services.FormatHTML, services.FormatCSV}, zap.NewNop())

	assert.ErrorContains(t, err, "1 of 2 formats failed")
	assert.Contains(t, out.String(), "FAIL  html")
	assert.Contains(t, out.String(), "OK    csv")
	_, statErr := os.Stat(filepath.Join(outDir, "Road_Works_Phase_2_Bill_20240401_090000.csv"))
	assert.NoError(t, statErr, "the successful format is still written")
}

func TestRunExport_InvalidBill(t *testing.T) {
	bill := services.Bill{Items: []services.LineItem{{Quantity: -1}}}
	outDir := filepath.Join(t.TempDir(), "never")
	cmd, _, errOut := testCommand()

	err := RunExport(cmd, fixedExporter(), bill, outDir, services.AllFormats(), zap.NewNop())

	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, errOut.String(), "invalid: Project name is required")
	assert.Contains(t, errOut.String(), "invalid: item 1: Quantity cannot be negative")
	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr), "no output directory for an invalid bill")
}

func TestNewExportCommand_Flags(t *testing.T) {
	input := writeTemp(t, "bill.yaml", billYAML)
	outDir := t.TempDir()
	cmd := NewExportCommand(fixedExporter(), "exports", zap.NewNop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--input", input, "--out", outDir, "--formats", "csv,txt"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestNewExportCommand_RequiresInput(t *testing.T) {
	cmd := NewExportCommand(fixedExporter(), "exports", zap.NewNop())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()

	assert.ErrorContains(t, err, `required flag(s) "input" not set`)
}

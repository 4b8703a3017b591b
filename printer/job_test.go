package printer_test

import (
	"bytes"
	"encoding/binary"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dancollins/labelprinter/bmp"
	"github.com/dancollins/labelprinter/printer"
)

// writeLabel drops a small 300dpi label bitmap into dir and returns its
// path.
func writeLabel(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	require.NoError(t, bmp.Encode(&buf, img, 11811))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func testBackend() *fakeBackend {
	return &fakeBackend{
		defaultPrinter: "Brother QL-800",
		defaultPaper:   "62mm x 100mm",
		catalog: []printer.PaperSize{
			{Name: "4x6", Code: 512, WidthMM: 101.6, HeightMM: 152.4},
			{Name: "62mm x 100mm", Code: 3, WidthMM: 62, HeightMM: 100},
		},
		ctx: &fakeContext{metrics: metrics300()},
	}
}

var fullRender = []string{"Metrics", "SaveState", "SetMapping",
	"StartDoc", "StartPage", "DrawImage", "EndPage", "EndDoc",
	"RestoreState"}

func TestJobResolvesDefaults(t *testing.T) {
	b := testBackend()
	file := writeLabel(t, t.TempDir(), "label.bmp", 400, 600)

	var out bytes.Buffer
	job := printer.Job{Backend: b, Files: []string{file}, Out: &out}
	require.NoError(t, job.Run())

	assert.Contains(t, out.String(), "Brother QL-800")
	assert.Contains(t, out.String(),
		"62mm x 100mm (portrait) 62.0 x 100.0 mm")
	assert.Contains(t, out.String(), file)
	assert.Equal(t, fullRender, b.ctx.calls)
	require.Len(t, b.configures, 1)
	assert.True(t, b.configures[0].apply)
}

func TestJobDryRunScenario(t *testing.T) {
	b := testBackend()
	file := writeLabel(t, t.TempDir(), "label.bmp", 400, 600)

	var out bytes.Buffer
	job := printer.Job{
		Backend:     b,
		PaperName:   "4x6",
		Orientation: printer.Landscape,
		DryRun:      true,
		Files:       []string{file},
		Out:         &out,
	}
	require.NoError(t, job.Run())

	assert.Contains(t, out.String(), "4x6 (landscape) 101.6 x 152.4 mm")
	assert.Contains(t, out.String(), "Dry run only.")

	// No spooler submission, but the placement still gets computed and
	// applied to the context.
	assert.Equal(t, []string{"Metrics", "SaveState", "SetMapping",
		"RestoreState"}, b.ctx.calls)
	require.Len(t, b.ctx.mappings, 1)
	assert.Equal(t, 400, b.ctx.mappings[0].ViewportW)
	assert.Equal(t, 400, b.ctx.mappings[0].OriginX)

	// The settings record carries the requested values even though the
	// final apply call was skipped.
	require.Len(t, b.configures, 1)
	assert.False(t, b.configures[0].apply)
	assert.Equal(t, int16(512), b.configures[0].paper.Code)
	assert.Equal(t, printer.Landscape, b.configures[0].o)
}

func TestJobPaperNotFound(t *testing.T) {
	b := testBackend()
	file := writeLabel(t, t.TempDir(), "label.bmp", 400, 600)

	job := printer.Job{Backend: b, PaperName: "A4", Files: []string{file}}
	err := job.Run()
	assert.ErrorIs(t, err, printer.ErrNotFound)

	// The run aborted before any page settings mutation.
	assert.Empty(t, b.configures)
	assert.Empty(t, b.ctx.calls)
}

func TestJobNoFiles(t *testing.T) {
	job := printer.Job{Backend: testBackend()}
	assert.ErrorIs(t, job.Run(), printer.ErrConfiguration)
}

func TestJobRejectsPixellessFile(t *testing.T) {
	b := testBackend()
	dir := t.TempDir()
	file := writeLabel(t, dir, "label.bmp", 4, 4)

	// Rewrite the pixel-data offset to the file length; the decoder has
	// to reject it before the context ever sees an empty pixel buffer.
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(data[10:], uint32(len(data)))
	require.NoError(t, os.WriteFile(file, data, 0o644))

	job := printer.Job{Backend: b, Files: []string{file}}
	assert.ErrorIs(t, job.Run(), bmp.ErrInvalidFormat)
	assert.Zero(t, countCalls(b.ctx, "DrawImage"))
}

func TestJobNoDefaultPrinter(t *testing.T) {
	b := testBackend()
	b.defaultPrinter = ""
	file := writeLabel(t, t.TempDir(), "label.bmp", 400, 600)

	job := printer.Job{Backend: b, Files: []string{file}}
	assert.ErrorIs(t, job.Run(), printer.ErrConfiguration)
}

func TestJobStopsAfterCorruptFile(t *testing.T) {
	b := testBackend()
	dir := t.TempDir()
	good := writeLabel(t, dir, "good.bmp", 400, 600)
	bad := filepath.Join(dir, "bad.bmp")
	require.NoError(t, os.WriteFile(bad, []byte("not a bitmap"), 0o644))

	var out bytes.Buffer
	job := printer.Job{
		Backend: b,
		Files:   []string{good, bad},
		Out:     &out,
	}
	err := job.Run()
	assert.ErrorIs(t, err, bmp.ErrInvalidFormat)

	// The first label printed, the second was never attempted.
	assert.Equal(t, 1, strings.Count(out.String(), " 🏷️ "))
	assert.Equal(t, 1, countCalls(b.ctx, "EndDoc"))
}

func TestJobRestoresStateOnFailure(t *testing.T) {
	b := testBackend()
	b.ctx.failAt = "StartPage"
	file := writeLabel(t, t.TempDir(), "label.bmp", 400, 600)

	job := printer.Job{Backend: b, Files: []string{file}}
	err := job.Run()
	assert.ErrorIs(t, err, printer.ErrRender)
	assert.Equal(t, "RestoreState", b.ctx.calls[len(b.ctx.calls)-1])
	assert.True(t, b.ctx.closed)
}

func countCalls(c *fakeContext, name string) int {
	n := 0
	for _, call := range c.calls {
		if call == name {
			n++
		}
	}
	return n
}

package ocr_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cardiolens/cardiolens-backend/internal/extraction/ocr"
	"github.com/cardiolens/cardiolens-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations and lets each test script the outcome.
type fakeRunner struct {
	mu    sync.Mutex
	calls []call
	fn    func(name string, args []string) ([]byte, []byte, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{name: name, args: args})
	f.mu.Unlock()
	if f.fn == nil {
		return nil, nil, nil
	}
	return f.fn(name, args)
}

func TestEngine_ImageText(t *testing.T) {
	runner := &fakeRunner{fn: func(name string, args []string) ([]byte, []byte, error) {
		return []byte("Age: 45"), nil, nil
	}}
	engine := ocr.NewEngine(runner, config.OCRConfig{})

	text, err := engine.ImageText(context.Background(), "/tmp/x/scan.png")
	require.NoError(t, err)
	assert.Equal(t, "Age: 45", text)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "tesseract", runner.calls[0].name)
	assert.Equal(t, []string{"/tmp/x/scan.png", "stdout", "-l", "eng"}, runner.calls[0].args)
}

func TestEngine_ImageText_Options(t *testing.T) {
	runner := &fakeRunner{}
	engine := ocr.NewEngine(runner, config.OCRConfig{
		Tesseract:   "/usr/local/bin/tesseract",
		Language:    "deu",
		PSM:         6,
		TessdataDir: "/opt/tessdata",
	})

	_, err := engine.ImageText(context.Background(), "in.png")
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "/usr/local/bin/tesseract", runner.calls[0].name)
	assert.Equal(t,
		[]string{"in.png", "stdout", "-l", "deu", "--psm", "6", "--tessdata-dir", "/opt/tessdata"},
		runner.calls[0].args,
	)
}

func TestEngine_ImageText_Failure(t *testing.T) {
	boom := errors.New("exit status 1")
	runner := &fakeRunner{fn: func(string, []string) ([]byte, []byte, error) {
		return nil, []byte("Error opening data file eng.traineddata\n"), boom
	}}
	engine := ocr.NewEngine(runner, config.OCRConfig{})

	_, err := engine.ImageText(context.Background(), "in.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "eng.traineddata")
}

func TestEngine_RasterizePDF(t *testing.T) {
	outDir := t.TempDir()
	runner := &fakeRunner{fn: func(name string, args []string) ([]byte, []byte, error) {
		prefix := args[len(args)-1]
		for _, n := range []string{"10", "2", "1"} {
			if err := os.WriteFile(prefix+"-"+n+".jpg", []byte("jpeg"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}}
	engine := ocr.NewEngine(runner, config.OCRConfig{DPI: 200})

	pages, err := engine.RasterizePDF(context.Background(), "/in/report.pdf", outDir)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "pdftoppm", runner.calls[0].name)
	assert.Equal(t,
		[]string{"-r", "200", "-jpeg", "/in/report.pdf", filepath.Join(outDir, "page")},
		runner.calls[0].args,
	)

	want := []string{
		filepath.Join(outDir, "page-1.jpg"),
		filepath.Join(outDir, "page-2.jpg"),
		filepath.Join(outDir, "page-10.jpg"),
	}
	assert.Equal(t, want, pages)
}

func TestEngine_RasterizePDF_PageLimit(t *testing.T) {
	runner := &fakeRunner{fn: func(name string, args []string) ([]byte, []byte, error) {
		return nil, nil, os.WriteFile(args[len(args)-1]+"-1.jpg", []byte("x"), 0o600)
	}}
	engine := ocr.NewEngine(runner, config.OCRConfig{DPI: 150, MaxPages: 3})

	_, err := engine.RasterizePDF(context.Background(), "in.pdf", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{"-r", "150", "-jpeg", "-l", "3"}, runner.calls[0].args[:5])
}

func TestEngine_RasterizePDF_Errors(t *testing.T) {
	t.Run("command fails", func(t *testing.T) {
		runner := &fakeRunner{fn: func(string, []string) ([]byte, []byte, error) {
			return nil, []byte("Syntax Error: Couldn't read xref table"), errors.New("exit status 1")
		}}
		_, err := ocr.NewEngine(runner, config.OCRConfig{}).RasterizePDF(context.Background(), "bad.pdf", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pdftoppm")
		assert.Contains(t, err.Error(), "xref")
	})

	t.Run("no pages rendered", func(t *testing.T) {
		runner := &fakeRunner{}
		_, err := ocr.NewEngine(runner, config.OCRConfig{}).RasterizePDF(context.Background(), "empty.pdf", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no pages")
	})
}

func bimodal(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(200)
			if x < w/2 {
				v = 40
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestOtsuThreshold(t *testing.T) {
	th := ocr.OtsuThreshold(bimodal(20, 10))
	assert.GreaterOrEqual(t, th, uint8(40))
	assert.Less(t, th, uint8(200))
}

func TestOtsuThreshold_Uniform(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	assert.Equal(t, uint8(0), ocr.OtsuThreshold(img))
}

func TestBinarize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.png")

	rgba := image.NewRGBA(image.Rect(0, 0, 20, 10))
	gray := bimodal(20, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			v := gray.GrayAt(x, y).Y
			rgba.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, rgba))
	require.NoError(t, f.Close())

	require.NoError(t, ocr.Binarize(src, dst))

	out, err := os.Open(dst)
	require.NoError(t, err)
	defer out.Close()
	decoded, err := png.Decode(out)
	require.NoError(t, err)

	result := ocr.Grayscale(decoded)
	assert.Equal(t, uint8(0), result.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), result.GrayAt(19, 9).Y)
	for _, v := range result.Pix {
		assert.True(t, v == 0 || v == 255, "pixel %d is not binary", v)
	}
}

func TestBinarize_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("plain text, not an image"), 0o600))

	err := ocr.Binarize(src, filepath.Join(dir, "out.png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, image.ErrFormat)
}

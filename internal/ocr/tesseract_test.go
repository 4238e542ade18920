package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	stdout []byte
	stderr []byte
	err    error

	gotStdin []byte
	gotName  string
	gotArgs  []string
}

func (s *stubRunner) Run(_ context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	s.gotStdin = stdin
	s.gotName = name
	s.gotArgs = args
	return s.stdout, s.stderr, s.err
}

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t91\tIbuprofen\n" +
	"5\t1\t1\t1\t1\t2\t12\t0\t10\t10\t88\t200mg\n" +
	"5\t1\t1\t1\t2\t1\t0\t12\t10\t10\t85\ttwice\n" +
	"5\t1\t1\t1\t2\t2\t12\t12\t10\t10\t92\tdaily\n"

func TestTesseractRecognize_Args(t *testing.T) {
	run := &stubRunner{stdout: []byte(sampleTSV)}
	tess := NewTesseract(TesseractConfig{TessdataDir: "/opt/tessdata"})
	tess.runner = run

	_, err := tess.Recognize(context.Background(), []byte("imgbytes"), EngineConfig{Tag: "oem1_psm6", OEM: 1, PSM: 6}, nil)
	require.NoError(t, err)

	assert.Equal(t, "tesseract", run.gotName)
	assert.Equal(t, []byte("imgbytes"), run.gotStdin)
	assert.Equal(t, []string{
		"stdin", "stdout", "-l", "eng",
		"--oem", "1", "--psm", "6",
		"--tessdata-dir", "/opt/tessdata",
		"-c", "preserve_interword_spaces=1", "tsv",
	}, run.gotArgs)
}

func TestTesseractRecognize_ParsesTSV(t *testing.T) {
	run := &stubRunner{stdout: []byte(sampleTSV)}
	tess := NewTesseract(TesseractConfig{})
	tess.runner = run

	res, err := tess.Recognize(context.Background(), []byte("img"), EngineConfig{OEM: 1, PSM: 6}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Ibuprofen 200mg\ntwice daily", res.Text)
	assert.Equal(t, 4, res.WordsCount)
	assert.InDelta(t, 89.0, res.Confidence, 1e-9) // (91+88+85+92)/4
}

func TestTesseractRecognize_Progress(t *testing.T) {
	run := &stubRunner{stdout: []byte(sampleTSV)}
	tess := NewTesseract(TesseractConfig{})
	tess.runner = run

	var got []float64
	_, err := tess.Recognize(context.Background(), []byte("img"), EngineConfig{}, func(p float64) {
		got = append(got, p)
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, got)
}

func TestTesseractRecognize_RunnerError(t *testing.T) {
	run := &stubRunner{stderr: []byte("could not initialize"), err: errors.New("exit status 1")}
	tess := NewTesseract(TesseractConfig{})
	tess.runner = run

	_, err := tess.Recognize(context.Background(), []byte("img"), EngineConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not initialize")
}

func TestParseTSV_Empty(t *testing.T) {
	res := parseTSV("")
	assert.Zero(t, res.WordsCount)
	assert.Zero(t, res.Confidence)
	assert.Empty(t, res.Text)
}

func TestParseTSV_SkipsMalformedRows(t *testing.T) {
	tsv := "header\n" +
		"short\trow\n" +
		"5\t1\t1\t1\t1\t1\t0\t0\t1\t1\tnot-a-number\tword\n" +
		"5\t1\t1\t1\t1\t2\t0\t0\t1\t1\t90\tkept\n"
	res := parseTSV(tsv)
	assert.Equal(t, "kept", res.Text)
	assert.Equal(t, 1, res.WordsCount)
	assert.Equal(t, 90.0, res.Confidence)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"tabs and runs of spaces", "a\t\tb    c", "a b c"},
		{"box noise line removed", "top\n-----\nbottom", "top\n\nbottom"},
		{"blank runs collapsed", "a\n\n\n\n\nb", "a\n\nb"},
		{"trailing space trimmed", "a   \nb", "a\nb"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	long := strings.Repeat("x", 20)
	assert.Equal(t, long[:10]+"...(truncated)", truncate(long, 10))
}

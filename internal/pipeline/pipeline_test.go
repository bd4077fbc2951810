package pipeline

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slideforge/internal/plan"
	"slideforge/internal/pptx"
	"slideforge/internal/render"
	"slideforge/internal/visual"
)

const validResponse = `Əlbəttə, budur slayd planı:
[
  {"type": "title", "title": "Layihə təqdimatı"},
  {"type": "intro", "aim": "Məqsəd", "summary": "Xülasə"},
  {"type": "main", "title": "Mövzu", "point1": "a", "point2": "b", "point3": "c", "point4": "d",
   "visual": {"type": "none"}},
  {"type": "recommendation", "recommendation1": "r1", "recommendation2": "r2",
   "recommendation3": "r3", "recommendation4": "r4"}
]`

type fakeCompleter struct {
	response string
	err      error
	system   string
	prompt   string
	calls    int
}

func (f *fakeCompleter) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.system = systemPrompt
	f.prompt = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// noopDeck satisfies render.Deck without touching any template file.
type noopDeck struct {
	saved string
}

func (d *noopDeck) SetSlotText(slot, text string) error               { return nil }
func (d *noopDeck) AddTextBoxBelow(slot, text string, pt int) error   { return nil }
func (d *noopDeck) AppendSlideFromLayout(layoutIndex int) (int, error) { return 0, nil }
func (d *noopDeck) SetTitle(index int, text string) error             { return nil }
func (d *noopDeck) FillBodyPlaceholders(index int, points []string, style pptx.ParagraphStyle) error {
	return nil
}
func (d *noopDeck) AppendBulletParagraphs(index int, lines []string, style pptx.ParagraphStyle) error {
	return nil
}
func (d *noopDeck) InsertChart(index int, ch visual.Chart) error  { return nil }
func (d *noopDeck) InsertPicture(index int, path string) error    { return nil }
func (d *noopDeck) InsertNotice(index int, text string) error     { return nil }
func (d *noopDeck) RemoveSlide(index int) error                   { return nil }
func (d *noopDeck) Save(path string) error                        { d.saved = path; return nil }

func writeDOCX(t *testing.T, dir string, paragraphs ...string) string {
	t.Helper()
	path := filepath.Join(dir, "input.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	var body strings.Builder
	body.WriteString(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	body.WriteString(`</w:body></w:document>`)
	_, err = w.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func testPipeline(completer *fakeCompleter, deck *noopDeck, outputDir string) *Pipeline {
	p := New(completer, render.New(nil, nil, ""), "template.pptx", outputDir)
	p.openDeck = func(path string) (render.Deck, error) { return deck, nil }
	return p
}

func TestRunEndToEnd(t *testing.T) {
	dir, err := os.MkdirTemp("", "pipeline-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	docPath := writeDOCX(t, dir, "Layihə haqqında sənəd.")
	completer := &fakeCompleter{response: validResponse}
	deck := &noopDeck{}
	p := testPipeline(completer, deck, dir)

	res, err := p.Run(context.Background(), Request{
		DocumentPath:   docPath,
		SlideCount:     5,
		IncludeVisuals: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, completer.calls)
	assert.Contains(t, completer.system, "Azərbaycan dilində")
	assert.Contains(t, completer.prompt, "Layihə haqqında sənəd.")

	require.NotNil(t, res.Plan)
	assert.Len(t, res.Plan.Mains, 1)
	assert.Equal(t, pptx.MIMEType, res.MIMEType)

	// Output lands in the output dir with a UUID name.
	assert.Equal(t, dir, filepath.Dir(res.OutputPath))
	base := filepath.Base(res.OutputPath)
	assert.True(t, strings.HasSuffix(base, ".pptx"))
	assert.Len(t, strings.TrimSuffix(base, ".pptx"), 36)
	assert.Equal(t, res.OutputPath, deck.saved)
}

func TestRunUniqueOutputNames(t *testing.T) {
	dir, err := os.MkdirTemp("", "pipeline-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	docPath := writeDOCX(t, dir, "Sənəd.")
	deck := &noopDeck{}
	p := testPipeline(&fakeCompleter{response: validResponse}, deck, dir)

	req := Request{DocumentPath: docPath, SlideCount: 5}
	first, err := p.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.OutputPath, second.OutputPath)
}

func TestRunRejectsSmallSlideCount(t *testing.T) {
	completer := &fakeCompleter{response: validResponse}
	p := testPipeline(completer, &noopDeck{}, ".")

	_, err := p.Run(context.Background(), Request{DocumentPath: "x.docx", SlideCount: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too small")
	// Rejected before any extraction or model call.
	assert.Zero(t, completer.calls)
}

func TestRunExtractionFailure(t *testing.T) {
	completer := &fakeCompleter{response: validResponse}
	p := testPipeline(completer, &noopDeck{}, ".")

	_, err := p.Run(context.Background(), Request{DocumentPath: "nope.txt", SlideCount: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document extraction")
	assert.Zero(t, completer.calls)
}

func TestRunCompletionFailure(t *testing.T) {
	dir, err := os.MkdirTemp("", "pipeline-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	docPath := writeDOCX(t, dir, "Sənəd.")
	p := testPipeline(&fakeCompleter{err: errors.New("quota exhausted")}, &noopDeck{}, dir)

	_, err = p.Run(context.Background(), Request{DocumentPath: docPath, SlideCount: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model completion")
}

func TestRunMalformedResponse(t *testing.T) {
	dir, err := os.MkdirTemp("", "pipeline-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	docPath := writeDOCX(t, dir, "Sənəd.")
	deck := &noopDeck{}
	p := testPipeline(&fakeCompleter{response: "sorry, no JSON here"}, deck, dir)

	_, err = p.Run(context.Background(), Request{DocumentPath: docPath, SlideCount: 5})
	var malformed *plan.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	// Nothing rendered or saved on a parse failure.
	assert.Empty(t, deck.saved)
}

func TestRunTemplateOpenFailure(t *testing.T) {
	dir, err := os.MkdirTemp("", "pipeline-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	docPath := writeDOCX(t, dir, "Sənəd.")
	p := New(&fakeCompleter{response: validResponse}, render.New(nil, nil, ""), filepath.Join(dir, "missing.pptx"), dir)

	_, err = p.Run(context.Background(), Request{DocumentPath: docPath, SlideCount: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.pptx")
}

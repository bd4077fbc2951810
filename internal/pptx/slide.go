package pptx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// EMU conversions. OOXML positions shapes in English Metric Units.
const emuPerInch = 914400

// Fallback bounds for visual content when the layout has no usable
// placeholder: 1in from the left, 2.5in from the top, 6in x 3in.
const (
	fallbackLeft   = 1 * emuPerInch
	fallbackTop    = emuPerInch * 5 / 2
	fallbackWidth  = 6 * emuPerInch
	fallbackHeight = 3 * emuPerInch
)

const newSlideSkeleton = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`

const slideContentType = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
const slideRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
const layoutRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"

// bounds is a shape rectangle in EMU.
type bounds struct {
	x, y, cx, cy int64
}

// SetSlotText replaces the text of a named template slot, keeping the
// slot shape's formatting.
func (d *Deck) SetSlotText(slot, text string) error {
	ref, ok := d.slots[slot]
	if !ok {
		return fmt.Errorf("unknown slot %q", slot)
	}
	setShapeText(ref.shape, text)
	return nil
}

// AddTextBoxBelow inserts a new textbox directly under a slot's shape,
// spanning the same width. Used for the intro slide where the template
// headings stay and the generated text goes beneath them.
func (d *Deck) AddTextBoxBelow(slot, text string, fontPt int) error {
	ref, ok := d.slots[slot]
	if !ok {
		return fmt.Errorf("unknown slot %q", slot)
	}

	b, ok := shapeBounds(ref.shape)
	if !ok {
		return fmt.Errorf("slot %q has no position", slot)
	}

	doc, err := d.doc(ref.part)
	if err != nil {
		return err
	}
	tree := doc.FindElement("//p:spTree")
	if tree == nil {
		return fmt.Errorf("%s has no shape tree", ref.part)
	}

	box := bounds{x: b.x, y: b.y + b.cy, cx: b.cx, cy: 2 * emuPerInch}
	sp := buildTextBox(d.nextShapeID(doc), box, []paragraphSpec{{text: text, fontPt: fontPt}})
	tree.AddChild(sp)
	return nil
}

// AppendSlideFromLayout clones a layout's placeholders into a new slide
// appended at the end of the deck. Returns the new slide's index.
func (d *Deck) AppendSlideFromLayout(layoutIndex int) (int, error) {
	if layoutIndex < 0 || layoutIndex >= len(d.layouts) {
		return 0, fmt.Errorf("layout index %d out of range (%d layouts)", layoutIndex, len(d.layouts))
	}
	layoutPart := d.layouts[layoutIndex]

	layoutDoc, err := d.doc(layoutPart)
	if err != nil {
		return 0, err
	}

	n := d.nextPartNumber("ppt/slides/slide", ".xml")
	slidePart := fmt.Sprintf("ppt/slides/slide%d.xml", n)

	slideDoc := etree.NewDocument()
	if err := slideDoc.ReadFromString(newSlideSkeleton); err != nil {
		return 0, fmt.Errorf("failed to build slide skeleton: %w", err)
	}
	tree := slideDoc.FindElement("//p:spTree")

	// Clone the layout's placeholder shapes with their formatting, minus
	// any layout text.
	for _, sp := range layoutDoc.FindElements("//p:sp") {
		ph := sp.FindElement("p:nvSpPr/p:nvPr/p:ph")
		if ph == nil {
			continue
		}
		switch ph.SelectAttrValue("type", "") {
		case "sldNum", "ftr", "dt":
			continue
		}
		clone := sp.Copy()
		clearShapeText(clone)
		tree.AddChild(clone)
	}

	data, err := slideDoc.WriteToBytes()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize new slide: %w", err)
	}
	d.addEntry(slidePart, data)

	// Relationship from the new slide to its layout.
	relsPart := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n)
	layoutRef := "../slideLayouts/" + strings.TrimPrefix(layoutPart, "ppt/slideLayouts/")
	relsXML := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="%s" Target="%s"/></Relationships>`, layoutRelType, layoutRef)
	d.addEntry(relsPart, []byte(relsXML))

	if err := d.addContentTypeOverride("/"+slidePart, slideContentType); err != nil {
		return 0, err
	}

	rID, err := d.addPresentationRel(slideRelType, fmt.Sprintf("slides/slide%d.xml", n))
	if err != nil {
		return 0, err
	}
	if err := d.appendSlideID(rID); err != nil {
		return 0, err
	}

	d.slides = append(d.slides, slidePart)
	return len(d.slides) - 1, nil
}

// SetTitle sets the title placeholder text of the slide at index.
func (d *Deck) SetTitle(index int, text string) error {
	part, err := d.slidePart(index)
	if err != nil {
		return err
	}
	sp, err := d.titlePlaceholder(part)
	if err != nil {
		return err
	}
	if sp == nil {
		return fmt.Errorf("slide %d has no title placeholder", index)
	}
	setShapeText(sp, text)
	return nil
}

// ParagraphStyle controls appended bullet paragraphs.
type ParagraphStyle struct {
	Level  int    // outline level, 0 = top
	FontPt int    // 0 keeps the placeholder's size
	Color  string // RRGGBB, empty keeps the placeholder's color
}

// FillBodyPlaceholders assigns one point per empty placeholder, walking the
// slide's placeholders in shape order. An empty point clears its placeholder
// so later points keep their positions instead of shifting forward. Points
// beyond the available placeholders are dropped.
func (d *Deck) FillBodyPlaceholders(index int, points []string, style ParagraphStyle) error {
	part, err := d.slidePart(index)
	if err != nil {
		return err
	}
	doc, err := d.doc(part)
	if err != nil {
		return err
	}

	shapes := emptyPlaceholders(doc)
	for i, sp := range shapes {
		if i >= len(points) {
			break
		}
		txBody := sp.FindElement("p:txBody")
		if txBody == nil {
			continue
		}
		for _, p := range txBody.SelectElements("a:p") {
			txBody.RemoveChild(p)
		}
		if strings.TrimSpace(points[i]) == "" {
			txBody.CreateElement("a:p")
			continue
		}
		txBody.AddChild(buildParagraph(points[i], style))
	}
	return nil
}

// AppendBulletParagraphs appends one paragraph per line to the slide's
// empty body shape. The target is the last shape whose first paragraph has
// no text, which is the recommendation slide's content placeholder. Body
// slides fill their placeholders with FillBodyPlaceholders instead.
func (d *Deck) AppendBulletParagraphs(index int, lines []string, style ParagraphStyle) error {
	part, err := d.slidePart(index)
	if err != nil {
		return err
	}
	doc, err := d.doc(part)
	if err != nil {
		return err
	}

	body := lastEmptyShape(doc)
	if body == nil {
		return fmt.Errorf("slide %d has no empty body shape", index)
	}

	txBody := body.FindElement("p:txBody")
	if txBody == nil {
		return fmt.Errorf("slide %d body shape has no text frame", index)
	}

	// Drop the placeholder's empty paragraphs before appending content.
	for _, p := range txBody.SelectElements("a:p") {
		if paragraphText(p) == "" {
			txBody.RemoveChild(p)
		}
	}

	for _, line := range lines {
		txBody.AddChild(buildParagraph(line, style))
	}
	return nil
}

// InsertNotice adds a plain textbox at the slide's visual bounds. Used for
// unsupported visual types and failed image generation.
func (d *Deck) InsertNotice(index int, text string) error {
	part, err := d.slidePart(index)
	if err != nil {
		return err
	}
	doc, err := d.doc(part)
	if err != nil {
		return err
	}
	tree := doc.FindElement("//p:spTree")
	if tree == nil {
		return fmt.Errorf("%s has no shape tree", part)
	}

	b := d.visualBounds(doc)
	sp := buildTextBox(d.nextShapeID(doc), b, []paragraphSpec{{text: text, fontPt: 17}})
	tree.AddChild(sp)
	return nil
}

// slidePart maps a deck slide index to its part path.
func (d *Deck) slidePart(index int) (string, error) {
	if index < 0 || index >= len(d.slides) {
		return "", fmt.Errorf("slide index %d out of range (%d slides)", index, len(d.slides))
	}
	return d.slides[index], nil
}

// visualBounds returns the rectangle of the slide's content placeholder,
// or the fallback rectangle when none carries a position.
func (d *Deck) visualBounds(doc *etree.Document) bounds {
	for _, sp := range doc.FindElements("//p:sp") {
		ph := sp.FindElement("p:nvSpPr/p:nvPr/p:ph")
		if ph == nil {
			continue
		}
		switch ph.SelectAttrValue("type", "") {
		case "title", "ctrTitle":
			continue
		}
		if b, ok := shapeBounds(sp); ok {
			return b
		}
	}
	return bounds{x: fallbackLeft, y: fallbackTop, cx: fallbackWidth, cy: fallbackHeight}
}

// nextShapeID returns an unused shape id for the slide.
func (d *Deck) nextShapeID(doc *etree.Document) int {
	max := 1
	for _, cNvPr := range doc.FindElements("//p:cNvPr") {
		if id, err := strconv.Atoi(cNvPr.SelectAttrValue("id", "")); err == nil && id > max {
			max = id
		}
	}
	return max + 1
}

// addContentTypeOverride registers a part's content type.
func (d *Deck) addContentTypeOverride(partName, contentType string) error {
	doc, err := d.doc("[Content_Types].xml")
	if err != nil {
		return err
	}
	root := doc.Root()
	override := root.CreateElement("Override")
	override.CreateAttr("PartName", partName)
	override.CreateAttr("ContentType", contentType)
	return nil
}

// ensureDefaultContentType registers a Default extension mapping once.
func (d *Deck) ensureDefaultContentType(extension, contentType string) error {
	doc, err := d.doc("[Content_Types].xml")
	if err != nil {
		return err
	}
	root := doc.Root()
	for _, def := range root.SelectElements("Default") {
		if def.SelectAttrValue("Extension", "") == extension {
			return nil
		}
	}
	def := root.CreateElement("Default")
	def.CreateAttr("Extension", extension)
	def.CreateAttr("ContentType", contentType)
	return nil
}

// addPresentationRel adds a relationship to the presentation part and
// returns the new relationship id.
func (d *Deck) addPresentationRel(relType, target string) (string, error) {
	doc, err := d.doc("ppt/_rels/presentation.xml.rels")
	if err != nil {
		return "", err
	}
	root := doc.Root()

	max := 0
	for _, rel := range root.SelectElements("Relationship") {
		id := rel.SelectAttrValue("Id", "")
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "rId")); err == nil && n > max {
			max = n
		}
	}
	rID := fmt.Sprintf("rId%d", max+1)

	rel := root.CreateElement("Relationship")
	rel.CreateAttr("Id", rID)
	rel.CreateAttr("Type", relType)
	rel.CreateAttr("Target", target)
	return rID, nil
}

// addSlideRel adds a relationship to a slide part and returns its id.
func (d *Deck) addSlideRel(index int, relType, target string) (string, error) {
	part, err := d.slidePart(index)
	if err != nil {
		return "", err
	}
	relsPart := "ppt/slides/_rels/" + strings.TrimPrefix(part, "ppt/slides/") + ".rels"
	if _, ok := d.entries[relsPart]; !ok {
		d.addEntry(relsPart, []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`))
	}

	doc, err := d.doc(relsPart)
	if err != nil {
		return "", err
	}
	root := doc.Root()

	max := 0
	for _, rel := range root.SelectElements("Relationship") {
		id := rel.SelectAttrValue("Id", "")
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "rId")); err == nil && n > max {
			max = n
		}
	}
	rID := fmt.Sprintf("rId%d", max+1)

	rel := root.CreateElement("Relationship")
	rel.CreateAttr("Id", rID)
	rel.CreateAttr("Type", relType)
	rel.CreateAttr("Target", target)
	return rID, nil
}

// appendSlideID appends a sldId entry referencing rID.
func (d *Deck) appendSlideID(rID string) error {
	doc, err := d.doc("ppt/presentation.xml")
	if err != nil {
		return err
	}
	lst := doc.FindElement("//p:sldIdLst")
	if lst == nil {
		return fmt.Errorf("presentation.xml has no slide list")
	}

	max := 255
	for _, sldID := range lst.ChildElements() {
		if n, err := strconv.Atoi(sldID.SelectAttrValue("id", "")); err == nil && n > max {
			max = n
		}
	}

	sldID := lst.CreateElement("p:sldId")
	sldID.CreateAttr("id", strconv.Itoa(max+1))
	sldID.CreateAttr("r:id", rID)
	return nil
}

// =============================================================================
// SHAPE HELPERS
// =============================================================================

// setShapeText replaces a shape's text with a single run, preserving the
// first run's properties when present.
func setShapeText(sp *etree.Element, text string) {
	txBody := sp.FindElement("p:txBody")
	if txBody == nil {
		return
	}

	paragraphs := txBody.SelectElements("a:p")
	if len(paragraphs) == 0 {
		p := txBody.CreateElement("a:p")
		r := p.CreateElement("a:r")
		r.CreateElement("a:t").SetText(text)
		return
	}

	first := paragraphs[0]
	for _, extra := range paragraphs[1:] {
		txBody.RemoveChild(extra)
	}

	runs := first.SelectElements("a:r")
	if len(runs) == 0 {
		r := first.CreateElement("a:r")
		r.CreateElement("a:t").SetText(text)
		return
	}
	for _, extra := range runs[1:] {
		first.RemoveChild(extra)
	}
	t := runs[0].FindElement("a:t")
	if t == nil {
		t = runs[0].CreateElement("a:t")
	}
	t.SetText(text)
}

// clearShapeText removes all paragraphs from a shape, leaving one empty one.
func clearShapeText(sp *etree.Element) {
	txBody := sp.FindElement("p:txBody")
	if txBody == nil {
		return
	}
	for _, p := range txBody.SelectElements("a:p") {
		txBody.RemoveChild(p)
	}
	txBody.CreateElement("a:p")
}

// paragraphText concatenates a paragraph's run texts.
func paragraphText(p *etree.Element) string {
	var b strings.Builder
	for _, t := range p.FindElements(".//a:t") {
		b.WriteString(t.Text())
	}
	return strings.TrimSpace(b.String())
}

// emptyPlaceholders returns the slide's placeholder shapes with no text,
// in document order.
func emptyPlaceholders(doc *etree.Document) []*etree.Element {
	var out []*etree.Element
	for _, sp := range doc.FindElements("//p:sp") {
		if sp.FindElement("p:nvSpPr/p:nvPr/p:ph") == nil {
			continue
		}
		txBody := sp.FindElement("p:txBody")
		if txBody == nil {
			continue
		}
		empty := true
		for _, p := range txBody.SelectElements("a:p") {
			if paragraphText(p) != "" {
				empty = false
				break
			}
		}
		if empty {
			out = append(out, sp)
		}
	}
	return out
}

// lastEmptyShape finds the last shape whose first paragraph has no text.
func lastEmptyShape(doc *etree.Document) *etree.Element {
	var found *etree.Element
	for _, sp := range doc.FindElements("//p:sp") {
		txBody := sp.FindElement("p:txBody")
		if txBody == nil {
			continue
		}
		paragraphs := txBody.SelectElements("a:p")
		if len(paragraphs) == 0 || paragraphText(paragraphs[0]) == "" {
			found = sp
		}
	}
	return found
}

// shapeBounds reads a shape's xfrm rectangle.
func shapeBounds(sp *etree.Element) (bounds, bool) {
	xfrm := sp.FindElement("p:spPr/a:xfrm")
	if xfrm == nil {
		return bounds{}, false
	}
	off := xfrm.FindElement("a:off")
	ext := xfrm.FindElement("a:ext")
	if off == nil || ext == nil {
		return bounds{}, false
	}
	x, err1 := strconv.ParseInt(off.SelectAttrValue("x", ""), 10, 64)
	y, err2 := strconv.ParseInt(off.SelectAttrValue("y", ""), 10, 64)
	cx, err3 := strconv.ParseInt(ext.SelectAttrValue("cx", ""), 10, 64)
	cy, err4 := strconv.ParseInt(ext.SelectAttrValue("cy", ""), 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return bounds{}, false
	}
	return bounds{x: x, y: y, cx: cx, cy: cy}, true
}

// paragraphSpec describes one paragraph of a generated textbox.
type paragraphSpec struct {
	text   string
	fontPt int
}

// buildTextBox creates a word-wrapped textbox shape with zero insets.
func buildTextBox(id int, b bounds, paragraphs []paragraphSpec) *etree.Element {
	sp := etree.NewElement("p:sp")

	nv := sp.CreateElement("p:nvSpPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	cNvPr.CreateAttr("name", fmt.Sprintf("TextBox %d", id))
	cNvSpPr := nv.CreateElement("p:cNvSpPr")
	cNvSpPr.CreateAttr("txBox", "1")
	nv.CreateElement("p:nvPr")

	spPr := sp.CreateElement("p:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", strconv.FormatInt(b.x, 10))
	off.CreateAttr("y", strconv.FormatInt(b.y, 10))
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", strconv.FormatInt(b.cx, 10))
	ext.CreateAttr("cy", strconv.FormatInt(b.cy, 10))
	geom := spPr.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")

	txBody := sp.CreateElement("p:txBody")
	bodyPr := txBody.CreateElement("a:bodyPr")
	bodyPr.CreateAttr("wrap", "square")
	bodyPr.CreateAttr("lIns", "0")
	bodyPr.CreateAttr("tIns", "0")
	bodyPr.CreateAttr("rIns", "0")
	bodyPr.CreateAttr("bIns", "0")
	txBody.CreateElement("a:lstStyle")

	for _, spec := range paragraphs {
		p := txBody.CreateElement("a:p")
		r := p.CreateElement("a:r")
		if spec.fontPt > 0 {
			rPr := r.CreateElement("a:rPr")
			rPr.CreateAttr("lang", "az-Latn-AZ")
			rPr.CreateAttr("sz", strconv.Itoa(spec.fontPt*100))
			rPr.CreateAttr("b", "0")
		}
		r.CreateElement("a:t").SetText(spec.text)
	}

	return sp
}

// buildParagraph creates a styled bullet paragraph.
func buildParagraph(text string, style ParagraphStyle) *etree.Element {
	p := etree.NewElement("a:p")
	if style.Level > 0 {
		pPr := p.CreateElement("a:pPr")
		pPr.CreateAttr("lvl", strconv.Itoa(style.Level))
	}
	r := p.CreateElement("a:r")
	if style.FontPt > 0 || style.Color != "" {
		rPr := r.CreateElement("a:rPr")
		rPr.CreateAttr("lang", "az-Latn-AZ")
		if style.FontPt > 0 {
			rPr.CreateAttr("sz", strconv.Itoa(style.FontPt*100))
		}
		if style.Color != "" {
			fill := rPr.CreateElement("a:solidFill")
			clr := fill.CreateElement("a:srgbClr")
			clr.CreateAttr("val", style.Color)
		}
	}
	r.CreateElement("a:t").SetText(text)
	return p
}

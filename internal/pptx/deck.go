// Package pptx edits PowerPoint decks by rewriting the OOXML parts inside
// the .pptx ZIP container. It is written against a known template: the
// template's first slide carries the title and date slots, the second
// carries the summary and aim markers, and the slide master provides the
// layouts used for generated slides.
package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"slideforge/internal/logging"
)

// MIMEType is the content type of a rendered deck.
const MIMEType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// Slot names resolved against the template at open time.
const (
	SlotTitle   = "title"
	SlotDate    = "date"
	SlotContent = "content"
	SlotPurpose = "purpose"
)

// Template markers. The date placeholder contains "Tarix", the intro slide
// carries the summary and aim headings.
const (
	markerDate    = "Tarix"
	markerContent = "Layihənin məzmunu"
	markerPurpose = "Məqsəd"
)

// TemplateMismatchError reports a template that lacks an expected slot.
type TemplateMismatchError struct {
	Slot string
	Part string
}

func (e *TemplateMismatchError) Error() string {
	return fmt.Sprintf("template mismatch: slot %q not found in %s", e.Slot, e.Part)
}

// slotRef points at a shape inside a slide part.
type slotRef struct {
	part  string
	shape *etree.Element
}

// Deck is an in-memory pptx container with tracked slide order.
type Deck struct {
	entries map[string][]byte
	order   []string
	docs    map[string]*etree.Document

	slides  []string // slide part paths in sldIdLst order
	layouts []string // layout part paths in master order
	slots   map[string]slotRef
}

// Open loads a template deck and resolves its slots.
func Open(path string) (*Deck, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer zr.Close()

	d := &Deck{
		entries: make(map[string][]byte),
		docs:    make(map[string]*etree.Document),
		slots:   make(map[string]slotRef),
	}

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		d.entries[f.Name] = data
		d.order = append(d.order, f.Name)
	}

	if err := d.resolveSlides(); err != nil {
		return nil, err
	}
	if err := d.resolveLayouts(); err != nil {
		return nil, err
	}
	if err := d.resolveSlots(); err != nil {
		return nil, err
	}

	logging.RenderDebug("[pptx] opened template %s: %d slides, %d layouts", path, len(d.slides), len(d.layouts))
	return d, nil
}

// doc returns the parsed XML document for a part, parsing on first access.
// Parsed parts are serialized back on Save.
func (d *Deck) doc(part string) (*etree.Document, error) {
	if doc, ok := d.docs[part]; ok {
		return doc, nil
	}
	data, ok := d.entries[part]
	if !ok {
		return nil, fmt.Errorf("part not found: %s", part)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", part, err)
	}
	d.docs[part] = doc
	return doc, nil
}

// resolveSlides reads the presentation part and orders slide parts as they
// appear in sldIdLst.
func (d *Deck) resolveSlides() error {
	rels, err := d.relTargets("ppt/_rels/presentation.xml.rels")
	if err != nil {
		return err
	}

	doc, err := d.doc("ppt/presentation.xml")
	if err != nil {
		return err
	}
	lst := doc.FindElement("//p:sldIdLst")
	if lst == nil {
		return fmt.Errorf("presentation.xml has no slide list")
	}
	for _, sldID := range lst.ChildElements() {
		rID := sldID.SelectAttrValue("r:id", "")
		target, ok := rels[rID]
		if !ok {
			return fmt.Errorf("unresolved slide relationship %s", rID)
		}
		d.slides = append(d.slides, resolveTarget("ppt", target))
	}
	if len(d.slides) < 2 {
		return fmt.Errorf("template must contain at least two slides, found %d", len(d.slides))
	}
	return nil
}

// resolveLayouts orders layout parts as they appear in the slide master,
// which matches the layout indexes the planner uses.
func (d *Deck) resolveLayouts() error {
	const master = "ppt/slideMasters/slideMaster1.xml"
	rels, err := d.relTargets("ppt/slideMasters/_rels/slideMaster1.xml.rels")
	if err != nil {
		return err
	}

	doc, err := d.doc(master)
	if err != nil {
		return err
	}
	lst := doc.FindElement("//p:sldLayoutIdLst")
	if lst == nil {
		return fmt.Errorf("slide master has no layout list")
	}
	for _, layoutID := range lst.ChildElements() {
		rID := layoutID.SelectAttrValue("r:id", "")
		target, ok := rels[rID]
		if !ok {
			return fmt.Errorf("unresolved layout relationship %s", rID)
		}
		d.layouts = append(d.layouts, resolveTarget("ppt/slideMasters", target))
	}
	return nil
}

// resolveSlots locates the named template shapes. The title slot is the
// first slide's title placeholder, the date slot is the shape containing
// the date marker, and the intro slots are the marker shapes on slide two.
func (d *Deck) resolveSlots() error {
	titleShape, err := d.titlePlaceholder(d.slides[0])
	if err != nil {
		return err
	}
	if titleShape == nil {
		return &TemplateMismatchError{Slot: SlotTitle, Part: d.slides[0]}
	}
	d.slots[SlotTitle] = slotRef{part: d.slides[0], shape: titleShape}

	dateShape, err := d.shapeContaining(d.slides[0], markerDate)
	if err != nil {
		return err
	}
	if dateShape == nil {
		return &TemplateMismatchError{Slot: SlotDate, Part: d.slides[0]}
	}
	d.slots[SlotDate] = slotRef{part: d.slides[0], shape: dateShape}

	contentShape, err := d.shapeContaining(d.slides[1], markerContent)
	if err != nil {
		return err
	}
	if contentShape == nil {
		return &TemplateMismatchError{Slot: SlotContent, Part: d.slides[1]}
	}
	d.slots[SlotContent] = slotRef{part: d.slides[1], shape: contentShape}

	purposeShape, err := d.shapeContaining(d.slides[1], markerPurpose)
	if err != nil {
		return err
	}
	if purposeShape == nil {
		return &TemplateMismatchError{Slot: SlotPurpose, Part: d.slides[1]}
	}
	d.slots[SlotPurpose] = slotRef{part: d.slides[1], shape: purposeShape}

	return nil
}

// titlePlaceholder finds the title placeholder shape of a slide part.
func (d *Deck) titlePlaceholder(part string) (*etree.Element, error) {
	doc, err := d.doc(part)
	if err != nil {
		return nil, err
	}
	for _, sp := range doc.FindElements("//p:sp") {
		ph := sp.FindElement("p:nvSpPr/p:nvPr/p:ph")
		if ph == nil {
			continue
		}
		switch ph.SelectAttrValue("type", "") {
		case "title", "ctrTitle":
			return sp, nil
		}
	}
	return nil, nil
}

// shapeContaining finds the first shape on a slide whose text contains the
// given marker.
func (d *Deck) shapeContaining(part, marker string) (*etree.Element, error) {
	doc, err := d.doc(part)
	if err != nil {
		return nil, err
	}
	for _, sp := range doc.FindElements("//p:sp") {
		if strings.Contains(shapeText(sp), marker) {
			return sp, nil
		}
	}
	return nil, nil
}

// shapeText concatenates all text runs of a shape.
func shapeText(sp *etree.Element) string {
	var b strings.Builder
	for _, t := range sp.FindElements(".//a:t") {
		b.WriteString(t.Text())
	}
	return b.String()
}

// relTargets parses a relationship part into Id -> Target.
func (d *Deck) relTargets(part string) (map[string]string, error) {
	doc, err := d.doc(part)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, rel := range doc.FindElements("//Relationship") {
		out[rel.SelectAttrValue("Id", "")] = rel.SelectAttrValue("Target", "")
	}
	return out, nil
}

// resolveTarget resolves a relationship target relative to a base part dir.
func resolveTarget(baseDir, target string) string {
	target = strings.TrimPrefix(target, "/")
	parts := strings.Split(baseDir, "/")
	for strings.HasPrefix(target, "../") {
		target = strings.TrimPrefix(target, "../")
		if len(parts) > 0 {
			parts = parts[:len(parts)-1]
		}
	}
	if len(parts) == 0 {
		return target
	}
	if strings.HasPrefix(target, "ppt/") {
		return target
	}
	return strings.Join(parts, "/") + "/" + target
}

// SlideCount returns the number of slides currently in the deck.
func (d *Deck) SlideCount() int {
	return len(d.slides)
}

// RemoveSlide drops the slide at index from the presentation's slide list.
// The slide part itself stays in the package, mirroring how the template's
// scaffold slides are hidden rather than physically deleted.
func (d *Deck) RemoveSlide(index int) error {
	if index < 0 || index >= len(d.slides) {
		return fmt.Errorf("slide index %d out of range (%d slides)", index, len(d.slides))
	}

	doc, err := d.doc("ppt/presentation.xml")
	if err != nil {
		return err
	}
	lst := doc.FindElement("//p:sldIdLst")
	if lst == nil {
		return fmt.Errorf("presentation.xml has no slide list")
	}
	children := lst.ChildElements()
	if index >= len(children) {
		return fmt.Errorf("slide list shorter than expected")
	}
	lst.RemoveChild(children[index])

	d.slides = append(d.slides[:index], d.slides[index+1:]...)
	logging.RenderDebug("[pptx] removed slide %d, %d remain", index, len(d.slides))
	return nil
}

// Save serializes all modified parts and writes the deck to path.
func (d *Deck) Save(path string) error {
	for part, doc := range d.docs {
		data, err := doc.WriteToBytes()
		if err != nil {
			return fmt.Errorf("failed to serialize %s: %w", part, err)
		}
		d.entries[part] = data
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range d.order {
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("failed to create zip entry %s: %w", name, err)
		}
		if _, err := w.Write(d.entries[name]); err != nil {
			return fmt.Errorf("failed to write zip entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize deck: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write deck: %w", err)
	}
	logging.Render("[pptx] saved deck to %s (%d slides)", path, len(d.slides))
	return nil
}

// addEntry registers a new part in the package.
func (d *Deck) addEntry(name string, data []byte) {
	if _, exists := d.entries[name]; !exists {
		d.order = append(d.order, name)
	}
	d.entries[name] = data
	delete(d.docs, name)
}

// nextPartNumber returns one past the highest numeric suffix among parts
// matching the prefix/suffix pattern, e.g. ppt/slides/slide<N>.xml.
func (d *Deck) nextPartNumber(prefix, suffix string) int {
	max := 0
	for name := range d.entries {
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		numStr := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		if n, err := strconv.Atoi(numStr); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// sortedParts returns package part names in a stable order, used by tests.
func (d *Deck) sortedParts() []string {
	out := make([]string, 0, len(d.entries))
	for name := range d.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

package pptx

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"slideforge/internal/visual"
)

const (
	chartContentType = "application/vnd.openxmlformats-officedocument.drawingml.chart+xml"
	chartRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/chart"
	imageRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// Axis ids are arbitrary but must match between the plot and the axes.
const (
	catAxisID = 111111111
	valAxisID = 222222222
)

// InsertChart adds a chart part for the instruction and places a graphic
// frame for it at the slide's visual bounds. Value labels are always shown;
// pie charts additionally label category names and percentages outside the
// slices, and bar/line charts title their axes when labels are present.
func (d *Deck) InsertChart(index int, ch visual.Chart) error {
	part, err := d.slidePart(index)
	if err != nil {
		return err
	}

	n := d.nextPartNumber("ppt/charts/chart", ".xml")
	chartPart := fmt.Sprintf("ppt/charts/chart%d.xml", n)

	var chartXML string
	switch ch.Kind {
	case visual.ChartPie:
		chartXML = pieChartXML(ch)
	case visual.ChartLine:
		chartXML = lineChartXML(ch)
	default:
		chartXML = barChartXML(ch)
	}
	d.addEntry(chartPart, []byte(chartXML))

	if err := d.addContentTypeOverride("/"+chartPart, chartContentType); err != nil {
		return err
	}

	rID, err := d.addSlideRel(index, chartRelType, fmt.Sprintf("../charts/chart%d.xml", n))
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
	id := d.nextShapeID(doc)

	frame := tree.CreateElement("p:graphicFrame")
	nv := frame.CreateElement("p:nvGraphicFramePr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	cNvPr.CreateAttr("name", fmt.Sprintf("Chart %d", n))
	nv.CreateElement("p:cNvGraphicFramePr")
	nv.CreateElement("p:nvPr")

	xfrm := frame.CreateElement("p:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", strconv.FormatInt(b.x, 10))
	off.CreateAttr("y", strconv.FormatInt(b.y, 10))
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", strconv.FormatInt(b.cx, 10))
	ext.CreateAttr("cy", strconv.FormatInt(b.cy, 10))

	graphic := frame.CreateElement("a:graphic")
	data := graphic.CreateElement("a:graphicData")
	data.CreateAttr("uri", "http://schemas.openxmlformats.org/drawingml/2006/chart")
	chart := data.CreateElement("c:chart")
	chart.CreateAttr("xmlns:c", "http://schemas.openxmlformats.org/drawingml/2006/chart")
	chart.CreateAttr("xmlns:r", "http://schemas.openxmlformats.org/officeDocument/2006/relationships")
	chart.CreateAttr("r:id", rID)

	return nil
}

// InsertPicture embeds the image file as a media part and places it at the
// slide's visual bounds.
func (d *Deck) InsertPicture(index int, imagePath string) error {
	part, err := d.slidePart(index)
	if err != nil {
		return err
	}

	imgData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	if err := d.ensureDefaultContentType("png", "image/png"); err != nil {
		return err
	}

	n := d.nextPartNumber("ppt/media/image", ".png")
	mediaPart := fmt.Sprintf("ppt/media/image%d.png", n)
	d.addEntry(mediaPart, imgData)

	rID, err := d.addSlideRel(index, imageRelType, fmt.Sprintf("../media/image%d.png", n))
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
	id := d.nextShapeID(doc)

	pic := tree.CreateElement("p:pic")
	nv := pic.CreateElement("p:nvPicPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	cNvPr.CreateAttr("name", fmt.Sprintf("Picture %d", n))
	cNvPicPr := nv.CreateElement("p:cNvPicPr")
	locks := cNvPicPr.CreateElement("a:picLocks")
	locks.CreateAttr("noChangeAspect", "1")
	nv.CreateElement("p:nvPr")

	fill := pic.CreateElement("p:blipFill")
	blip := fill.CreateElement("a:blip")
	blip.CreateAttr("r:embed", rID)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")

	spPr := pic.CreateElement("p:spPr")
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

	return nil
}

// =============================================================================
// CHART PART XML
// =============================================================================

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func esc(s string) string {
	return xmlEscaper.Replace(s)
}

const chartSpaceHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<c:chartSpace xmlns:c="http://schemas.openxmlformats.org/drawingml/2006/chart" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><c:chart>`

const chartSpaceFooter = `<c:plotVisOnly val="1"/></c:chart></c:chartSpace>`

// chartTitle renders the chart title block.
func chartTitle(title string) string {
	return fmt.Sprintf(`<c:title><c:tx><c:rich><a:bodyPr/><a:lstStyle/><a:p><a:r><a:t>%s</a:t></a:r></a:p></c:rich></c:tx><c:overlay val="0"/></c:title><c:autoTitleDeleted val="0"/>`, esc(title))
}

// stringCache renders categories as a literal string cache.
func stringCache(values []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<c:strLit><c:ptCount val="%d"/>`, len(values))
	for i, v := range values {
		fmt.Fprintf(&b, `<c:pt idx="%d"><c:v>%s</c:v></c:pt>`, i, esc(v))
	}
	b.WriteString(`</c:strLit>`)
	return b.String()
}

// numberCache renders series values as a literal number cache.
func numberCache(values []float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<c:numLit><c:formatCode>General</c:formatCode><c:ptCount val="%d"/>`, len(values))
	for i, v := range values {
		fmt.Fprintf(&b, `<c:pt idx="%d"><c:v>%s</c:v></c:pt>`, i, strconv.FormatFloat(v, 'f', -1, 64))
	}
	b.WriteString(`</c:numLit>`)
	return b.String()
}

// series renders the single data series shared by all chart kinds.
func series(categories []string, values []float64) string {
	return fmt.Sprintf(`<c:ser><c:idx val="0"/><c:order val="0"/><c:cat>%s</c:cat><c:val>%s</c:val></c:ser>`,
		stringCache(categories), numberCache(values))
}

// axisTitle renders an axis title block, empty when the label is blank.
func axisTitle(label string) string {
	if strings.TrimSpace(label) == "" {
		return ""
	}
	return fmt.Sprintf(`<c:title><c:tx><c:rich><a:bodyPr/><a:lstStyle/><a:p><a:r><a:t>%s</a:t></a:r></a:p></c:rich></c:tx><c:overlay val="0"/></c:title>`, esc(label))
}

// axes renders the category and value axes with optional titles.
func axes(xLabel, yLabel string) string {
	return fmt.Sprintf(
		`<c:catAx><c:axId val="%d"/><c:scaling><c:orientation val="minMax"/></c:scaling><c:delete val="0"/><c:axPos val="b"/>%s<c:crossAx val="%d"/></c:catAx>`+
			`<c:valAx><c:axId val="%d"/><c:scaling><c:orientation val="minMax"/></c:scaling><c:delete val="0"/><c:axPos val="l"/>%s<c:crossAx val="%d"/></c:valAx>`,
		catAxisID, axisTitle(xLabel), valAxisID,
		valAxisID, axisTitle(yLabel), catAxisID)
}

// valueLabels shows values on every data point.
const valueLabels = `<c:dLbls><c:showLegendKey val="0"/><c:showVal val="1"/><c:showCatName val="0"/><c:showSerName val="0"/><c:showPercent val="0"/><c:showBubbleSize val="0"/></c:dLbls>`

// pieLabels shows value, category name and percentage outside the slices.
const pieLabels = `<c:dLbls><c:dLblPos val="outEnd"/><c:showLegendKey val="0"/><c:showVal val="1"/><c:showCatName val="1"/><c:showSerName val="0"/><c:showPercent val="1"/><c:showBubbleSize val="0"/></c:dLbls>`

func barChartXML(ch visual.Chart) string {
	return chartSpaceHeader + chartTitle(ch.Title) +
		`<c:plotArea><c:layout/><c:barChart><c:barDir val="col"/><c:grouping val="clustered"/><c:varyColors val="0"/>` +
		series(ch.Categories, ch.Series) + valueLabels +
		fmt.Sprintf(`<c:axId val="%d"/><c:axId val="%d"/></c:barChart>`, catAxisID, valAxisID) +
		axes(ch.XLabel, ch.YLabel) +
		`</c:plotArea>` + chartSpaceFooter
}

func lineChartXML(ch visual.Chart) string {
	return chartSpaceHeader + chartTitle(ch.Title) +
		`<c:plotArea><c:layout/><c:lineChart><c:grouping val="standard"/><c:varyColors val="0"/>` +
		series(ch.Categories, ch.Series) + valueLabels +
		`<c:marker val="1"/>` +
		fmt.Sprintf(`<c:axId val="%d"/><c:axId val="%d"/></c:lineChart>`, catAxisID, valAxisID) +
		axes(ch.XLabel, ch.YLabel) +
		`</c:plotArea>` + chartSpaceFooter
}

func pieChartXML(ch visual.Chart) string {
	return chartSpaceHeader + chartTitle(ch.Title) +
		`<c:plotArea><c:layout/><c:pieChart><c:varyColors val="1"/>` +
		series(ch.Categories, ch.Series) + pieLabels +
		`<c:firstSliceAng val="0"/></c:pieChart></c:plotArea>` + chartSpaceFooter
}
